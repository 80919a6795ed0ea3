package requeue

import (
	"context"
	"errors"
	"testing"
	"time"

	// Packages
	uuid "github.com/google/uuid"
	pgconn "github.com/jackc/pgx/v5/pgconn"
	pg "github.com/mutablelogic/go-requeue/pkg/pg"
	schema "github.com/mutablelogic/go-requeue/pkg/queue/schema"
	assert "github.com/stretchr/testify/assert"
)

func Test_Retry_001(t *testing.T) {
	assert := assert.New(t)

	conflicts := []error{
		&pgconn.PgError{Code: "40001"},
		&pgconn.PgError{Code: "40P01"},
		&pgconn.PgError{Code: "23505", ConstraintName: schema.TaskSeqKey},
	}
	for _, conflict := range conflicts {
		// Conflicts are absorbed
		var calls int
		expected := uuid.New()
		id, err := retryingSpawn(context.TODO(), func(context.Context) (uuid.UUID, error) {
			if calls++; calls <= 5 {
				return uuid.Nil, errors.Join(pg.ErrConflict, conflict)
			}
			return expected, nil
		})
		assert.NoError(err)
		assert.Equal(expected, id)
		assert.Equal(6, calls)
	}
}

func Test_Retry_002(t *testing.T) {
	assert := assert.New(t)

	// Other errors are returned immediately
	errs := []error{
		pg.ErrNotFound,
		&pgconn.PgError{Code: "23505", ConstraintName: "queue_pkey"},
		&pgconn.PgError{Code: "23503"},
		errors.New("other"),
	}
	for _, expected := range errs {
		var calls int
		_, err := retryingSpawn(context.TODO(), func(context.Context) (uuid.UUID, error) {
			calls++
			return uuid.Nil, expected
		})
		assert.ErrorIs(err, expected)
		assert.Equal(1, calls)
	}
}

func Test_Retry_003(t *testing.T) {
	assert := assert.New(t)

	// Retries are bounded
	var calls int
	_, err := retryingSpawn(context.TODO(), func(context.Context) (uuid.UUID, error) {
		calls++
		return uuid.Nil, &pgconn.PgError{Code: "40001"}
	})
	assert.Error(err)
	assert.Equal(retryMaxRetries+1, calls)
}

func Test_Retry_004(t *testing.T) {
	assert := assert.New(t)

	// Retries stop when the context is done
	ctx, cancel := context.WithTimeout(context.TODO(), 20*time.Millisecond)
	defer cancel()
	_, err := retryingSpawn(ctx, func(context.Context) (uuid.UUID, error) {
		return uuid.Nil, &pgconn.PgError{Code: "40P01"}
	})
	assert.ErrorIs(err, context.DeadlineExceeded)
}
