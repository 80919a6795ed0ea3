package requeue

import (
	"context"
	"time"

	// Packages
	backoff "github.com/cenkalti/backoff/v4"
	uuid "github.com/google/uuid"
	queue "github.com/mutablelogic/go-requeue/pkg/queue"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	retryInitialInterval = time.Millisecond
	retryMaxInterval     = 100 * time.Millisecond
	retryMaxRetries      = 64
)

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// retryingSpawn calls fn until it succeeds or returns an error which is not
// a transient conflict. Conflicts are retried with exponential backoff, up to
// a fixed number of times or until the context is done.
func retryingSpawn(ctx context.Context, fn func(context.Context) (uuid.UUID, error)) (uuid.UUID, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = 0

	return backoff.RetryWithData(func() (uuid.UUID, error) {
		id, err := fn(ctx)
		if err != nil && !queue.ShouldRetry(err) {
			return uuid.Nil, backoff.Permanent(err)
		}
		return id, err
	}, backoff.WithContext(backoff.WithMaxRetries(b, retryMaxRetries), ctx))
}
