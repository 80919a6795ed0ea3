package requeue

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	// Packages
	json "github.com/goccy/go-json"
	uuid "github.com/google/uuid"
	correlation "github.com/mutablelogic/go-requeue/pkg/correlation"
	request "github.com/mutablelogic/go-requeue/pkg/request"
	assert "github.com/stretchr/testify/assert"
)

////////////////////////////////////////////////////////////////////////////////
// FAKE JOB

type fakeJob struct {
	id       uuid.UUID
	payload  []byte
	final    bool
	complete error
	result   any
	done     bool
}

func newFakeJob(t *testing.T, req *request.Request) *fakeJob {
	t.Helper()
	payload, err := req.Encode()
	if err != nil {
		t.Fatal(err)
	}
	return &fakeJob{id: uuid.New(), payload: payload}
}

func (j *fakeJob) Id() uuid.UUID {
	return j.id
}

func (j *fakeJob) Payload() json.RawMessage {
	return j.payload
}

func (j *fakeJob) Final() bool {
	return j.final
}

func (j *fakeJob) Complete(_ context.Context, result any) error {
	if j.complete != nil {
		return j.complete
	}
	j.result = result
	j.done = true
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// TESTS

func Test_Executor_001(t *testing.T) {
	assert := assert.New(t)

	// A server which rejects the first two requests
	var count atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if count.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	exec := &executor{client: server.Client(), table: correlation.New(), metrics: newMetrics("test")}
	req, err := request.Get(server.URL)
	assert.NoError(err)
	job := newFakeJob(t, req)

	// Retried until accepted
	assert.ErrorIs(exec.HTTP(context.TODO(), job), ErrNotAccepted)
	assert.False(job.done)
	assert.ErrorIs(exec.HTTP(context.TODO(), job), ErrNotAccepted)
	assert.False(job.done)
	assert.NoError(exec.HTTP(context.TODO(), job))
	assert.True(job.done)
	assert.Equal(int32(3), count.Load())

	if resp, ok := job.result.(*request.Response); assert.True(ok) {
		assert.Equal(http.StatusOK, resp.Status)
		assert.Equal("ok", string(resp.Body))
	}
}

func Test_Executor_002(t *testing.T) {
	assert := assert.New(t)
	exec := &executor{client: http.DefaultClient, table: correlation.New()}

	t.Run("MissingPayload", func(t *testing.T) {
		job := &fakeJob{id: uuid.New()}
		assert.ErrorIs(exec.HTTP(context.TODO(), job), ErrMissingRequest)
		assert.False(job.done)
	})

	t.Run("MalformedPayload", func(t *testing.T) {
		job := &fakeJob{id: uuid.New(), payload: []byte(`{"method":`)}
		assert.ErrorIs(exec.HTTPResponse(context.TODO(), job), ErrMissingRequest)
		assert.False(job.done)
	})

	t.Run("NotSent", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		req, err := request.Get(url)
		assert.NoError(err)
		job := newFakeJob(t, req)
		assert.ErrorIs(exec.HTTP(context.TODO(), job), ErrNotSent)
		assert.False(job.done)
	})
}

func Test_Executor_003(t *testing.T) {
	assert := assert.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	table := correlation.New()
	exec := &executor{client: server.Client(), table: table}
	req, err := request.Post(server.URL, []byte("hello"), request.WithAccept(request.Single(http.StatusCreated)))
	assert.NoError(err)

	t.Run("Delivered", func(t *testing.T) {
		job := newFakeJob(t, req)
		waiter, err := table.Register(job.Id())
		assert.NoError(err)

		assert.NoError(exec.HTTPResponse(context.TODO(), job))
		assert.True(job.done)

		ctx, cancel := context.WithTimeout(context.TODO(), time.Second)
		defer cancel()
		resp, err := waiter.Wait(ctx)
		assert.NoError(err)
		assert.Equal(http.StatusCreated, resp.Status)
		assert.Equal(0, table.Len())
	})

	t.Run("MissingSender", func(t *testing.T) {
		job := newFakeJob(t, req)
		err := exec.HTTPResponse(context.TODO(), job)
		assert.ErrorIs(err, ErrUndelivered)
		assert.ErrorIs(err, correlation.ErrMissingSender)
		assert.True(job.done)
	})

	t.Run("MissingReceiver", func(t *testing.T) {
		job := newFakeJob(t, req)
		waiter, err := table.Register(job.Id())
		assert.NoError(err)
		waiter.Close()

		err = exec.HTTPResponse(context.TODO(), job)
		assert.ErrorIs(err, ErrUndelivered)
		assert.ErrorIs(err, correlation.ErrMissingReceiver)
		assert.True(job.done)
		assert.Equal(0, table.Len())
	})

	t.Run("CompleteFails", func(t *testing.T) {
		job := newFakeJob(t, req)
		job.complete = errors.New("database unavailable")
		_, err := table.Register(job.Id())
		assert.NoError(err)

		err = exec.HTTPResponse(context.TODO(), job)
		assert.ErrorContains(err, "database unavailable")
		assert.False(job.done)
	})
}

func Test_Executor_004(t *testing.T) {
	assert := assert.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	table := correlation.New()
	exec := &executor{client: server.Client(), table: table}
	req, err := request.Get(server.URL)
	assert.NoError(err)

	t.Run("NotFinal", func(t *testing.T) {
		job := newFakeJob(t, req)
		_, err := table.Register(job.Id())
		assert.NoError(err)

		assert.ErrorIs(exec.HTTPResponse(context.TODO(), job), ErrNotAccepted)
		assert.Equal(1, table.Len())
		table.Forget(job.Id())
	})

	t.Run("Final", func(t *testing.T) {
		job := newFakeJob(t, req)
		job.final = true
		waiter, err := table.Register(job.Id())
		assert.NoError(err)

		assert.ErrorIs(exec.HTTPResponse(context.TODO(), job), ErrNotAccepted)
		assert.Equal(0, table.Len())

		resp, err := waiter.Wait(context.TODO())
		assert.Nil(resp)
		assert.ErrorIs(err, ErrNotAccepted)
	})
}

func Test_Executor_005(t *testing.T) {
	assert := assert.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	exec := &executor{client: server.Client(), table: correlation.New(), maxBody: 4}
	req, err := request.Get(server.URL)
	assert.NoError(err)
	job := newFakeJob(t, req)

	assert.NoError(exec.HTTP(context.TODO(), job))
	if resp, ok := job.result.(*request.Response); assert.True(ok) {
		assert.Equal("0123", string(resp.Body))
		assert.True(resp.Truncated)
	}

	// A body within the limit is kept whole
	exec.maxBody = 10
	job = newFakeJob(t, req)
	assert.NoError(exec.HTTP(context.TODO(), job))
	if resp, ok := job.result.(*request.Response); assert.True(ok) {
		assert.Equal("0123456789", string(resp.Body))
		assert.False(resp.Truncated)
	}
}
