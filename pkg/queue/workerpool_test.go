package queue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	// Packages
	queue "github.com/mutablelogic/go-requeue/pkg/queue"
	schema "github.com/mutablelogic/go-requeue/pkg/queue/schema"
	assert "github.com/stretchr/testify/assert"
)

////////////////////////////////////////////////////////////////////////////////
// WORKER POOL TESTS

func Test_WorkerPool_New(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := queue.New(ctx, conn, queue.WithNamespace("test_wp"))
	assert.NoError(err)

	t.Run("DefaultOptions", func(t *testing.T) {
		pool, err := queue.NewWorkerPool(mgr)
		assert.NoError(err)
		assert.NotNil(pool)
	})

	t.Run("WithWorkers", func(t *testing.T) {
		pool, err := queue.NewWorkerPool(mgr, queue.WithWorkers(4))
		assert.NoError(err)
		assert.NotNil(pool)
	})

	t.Run("WithWorkerName", func(t *testing.T) {
		pool, err := queue.NewWorkerPool(mgr, queue.WithWorkerName("test-worker"))
		assert.NoError(err)
		assert.NotNil(pool)
	})

	t.Run("InvalidWorkers", func(t *testing.T) {
		_, err := queue.NewWorkerPool(mgr, queue.WithWorkers(0))
		assert.ErrorIs(err, queue.ErrInvalidWorkers)
	})

	t.Run("InvalidPeriod", func(t *testing.T) {
		_, err := queue.NewWorkerPool(mgr, queue.WithPeriod(100*time.Microsecond))
		assert.ErrorIs(err, queue.ErrInvalidPeriod)
	})

	t.Run("WithQueues", func(t *testing.T) {
		pool, err := queue.NewWorkerPool(mgr, queue.WithQueues("Hooks", " audit "))
		assert.NoError(err)
		assert.NotNil(pool)
	})

	t.Run("InvalidQueue", func(t *testing.T) {
		_, err := queue.NewWorkerPool(mgr, queue.WithQueues("not a queue"))
		assert.Error(err)
	})

	t.Run("NilManager", func(t *testing.T) {
		_, err := queue.NewWorkerPool(nil)
		assert.Error(err)
	})
}

func Test_WorkerPool_RegisterExecutor(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := queue.New(ctx, conn, queue.WithNamespace("test_wp_executor"))
	assert.NoError(err)
	pool, err := queue.NewWorkerPool(mgr)
	assert.NoError(err)

	handler := func(ctx context.Context, job *queue.Job) error {
		return nil
	}
	assert.NoError(pool.RegisterExecutor("http", handler))
	assert.NoError(pool.RegisterExecutor("http", handler))
	assert.ErrorIs(pool.RegisterExecutor("", handler), queue.ErrMissingExecutor)
	assert.ErrorIs(pool.RegisterExecutor("nil", nil), queue.ErrMissingExecutor)
}

func Test_WorkerPool_Run(t *testing.T) {
	assert := assert.New(t)
	conn := conn.Begin(t)
	defer conn.Close()
	ctx := context.TODO()

	mgr, err := queue.New(ctx, conn, queue.WithNamespace("test_wp_run"))
	assert.NoError(err)

	t.Run("RunWithNoHandlers", func(t *testing.T) {
		pool, err := queue.NewWorkerPool(mgr)
		assert.NoError(err)

		runCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		assert.NoError(pool.Run(runCtx))
	})

	t.Run("RunCompletesTask", func(t *testing.T) {
		pool, err := queue.NewWorkerPool(mgr, queue.WithWorkers(1), queue.WithQueues("complete"))
		assert.NoError(err)
		_, err = mgr.RegisterQueue(ctx, schema.QueueMeta{Queue: "complete"})
		assert.NoError(err)

		var processed atomic.Int32
		assert.NoError(pool.RegisterExecutor("complete", func(ctx context.Context, job *queue.Job) error {
			processed.Add(1)
			assert.Equal(uint64(1), job.Attempt())
			assert.JSONEq(`{"test":true}`, string(job.Payload()))
			return job.Complete(ctx, map[string]any{"ok": true})
		}))

		task, err := mgr.CreateTask(ctx, "complete", schema.TaskMeta{Executor: "complete", Payload: map[string]any{"test": true}})
		assert.NoError(err)

		runCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		assert.NoError(pool.Run(runCtx))
		assert.Equal(int32(1), processed.Load())

		done, err := mgr.GetTask(ctx, task.Id)
		assert.NoError(err)
		assert.Equal(schema.StatusCompleted, done.Status)
		assert.JSONEq(`{"ok":true}`, string(done.Result))
	})

	t.Run("RunReturnsNil", func(t *testing.T) {
		pool, err := queue.NewWorkerPool(mgr, queue.WithQueues("implicit"))
		assert.NoError(err)
		_, err = mgr.RegisterQueue(ctx, schema.QueueMeta{Queue: "implicit"})
		assert.NoError(err)
		assert.NoError(pool.RegisterExecutor("implicit", func(ctx context.Context, job *queue.Job) error {
			return nil
		}))

		task, err := mgr.CreateTask(ctx, "implicit", schema.TaskMeta{Executor: "implicit", Payload: 1})
		assert.NoError(err)

		runCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		assert.NoError(pool.Run(runCtx))

		done, err := mgr.GetTask(ctx, task.Id)
		assert.NoError(err)
		assert.Equal(schema.StatusCompleted, done.Status)
		assert.Nil(done.Result)
	})

	t.Run("RunRetriesTask", func(t *testing.T) {
		pool, err := queue.NewWorkerPool(mgr, queue.WithQueues("retry"), queue.WithPeriod(10*time.Millisecond))
		assert.NoError(err)
		_, err = mgr.RegisterQueue(ctx, schema.QueueMeta{Queue: "retry", RetryDelay: ptr(10 * time.Millisecond)})
		assert.NoError(err)

		var attempts atomic.Int32
		var final atomic.Bool
		assert.NoError(pool.RegisterExecutor("retry", func(ctx context.Context, job *queue.Job) error {
			attempts.Add(1)
			final.Store(job.Final())
			return errors.New("always fails")
		}))

		task, err := mgr.CreateTask(ctx, "retry", schema.TaskMeta{Executor: "retry", Payload: 1, Retries: ptr(uint64(3))})
		assert.NoError(err)

		runCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		go pool.Run(runCtx)

		assert.Eventually(func() bool {
			failed, err := mgr.GetTask(ctx, task.Id)
			return err == nil && failed.Status == schema.StatusFailed
		}, 2*time.Second, 10*time.Millisecond)
		cancel()

		assert.Equal(int32(3), attempts.Load())
		assert.True(final.Load())
	})

	t.Run("RunMissingExecutor", func(t *testing.T) {
		pool, err := queue.NewWorkerPool(mgr, queue.WithQueues("missing"))
		assert.NoError(err)
		_, err = mgr.RegisterQueue(ctx, schema.QueueMeta{Queue: "missing"})
		assert.NoError(err)

		task, err := mgr.CreateTask(ctx, "missing", schema.TaskMeta{Executor: "missing", Payload: 1})
		assert.NoError(err)

		runCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		assert.NoError(pool.Run(runCtx))

		failed, err := mgr.GetTask(ctx, task.Id)
		assert.NoError(err)
		assert.Equal(schema.StatusRetry, failed.Status)
		assert.Contains(string(failed.Result), "no executor registered")
	})

	t.Run("RunRecoversPanic", func(t *testing.T) {
		pool, err := queue.NewWorkerPool(mgr, queue.WithQueues("panic"))
		assert.NoError(err)
		_, err = mgr.RegisterQueue(ctx, schema.QueueMeta{Queue: "panic"})
		assert.NoError(err)
		assert.NoError(pool.RegisterExecutor("panic", func(ctx context.Context, job *queue.Job) error {
			panic("handler panic")
		}))

		task, err := mgr.CreateTask(ctx, "panic", schema.TaskMeta{Executor: "panic", Payload: 1})
		assert.NoError(err)

		runCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		assert.NoError(pool.Run(runCtx))

		failed, err := mgr.GetTask(ctx, task.Id)
		assert.NoError(err)
		assert.Equal(uint64(3), failed.Retries)
		assert.Contains(string(failed.Result), "handler panic")
	})

	t.Run("RunParallelTasks", func(t *testing.T) {
		const numWorkers = 4
		const numTasks = 4
		const taskDuration = 100 * time.Millisecond

		pool, err := queue.NewWorkerPool(mgr, queue.WithWorkers(numWorkers), queue.WithQueues("parallel"))
		assert.NoError(err)
		_, err = mgr.RegisterQueue(ctx, schema.QueueMeta{Queue: "parallel"})
		assert.NoError(err)

		var processed atomic.Int32
		allDone := make(chan struct{})
		assert.NoError(pool.RegisterExecutor("parallel", func(ctx context.Context, job *queue.Job) error {
			time.Sleep(taskDuration)
			if processed.Add(1) == numTasks {
				close(allDone)
			}
			return nil
		}))

		for i := 0; i < numTasks; i++ {
			_, err = mgr.CreateTask(ctx, "parallel", schema.TaskMeta{Executor: "parallel", Payload: map[string]any{"i": i}})
			assert.NoError(err)
		}

		runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		start := time.Now()
		go pool.Run(runCtx)

		select {
		case <-allDone:
		case <-runCtx.Done():
			t.Fatal("Timeout waiting for tasks to complete")
		}
		elapsed := time.Since(start)
		cancel()

		// With 4 workers and 4 tasks of 100ms each, the tasks run in parallel
		assert.Equal(int32(numTasks), processed.Load())
		assert.Less(elapsed, 300*time.Millisecond, "tasks should run in parallel")
	})
}
