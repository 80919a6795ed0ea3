/*
Package queue provides a PostgreSQL-backed task queue with support for delayed
tasks, ordered tasks, retries with exponential backoff and expiry.

# Manager

Create a manager with namespace isolation. The schema objects are created
if they do not exist:

	mgr, err := queue.New(ctx, pool, queue.WithNamespace("myapp"))
	if err != nil {
		panic(err)
	}

# Queues

Register queues that define retry behavior:

	ttl := 24 * time.Hour
	retries := uint64(3)
	retryDelay := time.Second

	queue, err := mgr.RegisterQueue(ctx, schema.QueueMeta{
		Queue:      "emails",
		TTL:        &ttl,
		Retries:    &retries,
		RetryDelay: &retryDelay,
	})

# Tasks

Create and process tasks. Ordered tasks on a queue are retained one at a
time, in the order they were created:

	// Create a task
	task, err := mgr.CreateTask(ctx, "emails", schema.TaskMeta{
		Executor: "smtp",
		Payload:  map[string]any{"to": "user@example.com"},
		Ordered:  true,
	})

	// Retain next task from a specific queue, or from any queue
	task, err := mgr.NextTask(ctx, "worker-1", "emails")
	task, err := mgr.NextTask(ctx, "worker-1")

	// Release task (success)
	mgr.ReleaseTask(ctx, task.Id, true, result)

	// Release task (failure - will retry with backoff)
	mgr.ReleaseTask(ctx, task.Id, false, err)

Concurrent inserts of ordered tasks may conflict. Use ShouldRetry to
determine if the insert can be attempted again.

# WorkerPool

Use WorkerPool for concurrent task processing, dispatching on the
executor name of each task:

	pool, err := queue.NewWorkerPool(mgr,
		queue.WithWorkers(4),
		queue.WithWorkerName("worker-1"),
	)

	pool.RegisterExecutor("smtp", func(ctx context.Context, job *queue.Job) error {
		// Process job.Payload(), returning an error to retry
		return nil
	})

	// Run blocks until context is cancelled
	err = pool.Run(ctx)

Call Manager.Run in the background to remove old tasks.

# Subpackages

  - schema: Data types, request/response structures, and SQL generation
  - sql: Statements which create and query the tables
*/
package queue
