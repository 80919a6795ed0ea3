package requeue

import (
	"context"
	"errors"
	"sync"

	// Packages
	json "github.com/goccy/go-json"
	uuid "github.com/google/uuid"
	correlation "github.com/mutablelogic/go-requeue/pkg/correlation"
	pg "github.com/mutablelogic/go-requeue/pkg/pg"
	queue "github.com/mutablelogic/go-requeue/pkg/queue"
	schema "github.com/mutablelogic/go-requeue/pkg/queue/schema"
	request "github.com/mutablelogic/go-requeue/pkg/request"
	server "github.com/mutablelogic/go-server"
	prometheus "github.com/prometheus/client_golang/prometheus"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Client enqueues requests on channels, and runs the workers which send
// them. Responses for requests spawned with SpawnReturning are delivered
// only to a caller in the same process.
type Client struct {
	sync.Mutex
	manager  *queue.Manager
	pool     *queue.WorkerPool
	table    *correlation.Table
	log      server.Logger
	metrics  *metrics
	channels map[string]struct{}
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a client, creating the schema objects if they do not exist
func New(ctx context.Context, conn pg.PoolConn, opts ...Opt) (*Client, error) {
	o, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}

	// Create the manager and the worker pool
	manager, err := queue.New(ctx, conn, o.queue...)
	if err != nil {
		return nil, err
	}
	pool, err := queue.NewWorkerPool(manager, o.queue...)
	if err != nil {
		return nil, err
	}

	self := &Client{
		manager:  manager,
		pool:     pool,
		log:      o.log,
		metrics:  newMetrics(manager.Namespace()),
		channels: make(map[string]struct{}),
	}
	self.table = correlation.New(correlation.WithPanicHandler(func(err error) {
		self.log.Print(context.Background(), "correlation: ", err)
	}))

	// Register the executors
	exec := &executor{
		client:  o.client,
		table:   self.table,
		metrics: self.metrics,
		maxBody: o.maxBody,
	}
	if err := pool.RegisterExecutor(ExecutorHTTP, handler(exec.HTTP)); err != nil {
		return nil, err
	}
	if err := pool.RegisterExecutor(ExecutorHTTPResponse, handler(exec.HTTPResponse)); err != nil {
		return nil, err
	}

	return self, nil
}

// Run sends requests until the context is cancelled, and periodically
// removes finished jobs. If either stops with an error, the other is
// stopped and the error returned.
func (c *Client) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var result error

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, fn := range []func(context.Context) error{c.pool.Run, c.manager.Run} {
		wg.Add(1)
		go func(fn func(context.Context) error) {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				mu.Lock()
				result = errors.Join(result, err)
				mu.Unlock()
				cancel()
			}
		}(fn)
	}

	wg.Wait()
	return result
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Namespace returns the namespace for channels and jobs
func (c *Client) Namespace() string {
	return c.manager.Namespace()
}

// Conn returns the database connection
func (c *Client) Conn() pg.PoolConn {
	return c.manager.Conn()
}

// Manager returns the job engine
func (c *Client) Manager() *queue.Manager {
	return c.manager
}

// Collector returns the executor metrics
func (c *Client) Collector() prometheus.Collector {
	return c.metrics
}

// Waiters returns the number of callers waiting for a response
func (c *Client) Waiters() int {
	return c.table.Len()
}

// Clear removes pending jobs from the named channels, or from every channel
// when none are named, and returns the jobs removed. A caller waiting on a
// removed job is not woken.
func (c *Client) Clear(ctx context.Context, channels ...string) ([]schema.Task, error) {
	return c.manager.ClearQueue(ctx, channels...)
}

// Job returns a job by identifier
func (c *Client) Job(ctx context.Context, id uuid.UUID) (*schema.TaskWithStatus, error) {
	return c.manager.GetTask(ctx, id)
}

// Jobs returns jobs, most recent first
func (c *Client) Jobs(ctx context.Context, req schema.TaskListRequest) (*schema.TaskList, error) {
	return c.manager.ListTasks(ctx, req)
}

// Channels returns the channels in the namespace
func (c *Client) Channels(ctx context.Context, req schema.QueueListRequest) (*schema.QueueList, error) {
	return c.manager.ListQueues(ctx, req)
}

// ChannelStatus returns the number of jobs in each status for a channel, or
// for every channel when name is empty
func (c *Client) ChannelStatus(ctx context.Context, name string) ([]schema.QueueStatus, error) {
	return c.manager.ListQueueStatuses(ctx, name)
}

// Response returns the accepted response stored with a completed job.
// Returns ErrNotAccepted if the job has not completed.
func (c *Client) Response(ctx context.Context, id uuid.UUID) (*request.Response, error) {
	task, err := c.manager.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case task.Executor != ExecutorHTTP && task.Executor != ExecutorHTTPResponse:
		return nil, ErrBadParameter.Withf("job %v is not a request", id)
	case task.Status != schema.StatusCompleted:
		return nil, ErrNotAccepted.Withf("job %v is %s", id, task.Status)
	case len(task.Result) == 0:
		return nil, ErrNotAccepted.Withf("job %v has no response", id)
	}

	var resp request.Response
	if err := json.Unmarshal(task.Result, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// handler adapts an executor to the worker pool
func handler(fn func(context.Context, Job) error) queue.JobHandler {
	return func(ctx context.Context, job *queue.Job) error {
		return fn(ctx, job)
	}
}
