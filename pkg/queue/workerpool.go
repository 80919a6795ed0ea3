package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	// Packages
	otel "github.com/mutablelogic/go-client/pkg/otel"
	schema "github.com/mutablelogic/go-requeue/pkg/queue/schema"
	attribute "go.opentelemetry.io/otel/attribute"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// WorkerPool retains tasks from the manager's namespace and runs them on a
// fixed number of workers, dispatching on the task executor name.
type WorkerPool struct {
	sync.RWMutex
	manager   *Manager
	opts      opts
	executors map[string]JobHandler
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// Time allowed to release a task after the pool is cancelled
	releaseTimeout = 10 * time.Second
)

var (
	ErrMissingExecutor = errors.New("no executor registered")
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewWorkerPool creates a new worker pool for the given manager.
func NewWorkerPool(manager *Manager, opt ...Opt) (*WorkerPool, error) {
	if manager == nil {
		return nil, errors.New("manager is nil")
	}

	// Log and trace with the manager's values unless set
	o, err := applyOpts(append([]Opt{WithLogger(manager.log), WithTracer(manager.tracer)}, opt...))
	if err != nil {
		return nil, err
	}

	return &WorkerPool{
		manager:   manager,
		opts:      o,
		executors: make(map[string]JobHandler),
	}, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterExecutor sets the handler for tasks with the executor name. It
// replaces any existing handler with the same name.
func (wp *WorkerPool) RegisterExecutor(name string, handler JobHandler) error {
	if name = strings.TrimSpace(name); name == "" {
		return fmt.Errorf("%w: missing name", ErrMissingExecutor)
	} else if handler == nil {
		return fmt.Errorf("%w: %q", ErrMissingExecutor, name)
	}

	wp.Lock()
	defer wp.Unlock()
	wp.executors[name] = handler
	return nil
}

// Run starts all workers and blocks until context is cancelled or an error
// occurs. Running handlers are waited for before returning.
func (wp *WorkerPool) Run(ctx context.Context) error {
	var loopWg, workerWg sync.WaitGroup
	errCh := make(chan error, 1)

	// Create work channel and spawn workers
	workCh := make(chan func(), wp.opts.workers)
	for i := 0; i < wp.opts.workers; i++ {
		workerWg.Add(1)
		go func() {
			defer workerWg.Done()
			for fn := range workCh {
				fn()
			}
		}()
	}

	// Start single task loop for all queues
	loopWg.Add(1)
	go func() {
		defer loopWg.Done()
		if err := wp.runTaskLoop(ctx, workCh); err != nil {
			select {
			case errCh <- err:
			default:
			}
		}
	}()

	// Wait for loops to finish, close channel, wait for workers
	done := make(chan struct{})
	go func() {
		loopWg.Wait()
		close(workCh)
		workerWg.Wait()
		close(done)
	}()

	// Report any error after the workers have stopped
	<-done
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (wp *WorkerPool) runTaskLoop(ctx context.Context, workCh chan<- func()) error {
	// Use buffered channel to allow RunTaskLoop to fetch multiple tasks without blocking
	ch := make(chan *schema.TaskWithStatus, wp.opts.workers)
	var loopErr error
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(ch)
		loopErr = wp.manager.RunTaskLoop(ctx, ch, wp.opts.name, wp.opts.period, wp.opts.queues...)
	}()

	for task := range ch {
		// Dispatch to a worker
		t := task
		workCh <- func() {
			wp.runTask(ctx, t)
		}
	}

	wg.Wait()
	return loopErr
}

// runTask runs the handler for a task, and releases it if the handler
// did not complete it
func (wp *WorkerPool) runTask(ctx context.Context, task *schema.TaskWithStatus) {
	var result error
	job := newJob(wp.manager, task)
	log := wp.opts.log.With("job", task.Id.String(), "channel", task.Queue, "executor", task.Executor, "attempt", task.Attempts)

	// Create the span
	ctx, endspan := otel.StartSpan(wp.opts.tracer, ctx, spanManagerName("task."+task.Executor),
		attribute.String("job", task.Id.String()),
		attribute.String("channel", task.Queue),
		attribute.Int64("attempt", int64(task.Attempts)),
	)
	defer func() { endspan(result) }()

	// Find the handler for this task's executor
	wp.RLock()
	handler, exists := wp.executors[task.Executor]
	wp.RUnlock()

	// Run the handler
	if !exists {
		result = fmt.Errorf("%w: %q", ErrMissingExecutor, task.Executor)
	} else {
		result = runWork(ctx, deadline(task), func(ctx context.Context) error {
			return handler(ctx, job)
		})
	}

	// Release the task with a context which outlives cancellation of the pool
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	switch {
	case job.Released():
		if result != nil {
			log.Print(ctx, "completed with error: ", result)
		} else {
			log.Debug(ctx, "completed")
		}
	case result == nil:
		if err := job.release(releaseCtx, true, nil); err != nil {
			result = err
			log.Print(ctx, "release error: ", err)
		} else {
			log.Debug(ctx, "completed")
		}
	default:
		if err := job.release(releaseCtx, false, result); err != nil {
			log.Print(ctx, "release error: ", err)
		}
		if job.Final() {
			log.Print(ctx, "failed: ", result)
		} else {
			log.Debug(ctx, "retry: ", result)
		}
	}
}

// deadline returns the time remaining before the task expires, or before
// its retention times out, whichever is earlier. Returns zero if neither
// applies.
func deadline(task *schema.TaskWithStatus) time.Duration {
	var d time.Duration
	if task.Timeout > 0 {
		d = task.Timeout
	}
	if task.DiesAt != nil {
		if until := time.Until(*task.DiesAt); d == 0 || until < d {
			d = max(until, time.Nanosecond)
		}
	}
	return d
}

// runWork executes work with deadline and panic recovery.
func runWork(parent context.Context, deadline time.Duration, fn func(context.Context) error) (errs error) {
	ctx, cancel := contextWithDeadline(parent, deadline)
	defer cancel()

	// Catch panics
	defer func() {
		if r := recover(); r != nil {
			errs = errors.Join(errs, fmt.Errorf("panic: %v", r))
		}
	}()

	// Run the work function
	if err := fn(ctx); err != nil {
		errs = errors.Join(errs, err)
	}

	// Include context error if not already present
	if errs != nil && ctx.Err() != nil && !errors.Is(errs, ctx.Err()) {
		errs = errors.Join(errs, ctx.Err())
	}

	return errs
}

func contextWithDeadline(ctx context.Context, deadline time.Duration) (context.Context, context.CancelFunc) {
	if deadline > 0 {
		return context.WithTimeout(ctx, deadline)
	}
	return ctx, func() {}
}
