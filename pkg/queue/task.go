package queue

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	// Packages
	uuid "github.com/google/uuid"
	pg "github.com/mutablelogic/go-requeue/pkg/pg"
	schema "github.com/mutablelogic/go-requeue/pkg/queue/schema"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - TASK

// CreateTask creates a new task on a queue, and returns it. Returns
// pg.ErrNotFound if the queue does not exist.
func (manager *Manager) CreateTask(ctx context.Context, queue string, meta schema.TaskMeta) (*schema.TaskWithStatus, error) {
	var taskId schema.TaskId
	var task schema.TaskWithStatus

	// Generate the identifier here, so it is known to the caller on conflict
	if meta.Id == uuid.Nil {
		meta.Id = uuid.New()
	}

	// Insert the task, and return it
	if err := manager.conn.Tx(ctx, func(conn pg.Conn) error {
		if err := conn.With("id", queue).Insert(ctx, &taskId, meta); errors.Is(err, pg.ErrNotFound) {
			return pg.ErrNotFound.Withf("channel %q", queue)
		} else if err != nil {
			return err
		}
		return conn.Get(ctx, &task, taskId)
	}); err != nil {
		return nil, err
	}

	// Return the task
	return &task, nil
}

// GetTask returns a task by identifier
func (manager *Manager) GetTask(ctx context.Context, id uuid.UUID) (*schema.TaskWithStatus, error) {
	var task schema.TaskWithStatus
	if err := manager.conn.Get(ctx, &task, schema.TaskId(id)); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks returns tasks in the namespace, most recent first, with
// optional filtering by queue and status
func (manager *Manager) ListTasks(ctx context.Context, req schema.TaskListRequest) (*schema.TaskList, error) {
	var list schema.TaskList
	if err := manager.conn.List(ctx, &list, req); err != nil {
		return nil, err
	}
	list.TaskListRequest = req
	return &list, nil
}

// NextTask retains a task from any of the specified queues, and returns it.
// If queues is empty, tasks from any queue are considered.
// Returns nil if there is no task to retain.
func (manager *Manager) NextTask(ctx context.Context, worker string, queues ...string) (*schema.TaskWithStatus, error) {
	var taskId schema.TaskId
	var task schema.TaskWithStatus

	// Retain the task, and return it
	if err := manager.conn.Tx(ctx, func(conn pg.Conn) error {
		if err := conn.Get(ctx, &taskId, schema.TaskRetain{
			Queues: queues,
			Worker: worker,
		}); err != nil {
			return err
		}
		return conn.Get(ctx, &task, taskId)
	}); errors.Is(err, pg.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	// Return task
	return &task, nil
}

// ReleaseTask releases a retained task, and returns it. On success the
// task is completed with the result. On failure the result is recorded,
// one retry is consumed and the task is delayed with exponential backoff.
// Returns pg.ErrNotFound if the task is not retained.
func (manager *Manager) ReleaseTask(ctx context.Context, id uuid.UUID, success bool, result any) (*schema.TaskWithStatus, error) {
	var taskId schema.TaskId
	var task schema.TaskWithStatus

	// Release the task, and return it
	if err := manager.conn.Tx(ctx, func(conn pg.Conn) error {
		if err := conn.Get(ctx, &taskId, schema.TaskRelease{Id: id, Fail: !success, Result: result}); err != nil {
			return err
		}
		return conn.Get(ctx, &task, taskId)
	}); err != nil {
		return nil, err
	}

	// Return task
	return &task, nil
}

// ShouldRetry returns true if the error is a transient conflict, which
// succeeds when the operation is attempted again: a serialization failure,
// a deadlock, or two ordered tasks being assigned the same sequence number.
func ShouldRetry(err error) bool {
	pgErr, ok := pg.PgError(err)
	if !ok {
		return false
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	case codeUniqueViolation:
		return pgErr.ConstraintName == schema.TaskSeqKey
	default:
		return false
	}
}

// RunTaskLoop retains tasks and sends them on the channel, until the context
// is cancelled or an error occurs. It uses both polling and LISTEN/NOTIFY to
// pick up tasks immediately when they're created. If queues is empty, tasks
// from any queue are considered.
func (manager *Manager) RunTaskLoop(ctx context.Context, ch chan<- *schema.TaskWithStatus, worker string, period time.Duration, queues ...string) error {
	// Notifications carry the normalized queue name
	if normalized, err := normalizeQueues(queues); err != nil {
		return err
	} else {
		queues = normalized
	}

	delta := period
	timer := time.NewTimer(schema.TaskBusyPeriod)
	defer timer.Stop()

	// Create listener for task notifications
	listener := manager.conn.Listener()
	if listener == nil {
		return pg.ErrBadParameter.With("listener is nil")
	}
	defer listener.Close(context.Background())

	// Subscribe to task insert notifications for this namespace
	if err := listener.Listen(ctx, manager.ns+schema.TopicTaskInsert); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		} else {
			return err
		}
	}

	// Create channels for notifications and errors
	notifyCh := make(chan *pg.Notification, 10)
	errCh := make(chan error, 1)

	// Start goroutine to listen for notifications
	var wg sync.WaitGroup
	wg.Add(1)
	defer wg.Wait()
	go func() {
		defer wg.Done()
		listenForTaskNotifications(ctx, listener, notifyCh, errCh)
	}()

	// Do an initial poll immediately to pick up any existing tasks
	if err := manager.pollForTasks(ctx, queues, worker, ch, period, &delta); err != nil {
		return err
	}
	timer.Reset(delta)

	// Loop until context is cancelled
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return err
		case notification := <-notifyCh:
			if len(queues) > 0 && !slices.Contains(queues, string(notification.Payload)) {
				continue
			}
			if err := manager.pollForTasks(ctx, queues, worker, ch, period, &delta); err != nil {
				return err
			}
			timer.Reset(delta)
		case <-timer.C:
			if err := manager.pollForTasks(ctx, queues, worker, ch, period, &delta); err != nil {
				return err
			}
			timer.Reset(delta)
		}
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// listenForTaskNotifications listens for PostgreSQL notifications about new tasks
// and forwards them to the notification channel. Errors (except context cancellation)
// are sent to the error channel.
func listenForTaskNotifications(ctx context.Context, listener pg.Listener, notifyCh chan<- *pg.Notification, errCh chan<- error) {
	for {
		notification, err := listener.WaitForNotification(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				errCh <- err
			}
			return
		}
		select {
		case notifyCh <- notification:
		case <-ctx.Done():
			return
		}
	}
}

// pollForTasks retains tasks until none remain. The next poll is soon after
// a busy round, and after the full period otherwise.
func (manager *Manager) pollForTasks(ctx context.Context, queues []string, worker string, ch chan<- *schema.TaskWithStatus, period time.Duration, delta *time.Duration) error {
	for {
		task, err := manager.NextTask(ctx, worker, queues...)
		if err != nil {
			// Context errors are not errors - just stop polling
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		// No more tasks available, slow down polling
		if task == nil {
			*delta = period
			return nil
		}

		// Send the task, or stop on cancel
		select {
		case ch <- task:
			*delta = schema.TaskBusyPeriod
		case <-ctx.Done():
			return nil
		}
	}
}

// normalizeQueues returns the queue names lowercased and trimmed
func normalizeQueues(queues []string) ([]string, error) {
	result := make([]string, 0, len(queues))
	for _, queue := range queues {
		name, err := schema.QueueName(queue).Normalize()
		if err != nil {
			return nil, err
		}
		result = append(result, name)
	}
	return result, nil
}
