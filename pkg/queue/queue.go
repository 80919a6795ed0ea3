package queue

import (
	"context"
	"time"

	// Packages
	pg "github.com/mutablelogic/go-requeue/pkg/pg"
	schema "github.com/mutablelogic/go-requeue/pkg/queue/schema"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - QUEUE

// RegisterQueue creates a new queue, or updates an existing queue with any
// values set in the meta, and returns it.
func (manager *Manager) RegisterQueue(ctx context.Context, meta schema.QueueMeta) (*schema.Queue, error) {
	var queue schema.Queue
	if err := manager.conn.Tx(ctx, func(conn pg.Conn) error {
		if err := conn.Insert(ctx, &queue, meta); err != nil {
			return err
		}
		if !meta.HasPatch() {
			return nil
		}
		return conn.Update(ctx, &queue, schema.QueueName(meta.Queue), meta)
	}); err != nil {
		return nil, err
	}
	return &queue, nil
}

// EnsureQueue creates the queue with default values if it does not exist,
// and returns it. An existing queue is not modified.
func (manager *Manager) EnsureQueue(ctx context.Context, name string) (*schema.Queue, error) {
	var queue schema.Queue
	if err := manager.conn.Insert(ctx, &queue, schema.QueueMeta{Queue: name}); err != nil {
		return nil, err
	}
	return &queue, nil
}

// ListQueues returns all queues in a namespace as a list
func (manager *Manager) ListQueues(ctx context.Context, req schema.QueueListRequest) (*schema.QueueList, error) {
	var list schema.QueueList
	if err := manager.conn.List(ctx, &list, req); err != nil {
		return nil, err
	}
	list.QueueListRequest = req
	return &list, nil
}

// GetQueue returns a queue by name
func (manager *Manager) GetQueue(ctx context.Context, name string) (*schema.Queue, error) {
	var queue schema.Queue
	if err := manager.conn.Get(ctx, &queue, schema.QueueName(name)); err != nil {
		return nil, err
	}
	return &queue, nil
}

// DeleteQueue deletes an existing queue and all of its tasks, and returns it
func (manager *Manager) DeleteQueue(ctx context.Context, name string) (*schema.Queue, error) {
	var queue schema.Queue
	if err := manager.conn.Delete(ctx, &queue, schema.QueueName(name)); err != nil {
		return nil, err
	}
	return &queue, nil
}

// UpdateQueue updates an existing queue, and returns it.
func (manager *Manager) UpdateQueue(ctx context.Context, name string, meta schema.QueueMeta) (*schema.Queue, error) {
	var queue schema.Queue
	if err := manager.conn.Update(ctx, &queue, schema.QueueName(name), meta); err != nil {
		return nil, err
	}
	return &queue, nil
}

// CleanQueue removes tasks from a queue which finished, failed or expired
// more than age ago, and returns the tasks removed
func (manager *Manager) CleanQueue(ctx context.Context, name string, age time.Duration) ([]schema.Task, error) {
	var resp schema.QueueCleanResponse
	if err := manager.conn.List(ctx, &resp, schema.QueueCleanRequest{Queue: name, Age: age}); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// ClearQueue removes every pending task from the named queues, or from all
// queues in the namespace when none are named. Completed and failed tasks
// are kept. Returns the tasks removed.
func (manager *Manager) ClearQueue(ctx context.Context, queues ...string) ([]schema.Task, error) {
	var resp schema.QueueCleanResponse
	if err := manager.conn.List(ctx, &resp, schema.TaskClearRequest{Queues: queues}); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// ListQueueStatuses returns the number of tasks in each status, for one
// queue or for all queues in the namespace when name is empty
func (manager *Manager) ListQueueStatuses(ctx context.Context, name string) ([]schema.QueueStatus, error) {
	var resp schema.QueueStatusResponse
	if err := manager.conn.List(ctx, &resp, schema.QueueStatusRequest{Queue: name}); err != nil {
		return nil, err
	}
	return resp.Body, nil
}
