package queue

import (
	"context"
	"errors"
	"sync"

	// Packages
	json "github.com/goccy/go-json"
	uuid "github.com/google/uuid"
	schema "github.com/mutablelogic/go-requeue/pkg/queue/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// JobHandler executes a retained task. Returning nil completes the task
// unless the handler already completed it. Returning an error fails the
// attempt, and the task is retried until no retries remain.
type JobHandler func(context.Context, *Job) error

// Job is a retained task handed to a JobHandler
type Job struct {
	sync.Mutex
	manager  *Manager
	task     *schema.TaskWithStatus
	released bool
}

var (
	ErrReleased = errors.New("job has already been released")
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newJob(manager *Manager, task *schema.TaskWithStatus) *Job {
	return &Job{manager: manager, task: task}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Id returns the task identifier
func (job *Job) Id() uuid.UUID {
	return job.task.Id
}

// Queue returns the name of the queue the task was created on
func (job *Job) Queue() string {
	return job.task.Queue
}

// Executor returns the name of the executor for the task
func (job *Job) Executor() string {
	return job.task.Executor
}

// Payload returns the task payload
func (job *Job) Payload() json.RawMessage {
	return job.task.Payload
}

// Attempt returns the attempt number, starting at one
func (job *Job) Attempt() uint64 {
	return job.task.Attempts
}

// Final returns true if no retries remain after this attempt
func (job *Job) Final() bool {
	return job.task.Retries <= 1
}

// Complete marks the task as completed with a result. The result is
// stored as JSON.
func (job *Job) Complete(ctx context.Context, result any) error {
	return job.release(ctx, true, result)
}

// Released returns true if the task has been completed or failed
func (job *Job) Released() bool {
	job.Lock()
	defer job.Unlock()
	return job.released
}

func (job *Job) String() string {
	return job.task.String()
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (job *Job) release(ctx context.Context, success bool, result any) error {
	job.Lock()
	defer job.Unlock()

	if job.released {
		return ErrReleased
	}
	if _, err := job.manager.ReleaseTask(ctx, job.task.Id, success, result); err != nil {
		return err
	}
	job.released = true
	return nil
}
