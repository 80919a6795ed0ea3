package schema

import (
	"strings"
	"time"

	// Packages
	json "github.com/goccy/go-json"
	uuid "github.com/google/uuid"
	pg "github.com/mutablelogic/go-requeue/pkg/pg"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type TaskId uuid.UUID

// TaskMeta describes a task to be created. Retries and RetryDelay
// default to the values set on the queue.
type TaskMeta struct {
	Id         uuid.UUID      `json:"id,omitempty"`
	Executor   string         `json:"executor"`
	Payload    any            `json:"payload,omitempty"`
	Ordered    bool           `json:"ordered,omitempty"`
	DelayedAt  *time.Time     `json:"delayed_at,omitempty"`
	Retries    *uint64        `json:"retries,omitempty"`
	RetryDelay *time.Duration `json:"retry_delay,omitempty"`
}

// Task is one durable unit of work. Retries counts the attempts which
// remain, and Attempts the executions started so far.
type Task struct {
	Id         uuid.UUID       `json:"id"`
	Namespace  string          `json:"namespace,omitempty"`
	Queue      string          `json:"queue,omitempty"`
	Executor   string          `json:"executor,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Worker     *string         `json:"worker,omitempty"`
	Ordered    bool            `json:"ordered,omitempty"`
	Seq        *uint64         `json:"seq,omitempty"`
	CreatedAt  *time.Time      `json:"created_at,omitempty"`
	DelayedAt  *time.Time      `json:"delayed_at,omitempty"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	DiesAt     *time.Time      `json:"dies_at,omitempty"`
	Attempts   uint64          `json:"attempts"`
	Retries    uint64          `json:"retries"`
	RetryDelay time.Duration   `json:"retry_delay,omitempty"`
}

type TaskWithStatus struct {
	Task
	Timeout time.Duration `json:"timeout,omitempty"`
	Status  string        `json:"status,omitempty"`
}

// TaskRetain selects the next runnable task on any of the queues, or on
// any queue when Queues is empty
type TaskRetain struct {
	Queues []string `json:"queues,omitempty"`
	Worker string   `json:"worker,omitempty"`
}

// TaskRelease marks a retained task as completed, or as a failed attempt
type TaskRelease struct {
	Id     uuid.UUID `json:"id,omitempty"`
	Fail   bool      `json:"fail,omitempty"`
	Result any       `json:"result,omitempty"`
}

// TaskClearRequest removes pending tasks
type TaskClearRequest struct {
	Queues []string `json:"queues,omitempty"`
}

type TaskListRequest struct {
	pg.OffsetLimit
	Queue  string `json:"queue,omitempty"`
	Status string `json:"status,omitempty"`
}

type TaskList struct {
	TaskListRequest
	Count uint64           `json:"count"`
	Body  []TaskWithStatus `json:"body,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (t Task) String() string {
	return stringify(t)
}

func (t TaskMeta) String() string {
	return stringify(t)
}

func (t TaskWithStatus) String() string {
	return stringify(t)
}

func (t TaskList) String() string {
	return stringify(t)
}

////////////////////////////////////////////////////////////////////////////////
// READER

func (t *TaskId) Scan(row pg.Row) error {
	var id uuid.UUID
	if err := row.Scan(&id); err != nil {
		return err
	}
	*t = TaskId(id)
	return nil
}

func (t *Task) Scan(row pg.Row) error {
	return row.Scan(
		&t.Id, &t.Namespace, &t.Queue, &t.Executor, &t.Payload, &t.Result, &t.Worker, &t.Ordered, &t.Seq,
		&t.CreatedAt, &t.DelayedAt, &t.StartedAt, &t.FinishedAt, &t.DiesAt,
		&t.Attempts, &t.Retries, &t.RetryDelay,
	)
}

func (t *TaskWithStatus) Scan(row pg.Row) error {
	return row.Scan(
		&t.Id, &t.Namespace, &t.Queue, &t.Executor, &t.Payload, &t.Result, &t.Worker, &t.Ordered, &t.Seq,
		&t.CreatedAt, &t.DelayedAt, &t.StartedAt, &t.FinishedAt, &t.DiesAt,
		&t.Attempts, &t.Retries, &t.RetryDelay, &t.Timeout, &t.Status,
	)
}

func (l *TaskList) Scan(row pg.Row) error {
	var task TaskWithStatus
	if err := task.Scan(row); err != nil {
		return err
	}
	l.Body = append(l.Body, task)
	return nil
}

func (l *TaskList) ScanCount(row pg.Row) error {
	return row.Scan(&l.Count)
}

////////////////////////////////////////////////////////////////////////////////
// WRITER

// Insert requires the queue name bound as "id"
func (t TaskMeta) Insert(bind *pg.Bind) (string, error) {
	if !bind.Has("id") {
		return "", httpresponse.ErrBadRequest.With("missing channel name")
	} else if queue, err := QueueName(bind.Join("id", "")).Normalize(); err != nil {
		return "", err
	} else {
		bind.Set("queue", queue)
	}

	// Identifier
	if t.Id == uuid.Nil {
		t.Id = uuid.New()
	}
	bind.Set("id", t.Id)

	// Executor
	if executor := strings.TrimSpace(t.Executor); executor == "" {
		return "", httpresponse.ErrBadRequest.With("missing executor")
	} else {
		bind.Set("executor", executor)
	}

	// Payload
	if t.Payload == nil {
		return "", httpresponse.ErrBadRequest.With("missing payload")
	} else if data, err := marshal(t.Payload); err != nil {
		return "", err
	} else {
		bind.Set("payload", string(data))
	}

	// Schedule
	if t.DelayedAt != nil {
		if t.DelayedAt.Before(time.Now()) {
			return "", httpresponse.ErrBadRequest.With("delayed_at is in the past")
		}
		bind.Set("delayed_at", t.DelayedAt.UTC())
	} else {
		bind.Set("delayed_at", nil)
	}

	// Retries
	bind.Set("ordered", t.Ordered)
	if t.Retries != nil {
		if *t.Retries == 0 {
			return "", httpresponse.ErrBadRequest.With("retries must be at least 1")
		}
		bind.Set("retries", *t.Retries)
	} else {
		bind.Set("retries", nil)
	}
	if t.RetryDelay != nil {
		if *t.RetryDelay < 0 {
			return "", httpresponse.ErrBadRequest.With("negative retry_delay")
		}
		bind.Set("retry_delay", *t.RetryDelay)
	} else {
		bind.Set("retry_delay", nil)
	}

	return bind.Replace("${requeue.task_insert}"), nil
}

// Update is not supported; tasks are immutable once created
func (t TaskMeta) Update(bind *pg.Bind) error {
	return httpresponse.ErrBadRequest.With("tasks cannot be updated")
}

////////////////////////////////////////////////////////////////////////////////
// SELECTOR

func (t TaskId) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if uuid.UUID(t) == uuid.Nil {
		return "", httpresponse.ErrBadRequest.With("missing job id")
	}
	bind.Set("tid", uuid.UUID(t))

	switch op {
	case pg.Get:
		return bind.Replace("${requeue.task_get}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("unsupported TaskId operation %q", op)
	}
}

func (l TaskListRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	var where []string
	if l.Queue != "" {
		if queue, err := QueueName(l.Queue).Normalize(); err != nil {
			return "", err
		} else {
			where = append(where, `"queue" = `+bind.Set("queue", queue))
		}
	}
	if l.Status != "" {
		where = append(where, `"status" = `+bind.Set("status", strings.ToLower(l.Status)))
	}
	if len(where) == 0 {
		bind.Set("where", "")
	} else {
		bind.Set("where", "AND "+strings.Join(where, " AND "))
	}
	l.OffsetLimit.Bind(bind, TaskListLimit)

	switch op {
	case pg.List:
		return bind.Replace("${requeue.task_list}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("unsupported TaskListRequest operation %q", op)
	}
}

func (t TaskRetain) Select(bind *pg.Bind, op pg.Op) (string, error) {
	queues, err := normalizeQueues(t.Queues)
	if err != nil {
		return "", err
	}
	bind.Set("queues", queues)

	if worker := strings.TrimSpace(t.Worker); worker == "" {
		return "", httpresponse.ErrBadRequest.With("missing worker")
	} else {
		bind.Set("worker", worker)
	}

	switch op {
	case pg.Get:
		return bind.Replace("${requeue.task_retain}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("unsupported TaskRetain operation %q", op)
	}
}

func (t TaskRelease) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if t.Id == uuid.Nil {
		return "", httpresponse.ErrBadRequest.With("missing job id")
	}
	bind.Set("tid", t.Id)

	// A nil result is stored as SQL NULL
	if t.Result == nil {
		bind.Set("result", nil)
	} else if data, err := marshal(t.Result); err != nil {
		return "", err
	} else {
		bind.Set("result", string(data))
	}

	switch op {
	case pg.Get:
		if t.Fail {
			return bind.Replace("${requeue.task_fail}"), nil
		}
		return bind.Replace("${requeue.task_release}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("unsupported TaskRelease operation %q", op)
	}
}

func (t TaskClearRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	queues, err := normalizeQueues(t.Queues)
	if err != nil {
		return "", err
	}
	bind.Set("queues", queues)

	switch op {
	case pg.List:
		return bind.Replace("${requeue.task_clear}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("unsupported TaskClearRequest operation %q", op)
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// normalizeQueues never returns nil, since a NULL array would match no rows
func normalizeQueues(queues []string) ([]string, error) {
	result := make([]string, 0, len(queues))
	for _, queue := range queues {
		name, err := QueueName(queue).Normalize()
		if err != nil {
			return nil, err
		}
		result = append(result, name)
	}
	return result, nil
}

// marshal encodes errors as {"error": "..."} so a failed attempt leaves a
// readable result
func marshal(v any) ([]byte, error) {
	switch v := v.(type) {
	case json.RawMessage:
		return v, nil
	case error:
		return json.Marshal(map[string]string{"error": v.Error()})
	default:
		return json.Marshal(v)
	}
}
