package schema

import (
	"strings"
	"time"

	// Packages
	pg "github.com/mutablelogic/go-requeue/pkg/pg"
	types "github.com/mutablelogic/go-requeue/pkg/types"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// QueueName identifies a queue (a channel) within a namespace
type QueueName string

// QueueMeta holds the defaults applied to tasks created on the queue
type QueueMeta struct {
	Queue      string         `json:"queue,omitempty" arg:"" help:"Channel name"`
	TTL        *time.Duration `json:"ttl,omitempty" help:"Time after which a pending task expires"`
	Retries    *uint64        `json:"retries,omitempty" help:"Default number of attempts"`
	RetryDelay *time.Duration `json:"retry_delay,omitempty" help:"Default backoff, doubled after each failed attempt"`
	Timeout    *time.Duration `json:"timeout,omitempty" help:"Time after which a retained task may be retained again"`
}

type Queue struct {
	QueueMeta
	Namespace string `json:"namespace,omitempty"`
}

type QueueListRequest struct {
	pg.OffsetLimit
}

type QueueList struct {
	QueueListRequest
	Count uint64  `json:"count"`
	Body  []Queue `json:"body,omitempty"`
}

// QueueCleanRequest removes finished, failed and expired tasks older
// than Age
type QueueCleanRequest struct {
	Queue string        `json:"queue,omitempty"`
	Age   time.Duration `json:"age,omitempty"`
}

// QueueCleanResponse holds the removed tasks
type QueueCleanResponse struct {
	Body []Task `json:"body,omitempty"`
}

type QueueStatus struct {
	Queue  string `json:"queue"`
	Status string `json:"status"`
	Count  uint64 `json:"count"`
}

type QueueStatusRequest struct {
	Queue string `json:"queue,omitempty"`
}

type QueueStatusResponse struct {
	Body []QueueStatus `json:"body,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (q Queue) String() string {
	return stringify(q)
}

func (q QueueMeta) String() string {
	return stringify(q)
}

func (q QueueList) String() string {
	return stringify(q)
}

func (q QueueStatus) String() string {
	return stringify(q)
}

////////////////////////////////////////////////////////////////////////////////
// READER

func (q *Queue) Scan(row pg.Row) error {
	return row.Scan(&q.Queue, &q.TTL, &q.Retries, &q.RetryDelay, &q.Timeout, &q.Namespace)
}

func (l *QueueList) Scan(row pg.Row) error {
	var queue Queue
	if err := queue.Scan(row); err != nil {
		return err
	}
	l.Body = append(l.Body, queue)
	return nil
}

func (l *QueueList) ScanCount(row pg.Row) error {
	return row.Scan(&l.Count)
}

func (l *QueueCleanResponse) Scan(row pg.Row) error {
	var task Task
	if err := task.Scan(row); err != nil {
		return err
	}
	l.Body = append(l.Body, task)
	return nil
}

func (l *QueueStatusResponse) Scan(row pg.Row) error {
	var status QueueStatus
	if err := row.Scan(&status.Queue, &status.Status, &status.Count); err != nil {
		return err
	}
	l.Body = append(l.Body, status)
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// SELECTOR

func (q QueueName) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if name, err := q.Normalize(); err != nil {
		return "", err
	} else {
		bind.Set("id", name)
	}

	switch op {
	case pg.Get:
		return bind.Replace("${requeue.queue_get}"), nil
	case pg.Update:
		return bind.Replace("${requeue.queue_patch}"), nil
	case pg.Delete:
		return bind.Replace("${requeue.queue_delete}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("unsupported QueueName operation %q", op)
	}
}

func (q QueueCleanRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if name, err := QueueName(q.Queue).Normalize(); err != nil {
		return "", err
	} else {
		bind.Set("id", name)
	}
	if q.Age < 0 {
		return "", httpresponse.ErrBadRequest.With("negative age")
	}
	bind.Set("age", q.Age)

	switch op {
	case pg.List:
		return bind.Replace("${requeue.task_clean}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("unsupported QueueCleanRequest operation %q", op)
	}
}

func (l QueueListRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	l.OffsetLimit.Bind(bind, QueueListLimit)

	switch op {
	case pg.List:
		return bind.Replace("${requeue.queue_list}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("unsupported QueueListRequest operation %q", op)
	}
}

func (l QueueStatusRequest) Select(bind *pg.Bind, op pg.Op) (string, error) {
	if l.Queue == "" {
		bind.Set("where", "")
	} else if name, err := QueueName(l.Queue).Normalize(); err != nil {
		return "", err
	} else {
		bind.Set("where", `AND Q."queue" = `+bind.Set("id", name))
	}

	switch op {
	case pg.List:
		return bind.Replace("${requeue.queue_status}"), nil
	default:
		return "", httpresponse.ErrInternalError.Withf("unsupported QueueStatusRequest operation %q", op)
	}
}

////////////////////////////////////////////////////////////////////////////////
// WRITER

// Insert creates the queue with default values, or returns the existing
// queue. A subsequent update sets any values in the meta.
func (q QueueMeta) Insert(bind *pg.Bind) (string, error) {
	if queue, err := QueueName(q.Queue).Normalize(); err != nil {
		return "", err
	} else {
		bind.Set("queue", queue)
	}
	return bind.Replace("${requeue.queue_insert}"), nil
}

func (q QueueMeta) Update(bind *pg.Bind) error {
	var patch []string

	if q.Queue != "" {
		if queue, err := QueueName(q.Queue).Normalize(); err != nil {
			return err
		} else {
			patch = append(patch, `"queue" = `+bind.Set("queue", queue))
		}
	}
	if q.TTL != nil {
		if *q.TTL <= 0 {
			patch = append(patch, `"ttl" = NULL`)
		} else {
			patch = append(patch, `"ttl" = `+bind.Set("ttl", *q.TTL))
		}
	}
	if q.Retries != nil {
		if *q.Retries == 0 {
			return httpresponse.ErrBadRequest.With("retries must be at least 1")
		}
		patch = append(patch, `"retries" = `+bind.Set("retries", *q.Retries))
	}
	if q.RetryDelay != nil {
		if *q.RetryDelay < 0 {
			return httpresponse.ErrBadRequest.With("negative retry_delay")
		}
		patch = append(patch, `"retry_delay" = `+bind.Set("retry_delay", *q.RetryDelay))
	}
	if q.Timeout != nil {
		if *q.Timeout <= 0 {
			return httpresponse.ErrBadRequest.With("timeout must be positive")
		}
		patch = append(patch, `"timeout" = `+bind.Set("timeout", *q.Timeout))
	}

	if len(patch) == 0 {
		return httpresponse.ErrBadRequest.With("no patch values")
	}
	bind.Set("patch", strings.Join(patch, ", "))
	return nil
}

// HasPatch returns true if any value other than the name is set
func (q QueueMeta) HasPatch() bool {
	return q.TTL != nil || q.Retries != nil || q.RetryDelay != nil || q.Timeout != nil
}

// Normalize returns the lowercased queue name, or an error if it is not
// a valid identifier
func (q QueueName) Normalize() (string, error) {
	if queue := strings.ToLower(strings.TrimSpace(string(q))); queue == "" {
		return "", httpresponse.ErrBadRequest.With("missing channel name")
	} else if !types.IsIdentifier(queue) {
		return "", httpresponse.ErrBadRequest.Withf("invalid channel name: %q", queue)
	} else {
		return queue, nil
	}
}
