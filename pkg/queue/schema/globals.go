package schema

import (
	"time"

	// Packages
	json "github.com/goccy/go-json"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	SchemaName       = "requeue"
	DefaultNamespace = "default"
	QueueListLimit   = 100
	TaskListLimit    = 100
	TaskPeriod       = 5 * time.Second
	TaskBusyPeriod   = 100 * time.Millisecond
	CleanupPeriod    = time.Hour
	CleanupAge       = 24 * time.Hour
	TopicTaskInsert  = "_task_insert" // pg_notify topic suffix for task inserts
	TaskSeqKey       = "task_seq_key" // unique index on the ordering sequence
)

// Task status values, derived by the task_status view
const (
	StatusNew       = "new"
	StatusDelayed   = "delayed"
	StatusRetained  = "retained"
	StatusRetry     = "retry"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusExpired   = "expired"
)

var Statuses = []string{
	StatusNew, StatusDelayed, StatusRetained, StatusRetry, StatusCompleted, StatusFailed, StatusExpired,
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func stringify[T any](v T) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(data)
}
