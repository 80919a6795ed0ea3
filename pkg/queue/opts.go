package queue

import (
	"errors"
	"os"
	"runtime"
	"strings"
	"time"

	// Packages
	schema "github.com/mutablelogic/go-requeue/pkg/queue/schema"
	types "github.com/mutablelogic/go-requeue/pkg/types"
	server "github.com/mutablelogic/go-server"
	logger "github.com/mutablelogic/go-server/pkg/logger"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for the manager and the worker pool.
type Opt func(*opts) error

type opts struct {
	ns      string
	log     server.Logger
	tracer  trace.Tracer
	name    string
	workers int
	period  time.Duration
	queues  []string
	cleanup time.Duration
	age     time.Duration
}

////////////////////////////////////////////////////////////////////////////////
// ERRORS

var (
	ErrInvalidNamespace  = errors.New("namespace must be a valid identifier")
	ErrReservedNamespace = errors.New("namespace is reserved")
	ErrInvalidWorkers    = errors.New("workers must be >= 1")
	ErrInvalidPeriod     = errors.New("period must be >= 1ms")
	ErrInvalidRetention  = errors.New("retention period and age must be positive")
)

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithNamespace scopes all queues and tasks. The schema name cannot be
// used as a namespace.
func WithNamespace(ns string) Opt {
	return func(o *opts) error {
		ns = strings.TrimSpace(ns)
		if ns == schema.SchemaName {
			return ErrReservedNamespace
		} else if !types.IsIdentifier(ns) {
			return ErrInvalidNamespace
		}
		o.ns = ns
		return nil
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(log server.Logger) Opt {
	return func(o *opts) error {
		if log != nil {
			o.log = log
		}
		return nil
	}
}

// WithTracer sets the tracer used for spans around task execution
// and cleanup
func WithTracer(tracer trace.Tracer) Opt {
	return func(o *opts) error {
		o.tracer = tracer
		return nil
	}
}

// WithWorkerName sets the worker name used to identify this worker instance.
// Defaults to the hostname if not specified.
func WithWorkerName(name string) Opt {
	return func(o *opts) error {
		if name = strings.TrimSpace(name); name != "" {
			o.name = name
		}
		return nil
	}
}

// WithWorkers sets the number of concurrent workers.
// Returns ErrInvalidWorkers if n < 1.
func WithWorkers(n int) Opt {
	return func(o *opts) error {
		if n < 1 {
			return ErrInvalidWorkers
		}
		o.workers = n
		return nil
	}
}

// WithPeriod sets the polling period when no notification arrives.
// Returns ErrInvalidPeriod if d < 1ms.
func WithPeriod(d time.Duration) Opt {
	return func(o *opts) error {
		if d < time.Millisecond {
			return ErrInvalidPeriod
		}
		o.period = d
		return nil
	}
}

// WithQueues restricts the worker pool to the named queues. By default
// tasks are retained from every queue in the namespace. Names are
// lowercased, and an invalid name is an error.
func WithQueues(queues ...string) Opt {
	return func(o *opts) error {
		if queues, err := normalizeQueues(queues); err != nil {
			return err
		} else {
			o.queues = append(o.queues, queues...)
		}
		return nil
	}
}

// WithRetention sets how often finished tasks are removed, and how long
// they are kept before removal.
func WithRetention(period, age time.Duration) Opt {
	return func(o *opts) error {
		if period <= 0 || age <= 0 {
			return ErrInvalidRetention
		}
		o.cleanup = period
		o.age = age
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func applyOpts(opt []Opt) (opts, error) {
	// Get hostname
	hostname, err := os.Hostname()
	if err != nil {
		return opts{}, err
	}

	// Set defaults
	o := opts{
		ns:      schema.DefaultNamespace,
		name:    hostname,
		workers: runtime.NumCPU(),
		period:  schema.TaskPeriod,
		cleanup: schema.CleanupPeriod,
		age:     schema.CleanupAge,
	}

	// Apply options
	for _, fn := range opt {
		if err := fn(&o); err != nil {
			return opts{}, err
		}
	}

	// Default logger
	if o.log == nil {
		o.log = logger.New(os.Stderr, logger.Text, false)
	}

	// Return success
	return o, nil
}
