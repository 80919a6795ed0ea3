package requeue

import (
	"net/http"
	"os"
	"time"

	// Packages
	queue "github.com/mutablelogic/go-requeue/pkg/queue"
	server "github.com/mutablelogic/go-server"
	logger "github.com/mutablelogic/go-server/pkg/logger"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type opt struct {
	queue   []queue.Opt
	client  *http.Client
	log     server.Logger
	tracer  trace.Tracer
	maxBody int64
}

// Opt is a functional option for the client
type Opt func(*opt) error

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// Default maximum size of a response body kept for a caller
	DefaultMaxResponseBody = 10 * 1024 * 1024

	// Default timeout for a single request
	DefaultTimeout = 30 * time.Second
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func applyOpts(opts ...Opt) (*opt, error) {
	o := &opt{
		client:  &http.Client{Timeout: DefaultTimeout},
		maxBody: DefaultMaxResponseBody,
	}
	for _, fn := range opts {
		if err := fn(o); err != nil {
			return nil, err
		}
	}

	// Share the logger and tracer with the queue
	if o.log == nil {
		o.log = logger.New(os.Stderr, logger.Text, false)
	}
	o.queue = append(o.queue, queue.WithLogger(o.log))
	if o.tracer != nil {
		o.queue = append(o.queue, queue.WithTracer(o.tracer))
	}

	return o, nil
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithNamespace sets the namespace for channels and jobs, so several clients
// can share a database
func WithNamespace(ns string) Opt {
	return func(o *opt) error {
		o.queue = append(o.queue, queue.WithNamespace(ns))
		return nil
	}
}

// WithChannels restricts the workers to jobs on the named channels. By
// default jobs on every channel are executed.
func WithChannels(channels ...string) Opt {
	return func(o *opt) error {
		o.queue = append(o.queue, queue.WithQueues(channels...))
		return nil
	}
}

// WithWorkers sets the number of requests sent concurrently
func WithWorkers(n int) Opt {
	return func(o *opt) error {
		o.queue = append(o.queue, queue.WithWorkers(n))
		return nil
	}
}

// WithWorkerName sets the name recorded against retained jobs
func WithWorkerName(name string) Opt {
	return func(o *opt) error {
		o.queue = append(o.queue, queue.WithWorkerName(name))
		return nil
	}
}

// WithPeriod sets the polling period for new jobs
func WithPeriod(d time.Duration) Opt {
	return func(o *opt) error {
		o.queue = append(o.queue, queue.WithPeriod(d))
		return nil
	}
}

// WithRetention sets how often completed jobs are removed, and their age
// on removal
func WithRetention(period, age time.Duration) Opt {
	return func(o *opt) error {
		o.queue = append(o.queue, queue.WithRetention(period, age))
		return nil
	}
}

// WithHTTPClient sets the client used to send requests
func WithHTTPClient(client *http.Client) Opt {
	return func(o *opt) error {
		if client == nil {
			return ErrBadParameter.With("http client is nil")
		}
		o.client = client
		return nil
	}
}

// WithLogger sets the logger
func WithLogger(log server.Logger) Opt {
	return func(o *opt) error {
		o.log = log
		return nil
	}
}

// WithTracer sets the tracer for spans around each request
func WithTracer(tracer trace.Tracer) Opt {
	return func(o *opt) error {
		o.tracer = tracer
		return nil
	}
}

// WithMaxResponseBody sets the maximum number of response body bytes kept
// for the caller. Zero keeps the whole body.
func WithMaxResponseBody(n int64) Opt {
	return func(o *opt) error {
		if n < 0 {
			return ErrBadParameter.Withf("max response body: %d", n)
		}
		o.maxBody = n
		return nil
	}
}
