package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	// Packages
	otel "github.com/mutablelogic/go-client/pkg/otel"
	pg "github.com/mutablelogic/go-requeue/pkg/pg"
	schema "github.com/mutablelogic/go-requeue/pkg/queue/schema"
	sql "github.com/mutablelogic/go-requeue/pkg/queue/sql"
	server "github.com/mutablelogic/go-server"
	attribute "go.opentelemetry.io/otel/attribute"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type Manager struct {
	ns      string
	conn    pg.PoolConn
	log     server.Logger
	tracer  trace.Tracer
	cleanup time.Duration
	age     time.Duration
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new queue manager, creating the schema objects if they do
// not exist. All queue operations are scoped to the namespace.
func New(ctx context.Context, conn pg.PoolConn, opt ...Opt) (*Manager, error) {
	self := new(Manager)

	// Apply options
	o, err := applyOpts(opt)
	if err != nil {
		return nil, err
	}
	self.ns = o.ns
	self.log = o.log
	self.tracer = o.tracer
	self.cleanup = o.cleanup
	self.age = o.age

	// Parse query SQL
	queries, err := pg.NewQueries(strings.NewReader(sql.Queries))
	if err != nil {
		return nil, err
	}

	// Parse object SQL
	objects, err := pg.NewQueries(strings.NewReader(sql.Objects))
	if err != nil {
		return nil, err
	}

	// Check and set connection
	if conn == nil {
		return nil, pg.ErrBadParameter.With("connection is nil")
	} else {
		self.conn = conn.WithQueries(queries).With("ns", self.ns, "schema", schema.SchemaName).(pg.PoolConn)
	}

	// Execute object SQL in a single transaction, so concurrent managers
	// do not observe a partial schema
	if err := self.conn.Tx(ctx, func(conn pg.Conn) error {
		for _, key := range objects.Keys() {
			if err := conn.Exec(ctx, objects.Get(key)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// Return success
	return self, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (manager *Manager) Namespace() string {
	return manager.ns
}

func (manager *Manager) Conn() pg.PoolConn {
	return manager.conn
}

// Run removes old tasks from every queue in the namespace, once on start
// and then periodically, until the context is cancelled.
func (manager *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(manager.cleanup)
	defer ticker.Stop()

	for {
		manager.runCleanup(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (manager *Manager) runCleanup(ctx context.Context) {
	var result error

	// Start the span
	ctx, endspan := otel.StartSpan(manager.tracer, ctx, spanManagerName("cleanup"),
		attribute.String("ns", manager.ns),
		attribute.String("age", manager.age.String()),
	)
	defer func() { endspan(result) }()

	// Clean each queue, continuing when one fails
	var n int
	result = manager.cleanNamespace(ctx, func(queue string, tasks []schema.Task) {
		n += len(tasks)
		if len(tasks) > 0 {
			manager.log.With("queue", queue, "count", len(tasks)).Debug(ctx, "removed tasks")
		}
	})
	if result != nil && !errors.Is(result, context.Canceled) {
		manager.log.With("ns", manager.ns).Print(ctx, "cleanup error: ", result)
	} else if n > 0 {
		manager.log.With("ns", manager.ns, "count", n).Print(ctx, "cleanup")
	}
}

// cleanNamespace cleans all queues in the namespace
func (manager *Manager) cleanNamespace(ctx context.Context, fn func(string, []schema.Task)) error {
	var result error

	// List all queues in this namespace, one page at a time
	var req schema.QueueListRequest
	for {
		queues, err := manager.ListQueues(ctx, req)
		if err != nil {
			return errors.Join(result, err)
		}

		// Clean each queue in this page
		for _, queue := range queues.Body {
			tasks, err := manager.CleanQueue(ctx, queue.Queue, manager.age)
			if err != nil {
				result = errors.Join(result, err)
				continue
			}
			fn(queue.Queue, tasks)
		}

		// Next page
		req.Offset += uint64(len(queues.Body))
		if len(queues.Body) == 0 || req.Offset >= queues.Count {
			break
		}
	}

	// Return any errors
	return result
}

func spanManagerName(op string) string {
	return schema.SchemaName + ".manager." + op
}
