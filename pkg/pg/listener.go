package pg

import (
	"context"
	"sync"

	// Packages
	pgx "github.com/jackc/pgx/v5"
	pgxpool "github.com/jackc/pgx/v5/pgxpool"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Listener receives notifications sent with NOTIFY or pg_notify
type Listener interface {
	// Listen on a topic. The first call acquires a connection from the pool.
	Listen(context.Context, string) error

	// Stop listening on a topic
	Unlisten(context.Context, string) error

	// Block until a notification is received, or the context is cancelled
	WaitForNotification(context.Context) (*Notification, error)

	// Release the connection back to the pool
	Close(context.Context) error
}

// Notification is a notification received on a topic
type Notification struct {
	Channel string
	Payload []byte
}

type listener struct {
	sync.Mutex
	pool *pgxpool.Pool
	conn *pgxpool.Conn
}

var _ Listener = (*listener)(nil)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newListener(pool *pgxpool.Pool) *listener {
	return &listener{pool: pool}
}

// Close unlistens all topics and releases the connection
func (l *listener) Close(ctx context.Context) error {
	l.Lock()
	defer l.Unlock()

	if l.conn == nil {
		return nil
	}
	_, err := l.conn.Exec(ctx, "UNLISTEN *")
	l.conn.Release()
	l.conn = nil
	return err
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (l *listener) Listen(ctx context.Context, topic string) error {
	l.Lock()
	defer l.Unlock()

	if l.conn == nil {
		conn, err := l.pool.Acquire(ctx)
		if err != nil {
			return err
		}
		l.conn = conn
	}

	_, err := l.conn.Exec(ctx, "LISTEN "+pgx.Identifier{topic}.Sanitize())
	return err
}

func (l *listener) Unlisten(ctx context.Context, topic string) error {
	l.Lock()
	defer l.Unlock()

	if l.conn == nil {
		return ErrNotAvailable.With("listener is not connected")
	}
	_, err := l.conn.Exec(ctx, "UNLISTEN "+pgx.Identifier{topic}.Sanitize())
	return err
}

func (l *listener) WaitForNotification(ctx context.Context) (*Notification, error) {
	l.Lock()
	conn := l.conn
	l.Unlock()

	if conn == nil {
		return nil, ErrNotAvailable.With("listener is not connected")
	}
	n, err := conn.Conn().WaitForNotification(ctx)
	if err != nil {
		return nil, err
	}
	return &Notification{Channel: n.Channel, Payload: []byte(n.Payload)}, nil
}
