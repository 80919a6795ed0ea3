package pg

import (
	"context"
	"errors"
	"strings"

	// Packages
	pgx "github.com/jackc/pgx/v5"
	pgconn "github.com/jackc/pgx/v5/pgconn"
	pgxpool "github.com/jackc/pgx/v5/pgxpool"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type PoolConn interface {
	Conn

	// Acquire a connection and ping it
	Ping(context.Context) error

	// Release resources
	Close()

	// Return a listener for notifications. The listener holds a dedicated
	// connection from the pool until it is closed.
	Listener() Listener
}

type pool struct {
	*pgxpool.Pool
}

// poolconn runs operations on the pool, acquiring a connection for each
type poolconn struct {
	conn
	pool *pool
}

// Ensure interfaces are satisfied
var _ pgx.Tx = (*pool)(nil)
var _ PoolConn = (*poolconn)(nil)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewPool creates a new connection pool to a PostgreSQL server.
func NewPool(ctx context.Context, opts ...Opt) (PoolConn, error) {
	o, err := apply(opts...)
	if err != nil {
		return nil, err
	}
	poolconfig, err := pgxpool.ParseConfig(o.Encode())
	if err != nil {
		return nil, err
	}

	// Set the query tracer, and output the connection parameters
	if o.tracer != nil {
		poolconfig.ConnConfig.Tracer = o.tracer
		if o.tracer.TraceFn != nil {
			parts := map[string]string{}
			for _, part := range o.encode("password") {
				kv := strings.SplitN(part, "=", 2)
				parts[kv[0]] = kv[1]
			}
			o.tracer.TraceFn(ctx, "CONNECT", parts, nil)
		}
	}

	// Create the connection pool
	p, err := pgxpool.NewWithConfig(ctx, poolconfig)
	if err != nil {
		return nil, err
	}

	// Wrap the connection pool as if it's a transaction
	return newPoolConn(&pool{p}, o.bind), nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - POOL

func (p *pool) Commit(ctx context.Context) error {
	return errors.New("cannot commit a connection pool")
}

func (p *pool) Rollback(ctx context.Context) error {
	return errors.New("cannot rollback a connection pool")
}

func (p *pool) Conn() *pgx.Conn {
	return nil
}

func (p *pool) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (p *pool) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("cannot prepare a connection pool")
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - POOLCONN

func (p *poolconn) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *poolconn) Close() {
	p.pool.Close()
}

func (p *poolconn) Listener() Listener {
	return newListener(p.pool.Pool)
}

// With returns a pool connection with additional bound parameters
func (p *poolconn) With(params ...any) Conn {
	return newPoolConn(p.pool, p.bind.Copy(params...))
}

// WithQueries returns a pool connection with additional named queries
func (p *poolconn) WithQueries(queries ...*Queries) Conn {
	return newPoolConn(p.pool, p.bind.withQueries(queries...))
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func newPoolConn(p *pool, bind *Bind) *poolconn {
	return &poolconn{conn{p, bind}, p}
}
