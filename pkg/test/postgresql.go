package test

import (
	"context"
	"errors"
	"fmt"
	"os"

	// Packages
	pg "github.com/mutablelogic/go-requeue/pkg/pg"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	pgxContainer = "postgres:17-bookworm"
	pgxPort      = "5432/tcp"
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewPgxContainer creates a new PostgreSQL container and connection pool.
// Optional searchPath parameter sets the schema search path for the connection.
func NewPgxContainer(ctx context.Context, name string, verbose bool, tracer pg.TraceFn, searchPath ...string) (*Container, pg.PoolConn, error) {
	// Create a new container with postgresql package
	container, err := NewContainer(ctx, fmt.Sprint(name, "-", os.Getpid()), pgxContainer,
		OptPostgres("postgres", "password", name),         // User, Password, Database
		OptPostgresSetting("max_connections", "200"),      // Concurrent workers in tests
		OptPostgresSetting("log_min_messages", "warning"), // Quieter server log
	)
	if err != nil {
		return nil, nil, err
	}

	host, _ := container.GetEnv("POSTGRES_HOST")
	port, err := container.GetPort(pgxPort)
	if err != nil {
		return nil, nil, err
	}

	// Create a connection pool with optional search path
	opts := []pg.Opt{
		pg.WithCredentials("postgres", "password"),
		pg.WithDatabase(name),
		pg.WithHostPort(host, port),
		pg.WithSSLMode("disable"),
		pg.WithApplicationName(name),
		pg.WithMaxConns(50),
		pg.WithSchemaSearchPath(searchPath...),
	}
	if verbose && tracer != nil {
		opts = append(opts, pg.WithTrace(tracer))
	}
	pool, err := pg.NewPool(ctx, opts...)
	if err != nil {
		return nil, nil, errors.Join(err, container.Close(ctx))
	} else if err := pool.Ping(ctx); err != nil {
		return nil, nil, errors.Join(err, container.Close(ctx))
	}

	// Return success
	return container, pool, nil
}
