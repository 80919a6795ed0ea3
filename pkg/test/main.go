package test

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"

	// Packages
	pg "github.com/mutablelogic/go-requeue/pkg/pg"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Conn is a connection pool shared by the tests in a package. Tests which
// need the database are skipped when no container could be started.
type Conn struct {
	pg.PoolConn
	t *testing.T
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	databaseName = "requeue"
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Main starts a postgresql container, sets the connection and runs the tests
func Main(m *testing.M, conn *Conn) {
	flag.Parse()
	ctx := context.Background()
	verbose := testing.Verbose()

	// Trace queries when verbose
	tracer := func(ctx context.Context, sql string, args any, err error) {
		if err != nil {
			log.Printf("ERROR: %v\n  SQL: %s\n  ARGS: %v", err, sql, args)
		} else {
			log.Printf("SQL: %s\n  ARGS: %v", sql, args)
		}
	}

	// Start the container. Tests are skipped if docker is not available.
	container, pool, err := NewPgxContainer(ctx, databaseName, verbose, tracer)
	if err != nil {
		log.Print("postgresql container not started: ", err)
		os.Exit(m.Run())
	}
	conn.PoolConn = pool

	// Run the tests
	code := m.Run()

	// Release resources
	pool.Close()
	if err := container.Close(ctx); err != nil {
		log.Print(err)
	}
	os.Exit(code)
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Begin returns the connection for a test, skipping it if there is no
// database
func (c *Conn) Begin(t *testing.T) *Conn {
	t.Helper()
	if c.PoolConn == nil {
		t.Skip("no database connection")
	}
	return &Conn{PoolConn: c.PoolConn, t: t}
}

// Close ends the test. The shared pool remains open.
func (c *Conn) Close() {
	if c.t != nil {
		c.t.Log("end of ", c.t.Name())
	}
}
