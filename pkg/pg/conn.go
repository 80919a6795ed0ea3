package pg

import (
	"context"
	"errors"

	// Packages
	pgx "github.com/jackc/pgx/v5"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type Conn interface {
	// Return a new connection with bound parameters
	With(...any) Conn

	// Return a new connection with bound queries
	WithQueries(...*Queries) Conn

	// Perform a transaction within a function
	Tx(context.Context, func(Conn) error) error

	// Execute a query
	Exec(context.Context, string) error

	// Perform an insert
	Insert(context.Context, Reader, Writer) error

	// Perform an update
	Update(context.Context, Reader, Selector, Writer) error

	// Perform a delete
	Delete(context.Context, Reader, Selector) error

	// Perform a get
	Get(context.Context, Reader, Selector) error

	// Perform a list. If the reader is a ListReader, then the
	// count of items is also calculated
	List(context.Context, Reader, Selector) error
}

// Op represents a database operation type.
type Op uint

// Row is a pgx.Row for scanning query results.
type Row pgx.Row

// Reader scans a database row into an object.
type Reader interface {
	// Scan row into a result
	Scan(Row) error
}

// ListReader scans database rows and counts total results.
type ListReader interface {
	Reader

	// Scan count into the result
	ScanCount(Row) error
}

// Writer binds object fields for insert or update operations.
type Writer interface {
	// Set bind parameters for an insert
	Insert(*Bind) (string, error)

	// Set bind parameters for an update
	Update(*Bind) error
}

// Selector binds parameters for get, update, or delete operations.
type Selector interface {
	// Set bind parameters for getting, updating or deleting
	Select(*Bind, Op) (string, error)
}

// conn runs operations on a transaction, or on the pool outside of one
type conn struct {
	tx   pgx.Tx
	bind *Bind
}

// Ensure interfaces are satisfied
var _ Conn = (*conn)(nil)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Operations
const (
	None Op = iota
	Get
	Insert
	Update
	Delete
	List
)

func (o Op) String() string {
	switch o {
	case Get:
		return "GET"
	case Insert:
		return "INSERT"
	case Update:
		return "UPDATE"
	case Delete:
		return "DELETE"
	case List:
		return "LIST"
	}
	return "UNKNOWN"
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - CONN

func (c *conn) With(params ...any) Conn {
	return &conn{c.tx, c.bind.Copy(params...)}
}

func (c *conn) WithQueries(queries ...*Queries) Conn {
	return &conn{c.tx, c.bind.withQueries(queries...)}
}

// Tx runs fn in a transaction, or a savepoint when already within one, then
// commits or rolls back
func (c *conn) Tx(ctx context.Context, fn func(Conn) error) error {
	tx, err := c.tx.Begin(ctx)
	if err != nil {
		return pgerror(err)
	}
	if err := fn(&conn{tx, c.bind.Copy()}); err != nil {
		return errors.Join(pgerror(err), tx.Rollback(ctx))
	}
	return pgerror(tx.Commit(ctx))
}

func (c *conn) Exec(ctx context.Context, query string) error {
	return pgerror(c.bind.Exec(ctx, c.tx, query))
}

func (c *conn) Insert(ctx context.Context, reader Reader, writer Writer) error {
	return c.run(ctx, Insert, reader, nil, writer)
}

func (c *conn) Update(ctx context.Context, reader Reader, sel Selector, writer Writer) error {
	return c.run(ctx, Update, reader, sel, writer)
}

func (c *conn) Delete(ctx context.Context, reader Reader, sel Selector) error {
	return c.run(ctx, Delete, reader, sel, nil)
}

func (c *conn) Get(ctx context.Context, reader Reader, sel Selector) error {
	return c.run(ctx, Get, reader, sel, nil)
}

func (c *conn) List(ctx context.Context, reader Reader, sel Selector) error {
	return c.run(ctx, List, reader, sel, nil)
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// run builds the query for an operation and scans the rows into reader.
// Inserts take their query from the writer, all other operations from the
// selector. A list appends ${offsetlimit} and is never ErrNotFound.
func (c *conn) run(ctx context.Context, op Op, reader Reader, sel Selector, writer Writer) error {
	var query string
	var err error

	if op == List {
		c.bind.Set("offsetlimit", "")
	}
	if op == Insert {
		query, err = writer.Insert(c.bind)
	} else {
		query, err = sel.Select(c.bind, op)
	}
	if err != nil {
		return err
	}
	if op == Update && writer != nil {
		if err := writer.Update(c.bind); err != nil {
			return err
		}
	}
	if op != List {
		return c.scan(ctx, query, reader)
	}

	// Count the rows when the reader wants a total
	if counter, ok := reader.(ListReader); ok {
		row := c.bind.QueryRow(ctx, c.tx, `WITH sq AS (`+query+`) SELECT COUNT(*) AS "count" FROM sq`)
		if err := counter.ScanCount(row); err != nil {
			return pgerror(err)
		}
	}
	if err := c.scan(ctx, query+` ${offsetlimit}`, reader); !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// scan executes a query, and passes each row to reader. Without a reader the
// query is executed for its side effects. Returns ErrNotFound when a reader
// is given and no rows are returned.
func (c *conn) scan(ctx context.Context, query string, reader Reader) error {
	if reader == nil {
		return pgerror(c.bind.Exec(ctx, c.tx, query))
	}

	rows, err := c.bind.Query(ctx, c.tx, query)
	if err != nil {
		return pgerror(err)
	}
	defer rows.Close()

	var scanned bool
	for rows.Next() {
		if err := reader.Scan(rows); err != nil {
			return pgerror(err)
		}
		scanned = true
	}
	if err := rows.Err(); err != nil {
		return pgerror(err)
	} else if !scanned {
		return ErrNotFound
	}

	// Return success
	return nil
}
