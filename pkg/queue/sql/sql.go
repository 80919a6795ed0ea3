// Package sql holds the statements which create and query the queue tables
package sql

import (
	_ "embed"
)

// Objects creates the schema, tables, indexes, trigger and view. Each
// statement is idempotent.
//
//go:embed objects.sql
var Objects string

// Queries are bound to every manager connection by name
//
//go:embed queries.sql
var Queries string
