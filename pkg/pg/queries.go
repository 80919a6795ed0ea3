package pg

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Queries is a set of named SQL statements. In the source text each
// statement is preceded by a line of the form "-- name", and statements
// are kept in the order they appear.
type Queries struct {
	keys    []string
	queries map[string]string
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	reQueryKey = regexp.MustCompile(`^--\s*([a-zA-Z0-9_.-]+)\s*$`)
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewQueries reads named statements, for example:
//
//	-- task.get
//	SELECT * FROM task WHERE id = @id;
//
// Text before the first name is ignored. A repeated name is an error.
func NewQueries(r io.Reader) (*Queries, error) {
	q := &Queries{queries: make(map[string]string)}

	var key string
	var buf strings.Builder
	flush := func() {
		if key != "" {
			q.queries[key] = strings.TrimSpace(buf.String())
			q.keys = append(q.keys, key)
		}
		buf.Reset()
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if m := reQueryKey.FindStringSubmatch(line); m != nil {
			flush()
			if _, exists := q.queries[m[1]]; exists {
				return nil, ErrBadParameter.Withf("duplicate query %q", m[1])
			}
			key = m[1]
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return q, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Keys returns the statement names in source order
func (q *Queries) Keys() []string {
	return q.keys
}

// Get returns a statement, or an empty string
func (q *Queries) Get(key string) string {
	return q.queries[key]
}
