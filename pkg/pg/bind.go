package pg

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"strings"
	"sync"

	// Packages
	pgx "github.com/jackc/pgx/v5"
	types "github.com/mutablelogic/go-requeue/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Bind represents a set of variables and arguments to be used in a query.
// Variables of the form ${key} are substituted in the query string itself,
// while @key parameters are passed as named arguments.
type Bind struct {
	sync.RWMutex
	vars pgx.NamedArgs
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewBind creates a new Bind object with the given name/value pairs.
// Returns nil if the number of arguments is not even, or a key is not
// a string.
func NewBind(pairs ...any) *Bind {
	if len(pairs)%2 != 0 {
		return nil
	}
	vars := make(pgx.NamedArgs, len(pairs)>>1)
	for i := 0; i < len(pairs); i += 2 {
		if key, ok := pairs[i].(string); !ok || key == "" {
			return nil
		} else {
			vars[key] = pairs[i+1]
		}
	}
	return &Bind{vars: vars}
}

// Copy creates a copy of the bind object with additional name/value pairs.
func (bind *Bind) Copy(pairs ...any) *Bind {
	if len(pairs)%2 != 0 {
		return nil
	}

	bind.RLock()
	vars := make(pgx.NamedArgs, len(bind.vars)+(len(pairs)>>1))
	maps.Copy(vars, bind.vars)
	bind.RUnlock()

	for i := 0; i < len(pairs); i += 2 {
		if key, ok := pairs[i].(string); !ok || key == "" {
			return nil
		} else {
			vars[key] = pairs[i+1]
		}
	}
	return &Bind{vars: vars}
}

// Return a new bind object with one or more sets of queries
func (bind *Bind) withQueries(queries ...*Queries) *Bind {
	if len(queries) == 0 {
		return bind
	}
	copy := bind.Copy()
	for _, q := range queries {
		for _, key := range q.Keys() {
			copy.vars[key] = q.Get(key)
		}
	}
	return copy
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (bind *Bind) MarshalJSON() ([]byte, error) {
	bind.RLock()
	defer bind.RUnlock()
	return json.Marshal(bind.vars)
}

func (bind *Bind) String() string {
	data, err := json.MarshalIndent(bind, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(data)
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Set sets a bind var and returns the parameter name.
func (bind *Bind) Set(key string, value any) string {
	bind.Lock()
	defer bind.Unlock()

	if key == "" {
		return ""
	}
	bind.vars[key] = value
	return "@" + key
}

// Get returns a bind var by key.
func (bind *Bind) Get(key string) any {
	bind.RLock()
	defer bind.RUnlock()
	return bind.vars[key]
}

// Has returns true if there is a bind var with the given key.
func (bind *Bind) Has(key string) bool {
	bind.RLock()
	defer bind.RUnlock()
	_, ok := bind.vars[key]
	return ok
}

// Del deletes a bind var.
func (bind *Bind) Del(key string) {
	bind.Lock()
	defer bind.Unlock()
	delete(bind.vars, key)
}

// Join joins a bind var with a separator when it is a []any and returns
// the result as a string. Returns an empty string if the key does not exist.
func (bind *Bind) Join(key, sep string) string {
	bind.RLock()
	defer bind.RUnlock()

	if value, ok := bind.vars[key]; !ok {
		return ""
	} else if v, ok := value.([]any); ok {
		str := make([]string, len(v))
		for i, value := range v {
			str[i] = fmt.Sprint(value)
		}
		return strings.Join(str, sep)
	} else {
		return fmt.Sprint(value)
	}
}

// Append appends a bind var to a list. Returns false if the key
// is not a list.
func (bind *Bind) Append(key string, value any) bool {
	bind.Lock()
	defer bind.Unlock()

	if _, ok := bind.vars[key]; !ok {
		bind.vars[key] = make([]any, 0, 5)
	}
	list, ok := bind.vars[key].([]any)
	if !ok {
		return false
	}
	bind.vars[key] = append(list, value)
	return true
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - QUERY

// QueryRow queries a single row and returns the result.
func (bind *Bind) QueryRow(ctx context.Context, conn pgx.Tx, query string) pgx.Row {
	bind.RLock()
	defer bind.RUnlock()
	return conn.QueryRow(ctx, replace(query, bind.vars), bind.vars)
}

// Query a set of rows and return the result
func (bind *Bind) Query(ctx context.Context, conn pgx.Tx, query string) (pgx.Rows, error) {
	bind.RLock()
	defer bind.RUnlock()
	return conn.Query(ctx, replace(query, bind.vars), bind.vars)
}

// Exec executes a query.
func (bind *Bind) Exec(ctx context.Context, conn pgx.Tx, query string) error {
	bind.RLock()
	defer bind.RUnlock()
	_, err := conn.Exec(ctx, replace(query, bind.vars), bind.vars)
	return err
}

// Replace returns a query string with ${subtitution} replaced by the values:
//   - ${key} => value
//   - ${'key'} => 'value'
//   - ${"key"} => "value"
//   - $1 => $1
//   - $$ => $$
func (bind *Bind) Replace(query string) string {
	bind.RLock()
	defer bind.RUnlock()
	return replace(query, bind.vars)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func replace(query string, vars pgx.NamedArgs) string {
	fetch := func(key string) string {
		return fmt.Sprint(vars[key])
	}
	return os.Expand(query, func(key string) string {
		switch {
		case key == "$":
			return "$$"
		case types.IsNumeric(key):
			return "$" + key
		case types.IsSingleQuoted(key):
			key := strings.Trim(key, "'")
			if v, ok := vars[key].([]string); ok {
				result := make([]string, len(v))
				for i, s := range v {
					result[i] = types.Quote(s)
				}
				return strings.Join(result, ",")
			}
			return types.Quote(fetch(key))
		case types.IsDoubleQuoted(key):
			return types.DoubleQuote(fetch(strings.Trim(key, "\"")))
		default:
			return fetch(key)
		}
	})
}
