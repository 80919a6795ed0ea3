package pg

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	// Packages
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type opt struct {
	url.Values
	tracer *tracer
	bind   *Bind
}

// Opt applies an option to a connection pool
type Opt func(*opt) error

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	DefaultPort     = "5432"
	DefaultMaxConns = 10
	defaultHost     = "localhost"
	defaultDatabase = "postgres"
)

var (
	schemes = []string{"postgres", "postgresql"}
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func apply(opts ...Opt) (*opt, error) {
	o := &opt{
		Values: make(url.Values),
		bind:   NewBind(),
	}
	o.Set("host", defaultHost)
	o.Set("port", DefaultPort)
	o.Set("pool_max_conns", strconv.Itoa(DefaultMaxConns))

	for _, fn := range opts {
		if err := fn(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithURL sets connection parameters from a postgres:// URL. Query
// parameters are passed through to the connection string.
func WithURL(value string) Opt {
	return func(o *opt) error {
		u, err := parseURL(value)
		if err != nil {
			return err
		}
		o.Set("host", u.Hostname())
		o.Set("port", u.Port())
		o.Set("dbname", strings.TrimPrefix(u.Path, "/"))
		if user := u.User.Username(); user != "" {
			o.Set("user", user)
		}
		if password, ok := u.User.Password(); ok {
			o.Set("password", password)
		}
		for key, values := range u.Query() {
			for _, v := range values {
				o.Add(key, v)
			}
		}
		return nil
	}
}

// WithCredentials sets the user and password. The user name doubles
// as the database name when none has been set.
func WithCredentials(user, password string) Opt {
	return func(o *opt) error {
		if user != "" {
			o.Set("user", user)
			if !o.Has("dbname") {
				o.Set("dbname", user)
			}
		}
		if password != "" {
			o.Set("password", password)
		}
		return nil
	}
}

// WithDatabase sets the database name
func WithDatabase(name string) Opt {
	return func(o *opt) error {
		if name == "" {
			o.Del("dbname")
			return nil
		}
		o.Set("dbname", name)
		if !o.Has("user") {
			o.Set("user", name)
		}
		return nil
	}
}

// WithSchemaSearchPath sets the search_path, or removes it when empty
func WithSchemaSearchPath(schemas ...string) Opt {
	return func(o *opt) error {
		if len(schemas) == 0 {
			o.Del("search_path")
		} else {
			o.Set("search_path", strings.Join(schemas, ","))
		}
		return nil
	}
}

// WithAddr sets host or host:port
func WithAddr(addr string) Opt {
	return func(o *opt) error {
		if !strings.Contains(addr, ":") {
			return WithHostPort(addr, DefaultPort)(o)
		}
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return ErrBadParameter.With(err)
		}
		return WithHostPort(host, port)(o)
	}
}

func WithHostPort(host, port string) Opt {
	return func(o *opt) error {
		if host != "" {
			o.Set("host", host)
		}
		if port != "" {
			o.Set("port", port)
		}
		return nil
	}
}

// WithSSLMode sets one of disable, allow, prefer, require, verify-ca
// or verify-full
func WithSSLMode(mode string) Opt {
	return func(o *opt) error {
		if mode != "" {
			o.Set("sslmode", mode)
		}
		return nil
	}
}

// WithApplicationName sets the name reported in pg_stat_activity
func WithApplicationName(name string) Opt {
	return func(o *opt) error {
		if name != "" {
			o.Set("application_name", name)
		}
		return nil
	}
}

// WithMaxConns sets the upper bound on pooled connections. Each worker
// pool holds one additional connection for notifications.
func WithMaxConns(n int) Opt {
	return func(o *opt) error {
		if n < 1 {
			return ErrBadParameter.Withf("max connections: %d", n)
		}
		o.Set("pool_max_conns", strconv.Itoa(n))
		return nil
	}
}

// WithTrace calls fn after every query
func WithTrace(fn TraceFn) Opt {
	return func(o *opt) error {
		if o.tracer == nil {
			o.tracer = NewTracer(fn)
		} else {
			o.tracer.TraceFn = fn
		}
		return nil
	}
}

// WithTracer emits an OpenTelemetry span for every query
func WithTracer(t trace.Tracer) Opt {
	return func(o *opt) error {
		if o.tracer == nil {
			o.tracer = NewOTELTracer(t)
		} else {
			o.tracer.otel = t
		}
		return nil
	}
}

// WithBind sets a variable bound on every connection from the pool
func WithBind(k string, v any) Opt {
	return func(o *opt) error {
		if o.bind.Set(k, v) == "" {
			return ErrBadParameter.With("empty bind key")
		}
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// encode returns key=value pairs in key order, omitting empty values and
// any keys in skip
func (o *opt) encode(skip ...string) []string {
	keys := make([]string, 0, len(o.Values))
	for key := range o.Values {
		if !slices.Contains(skip, key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		if value := o.Get(key); value != "" {
			parts = append(parts, key+"="+value)
		}
	}
	return parts
}

// Encode returns the connection string
func (o *opt) Encode() string {
	return strings.Join(o.encode(), " ")
}

func parseURL(value string) (*url.URL, error) {
	u, err := url.Parse(value)
	if err != nil {
		return nil, ErrBadParameter.With(err)
	}
	if u.Scheme == "" {
		u.Scheme = schemes[0]
	} else if !slices.Contains(schemes, u.Scheme) {
		return nil, ErrBadParameter.Withf("invalid scheme %q", u.Scheme)
	}

	// Fill in host and port
	host, port := u.Hostname(), u.Port()
	if host == "" {
		host = defaultHost
	}
	if port == "" {
		port = DefaultPort
	}
	u.Host = net.JoinHostPort(host, port)

	// Database defaults to the user name, then to postgres
	if u.Path == "" || u.Path == "/" {
		if u.User != nil && u.User.Username() != "" {
			u.Path = "/" + u.User.Username()
		} else {
			u.Path = "/" + defaultDatabase
		}
	}
	return u, nil
}

func (o *opt) String() string {
	return fmt.Sprint(o.encode("password"))
}
