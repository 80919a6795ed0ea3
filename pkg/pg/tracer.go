package pg

import (
	"context"
	"strings"

	// Packages
	pgx "github.com/jackc/pgx/v5"
	attribute "go.opentelemetry.io/otel/attribute"
	codes "go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	trace "go.opentelemetry.io/otel/trace"
)

//////////////////////////////////////////////////////////////////////////////
// TYPES

// TraceFn is called after each query with the SQL, the arguments and
// the error, if any
type TraceFn func(context.Context, string, any, error)

// tracer implements pgx.QueryTracer
type tracer struct {
	TraceFn
	otel trace.Tracer
}

type traceKey struct{}

type traceData struct {
	span trace.Span
	sql  string
	args []any
}

var _ pgx.QueryTracer = (*tracer)(nil)

//////////////////////////////////////////////////////////////////////////////
// GLOBALS

// SpanNameArg is a bind variable which, when set, names the query span
const SpanNameArg = "otelspan"

const defaultSpanName = "pg.query"

//////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func NewTracer(fn TraceFn) *tracer {
	return &tracer{TraceFn: fn}
}

func NewOTELTracer(t trace.Tracer) *tracer {
	return &tracer{otel: t}
}

//////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (t *tracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	td := &traceData{sql: data.SQL, args: data.Args}
	if t.otel != nil {
		ctx, td.span = t.otel.Start(ctx, spanName(data.Args),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemPostgreSQL,
				attribute.String("db.statement", data.SQL),
			),
		)
	}
	return context.WithValue(ctx, traceKey{}, td)
}

func (t *tracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	td, ok := ctx.Value(traceKey{}).(*traceData)
	if !ok {
		return
	}
	if td.span != nil {
		if data.Err != nil {
			td.span.RecordError(data.Err)
			td.span.SetStatus(codes.Error, data.Err.Error())
		}
		td.span.End()
	}
	if t.TraceFn != nil {
		t.TraceFn(ctx, strings.TrimSpace(td.sql), flatten(td.args), data.Err)
	}
}

//////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func spanName(args []any) string {
	if named, ok := flatten(args).(pgx.NamedArgs); ok {
		if s, ok := named[SpanNameArg].(string); ok && s != "" {
			return s
		}
	}
	return defaultSpanName
}

func flatten(args []any) any {
	switch len(args) {
	case 0:
		return nil
	case 1:
		return args[0]
	default:
		return args
	}
}
