package httphandler

import (
	"context"
	"errors"
	"net/http"

	// Packages
	requeue "github.com/mutablelogic/go-requeue"
	correlation "github.com/mutablelogic/go-requeue/pkg/correlation"
	pg "github.com/mutablelogic/go-requeue/pkg/pg"
	request "github.com/mutablelogic/go-requeue/pkg/request"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// HTTPMiddlewareFuncs wrap every handler, the first being outermost
type HTTPMiddlewareFuncs []func(http.HandlerFunc) http.HandlerFunc

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterHandlers registers all HTTP handlers on the provided router with
// the given path prefix. The client must be non-nil.
func RegisterHandlers(router *http.ServeMux, prefix string, client *requeue.Client, middleware HTTPMiddlewareFuncs) {
	RegisterRequestHandlers(router, prefix, client, middleware)
	RegisterJobHandlers(router, prefix, client, middleware)
	RegisterChannelHandlers(router, prefix, client, middleware)
	RegisterMetricsHandler(router, prefix, client, middleware)
}

// RegisterNotFoundHandler registers a handler which returns "not found"
// for any path not otherwise handled
func RegisterNotFoundHandler(router *http.ServeMux, prefix string) {
	router.HandleFunc(joinPath(prefix, "/"), func(w http.ResponseWriter, r *http.Request) {
		_ = httpresponse.Error(w, httpresponse.ErrNotFound, r.URL.String())
	})
}

// Wrap returns the handler wrapped by the middleware
func (m HTTPMiddlewareFuncs) Wrap(handler http.HandlerFunc) http.HandlerFunc {
	for i := len(m) - 1; i >= 0; i-- {
		handler = m[i](handler)
	}
	return handler
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func joinPath(prefix, path string) string {
	return types.JoinPath(prefix, path)
}

// httperr converts errors to appropriate HTTP errors.
// Returns the original error if it's already an httpresponse.Err,
// otherwise maps package errors to their HTTP equivalents.
func httperr(err error) error {
	if err == nil {
		return nil
	}

	// If already an HTTP error, return as-is
	var httpErr httpresponse.Err
	if errors.As(err, &httpErr) {
		return err
	}

	switch {
	case errors.Is(err, pg.ErrNotFound):
		return httpresponse.ErrNotFound.With(err.Error())
	case errors.Is(err, pg.ErrBadParameter),
		errors.Is(err, requeue.ErrBadParameter),
		errors.Is(err, requeue.ErrMissingRequest),
		errors.Is(err, request.ErrBadParameter),
		errors.Is(err, request.ErrUnsupportedVersion):
		return httpresponse.ErrBadRequest.With(err.Error())
	case errors.Is(err, pg.ErrConflict), errors.Is(err, correlation.ErrDuplicate):
		return httpresponse.ErrConflict.With(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return httpresponse.Err(http.StatusGatewayTimeout).With(err.Error())
	case errors.Is(err, requeue.ErrNotAccepted), errors.Is(err, requeue.ErrUndelivered):
		return httpresponse.Err(http.StatusBadGateway).With(err.Error())
	case errors.Is(err, pg.ErrNotImplemented), errors.Is(err, pg.ErrNotAvailable):
		return httpresponse.ErrNotImplemented.With(err.Error())
	default:
		return httpresponse.ErrInternalError.With(err.Error())
	}
}
