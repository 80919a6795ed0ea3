package httphandler

import (
	"context"
	"net/http"
	"time"

	// Packages
	requeue "github.com/mutablelogic/go-requeue"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// Longest time a caller can wait for a response
	maxWait = 5 * time.Minute
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterRequestHandlers registers HTTP handlers which enqueue requests
func RegisterRequestHandlers(router *http.ServeMux, prefix string, client *requeue.Client, middleware HTTPMiddlewareFuncs) {
	// POST /request enqueues a request
	// POST /request?wait=30s enqueues a request and waits for the response
	router.HandleFunc(joinPath(prefix, "request"), middleware.Wrap(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			if wait := r.URL.Query().Get("wait"); wait != "" {
				_ = requestWait(w, r, client, wait)
			} else {
				_ = requestSpawn(w, r, client)
			}
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	}))
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func requestSpawn(w http.ResponseWriter, r *http.Request, client *requeue.Client) error {
	// Parse request
	var req requeue.SpawnRequest
	if err := httprequest.Read(r, &req); err != nil {
		return httpresponse.Error(w, err)
	}

	// Enqueue
	id, err := client.SpawnWithConfig(r.Context(), req.Channel, req.Request, req.With())
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusCreated, httprequest.Indent(r), requeue.SpawnResponse{Id: id})
}

func requestWait(w http.ResponseWriter, r *http.Request, client *requeue.Client, wait string) error {
	timeout, err := time.ParseDuration(wait)
	if err != nil || timeout <= 0 || timeout > maxWait {
		return httpresponse.Error(w, httpresponse.ErrBadRequest.Withf("invalid wait %q", wait))
	}

	// Parse request
	var req requeue.SpawnRequest
	if err := httprequest.Read(r, &req); err != nil {
		return httpresponse.Error(w, err)
	}

	// Enqueue and wait
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	resp, err := client.SpawnReturningWithConfig(ctx, req.Channel, req.Request, req.With())
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), resp)
}
