package httphandler

import (
	"errors"
	"net/http"

	// Packages
	uuid "github.com/google/uuid"
	requeue "github.com/mutablelogic/go-requeue"
	schema "github.com/mutablelogic/go-requeue/pkg/queue/schema"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterJobHandlers registers HTTP handlers for reading jobs
func RegisterJobHandlers(router *http.ServeMux, prefix string, client *requeue.Client, middleware HTTPMiddlewareFuncs) {
	// GET /job lists jobs (with optional channel/status/offset/limit params)
	router.HandleFunc(joinPath(prefix, "job"), middleware.Wrap(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = jobList(w, r, client)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	}))

	// GET /job/{id} returns a job
	router.HandleFunc(joinPath(prefix, "job/{id}"), middleware.Wrap(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			_ = httpresponse.Error(w, httpresponse.ErrBadRequest.With("invalid job id"), r.PathValue("id"))
			return
		}
		switch r.Method {
		case http.MethodGet:
			_ = jobGet(w, r, client, id)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	}))

	// GET /job/{id}/response returns the accepted response of a completed job
	router.HandleFunc(joinPath(prefix, "job/{id}/response"), middleware.Wrap(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			_ = httpresponse.Error(w, httpresponse.ErrBadRequest.With("invalid job id"), r.PathValue("id"))
			return
		}
		switch r.Method {
		case http.MethodGet:
			_ = jobResponse(w, r, client, id)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	}))
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func jobList(w http.ResponseWriter, r *http.Request, client *requeue.Client) error {
	// Parse request, where the queue can be named as a channel
	var req schema.TaskListRequest
	if err := httprequest.Query(r.URL.Query(), &req); err != nil {
		return httpresponse.Error(w, err)
	}
	if channel := r.URL.Query().Get("channel"); channel != "" {
		req.Queue = channel
	}

	// List the jobs
	response, err := client.Jobs(r.Context(), req)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), response)
}

func jobGet(w http.ResponseWriter, r *http.Request, client *requeue.Client, id uuid.UUID) error {
	job, err := client.Job(r.Context(), id)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), job)
}

func jobResponse(w http.ResponseWriter, r *http.Request, client *requeue.Client, id uuid.UUID) error {
	resp, err := client.Response(r.Context(), id)
	if errors.Is(err, requeue.ErrNotAccepted) {
		return httpresponse.Error(w, httpresponse.ErrNotFound.With(err.Error()))
	} else if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), resp)
}
