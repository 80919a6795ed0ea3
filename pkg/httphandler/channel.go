package httphandler

import (
	"net/http"

	// Packages
	requeue "github.com/mutablelogic/go-requeue"
	schema "github.com/mutablelogic/go-requeue/pkg/queue/schema"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterChannelHandlers registers HTTP handlers for channels
func RegisterChannelHandlers(router *http.ServeMux, prefix string, client *requeue.Client, middleware HTTPMiddlewareFuncs) {
	// GET /channel lists channels
	router.HandleFunc(joinPath(prefix, "channel"), middleware.Wrap(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = channelList(w, r, client)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	}))

	// GET /channel/{name} returns job counts by status
	// DELETE /channel/{name} removes pending jobs
	router.HandleFunc(joinPath(prefix, "channel/{name}"), middleware.Wrap(func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		switch r.Method {
		case http.MethodGet:
			_ = channelStatus(w, r, client, name)
		case http.MethodDelete:
			_ = channelClear(w, r, client, name)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	}))
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func channelList(w http.ResponseWriter, r *http.Request, client *requeue.Client) error {
	// Parse request
	var req schema.QueueListRequest
	if err := httprequest.Query(r.URL.Query(), &req); err != nil {
		return httpresponse.Error(w, err)
	}

	// List the channels
	response, err := client.Channels(r.Context(), req)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), response)
}

func channelStatus(w http.ResponseWriter, r *http.Request, client *requeue.Client, name string) error {
	// Check the channel exists
	if _, err := client.Manager().GetQueue(r.Context(), name); err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Count jobs
	response, err := client.ChannelStatus(r.Context(), name)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), response)
}

func channelClear(w http.ResponseWriter, r *http.Request, client *requeue.Client, name string) error {
	response, err := client.Clear(r.Context(), name)
	if err != nil {
		return httpresponse.Error(w, httperr(err))
	}

	// Return success
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), response)
}
