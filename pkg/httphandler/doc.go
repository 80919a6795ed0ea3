/*
Package httphandler provides HTTP handlers for enqueuing requests and
reading jobs and channels.

# Request Endpoints

	POST   /request                - Enqueue a request, returns the job id
	POST   /request?wait=30s       - Enqueue a request and wait for the accepted response

The body is a JSON object with the channel, the request and an optional job
configuration. The request body is base64 encoded:

	{
	  "channel": "hooks",
	  "request": { "method": "POST", "url": "https://example.com/", "body": "aGVsbG8=", "accept": [{ "kind": "success" }] },
	  "config": { "retries": 10, "ordered": true }
	}

When waiting, the request is not ordered on its channel, and a 504 is
returned if no response was accepted before the wait elapsed. The request is
still retried.

# Job Endpoints

	GET    /job                    - List jobs (optional ?channel, ?status, ?offset, ?limit)
	GET    /job/{id}               - Get a job
	GET    /job/{id}/response      - Get the accepted response of a completed job

# Channel Endpoints

	GET    /channel                - List channels
	GET    /channel/{name}         - Count jobs on a channel by status
	DELETE /channel/{name}         - Remove pending jobs from a channel

# Metrics Endpoint

	GET    /metrics                - Prometheus metrics

# Usage

	client, _ := requeue.New(ctx, conn)
	router := http.NewServeMux()
	httphandler.RegisterHandlers(router, "/api/v1", client, nil)
*/
package httphandler
