package requeue

import (
	"context"
	"errors"
	"net/http"
	"time"

	// Packages
	json "github.com/goccy/go-json"
	uuid "github.com/google/uuid"
	correlation "github.com/mutablelogic/go-requeue/pkg/correlation"
	request "github.com/mutablelogic/go-requeue/pkg/request"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Job is a retained job as seen by an executor
type Job interface {
	// Return the job identifier
	Id() uuid.UUID

	// Return the encoded request
	Payload() json.RawMessage

	// Return true if no retries remain after this attempt
	Final() bool

	// Complete the job with a result
	Complete(context.Context, any) error
}

type executor struct {
	client  *http.Client
	table   *correlation.Table
	metrics *metrics
	maxBody int64
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// Executor for requests where the response is discarded
	ExecutorHTTP = "http"

	// Executor for requests where the response is delivered to a waiter
	ExecutorHTTPResponse = "http_response"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// HTTP sends the request and completes the job when the response is
// accepted. Any other outcome returns an error and the job is retried.
func (e *executor) HTTP(ctx context.Context, job Job) error {
	resp, err := e.send(ctx, ExecutorHTTP, job)
	if err != nil {
		return err
	}
	return job.Complete(ctx, resp)
}

// HTTPResponse is as HTTP, and delivers an accepted response to the
// waiter registered for the job. On the final attempt a response which is
// not accepted is delivered as an error instead.
func (e *executor) HTTPResponse(ctx context.Context, job Job) error {
	resp, err := e.send(ctx, ExecutorHTTPResponse, job)
	if err != nil {
		if job.Final() {
			// The waiter may be gone, which is not an error here
			_ = e.table.Reject(job.Id(), err)
		}
		return err
	}

	// The response is delivered before the job completes, and the job
	// completes even if nobody receives it
	delivery := e.table.Resolve(job.Id(), resp)
	if err := job.Complete(ctx, resp); err != nil {
		return errors.Join(err, ErrUndelivered.Wrap(delivery))
	}
	if delivery != nil {
		e.metrics.outcome(ExecutorHTTPResponse, outcomeUndelivered)
		return ErrUndelivered.Wrap(delivery)
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// send decodes the request, sends it and returns the response if it is
// accepted
func (e *executor) send(ctx context.Context, name string, job Job) (*request.Response, error) {
	started := time.Now()

	// Decode
	req, err := request.Decode(job.Payload())
	if err != nil {
		e.metrics.outcome(name, outcomeMalformed)
		return nil, ErrMissingRequest.Wrap(err)
	}
	httpreq, err := req.HTTPRequest(ctx)
	if err != nil {
		e.metrics.outcome(name, outcomeMalformed)
		return nil, ErrMissingRequest.Wrap(err)
	}

	// Dispatch
	httpresp, err := e.client.Do(httpreq)
	if err != nil {
		e.metrics.outcome(name, outcomeNotSent)
		return nil, ErrNotSent.Wrap(err)
	}
	resp, err := request.ReadResponse(httpresp, e.maxBody)
	if err != nil {
		e.metrics.outcome(name, outcomeNotSent)
		return nil, ErrNotSent.Wrap(err)
	}
	e.metrics.observe(name, time.Since(started))

	// Evaluate
	if !req.Accepts(resp.Status) {
		e.metrics.outcome(name, outcomeNotAccepted)
		return nil, ErrNotAccepted.Withf("status %d from %s %s", resp.Status, req.Method(), req.URL().Redacted())
	}

	e.metrics.outcome(name, outcomeAccepted)
	return resp, nil
}
