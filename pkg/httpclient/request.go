package httpclient

import (
	"context"
	"fmt"
	"time"

	// Packages
	client "github.com/mutablelogic/go-client"
	requeue "github.com/mutablelogic/go-requeue"
	request "github.com/mutablelogic/go-requeue/pkg/request"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Spawn enqueues a request on a channel, and returns the job identifier
// (POST /request). A nil config uses the default configuration.
func (c *Client) Spawn(ctx context.Context, channel string, req *request.Request, config *requeue.JobConfig) (*requeue.SpawnResponse, error) {
	payload, err := client.NewJSONRequest(requeue.SpawnRequest{
		Channel: channel,
		Request: req,
		Config:  config,
	})
	if err != nil {
		return nil, err
	}

	// Perform request
	var response requeue.SpawnResponse
	if err := c.DoWithContext(ctx, payload, &response, client.OptPath("request")); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}

// SpawnReturning enqueues a request on a channel, and waits for the accepted
// response (POST /request?wait=). The request is still retried when the
// wait elapses.
func (c *Client) SpawnReturning(ctx context.Context, channel string, req *request.Request, config *requeue.JobConfig, wait time.Duration) (*request.Response, error) {
	if wait <= 0 {
		return nil, fmt.Errorf("wait must be positive: %v", wait)
	}
	payload, err := client.NewJSONRequest(requeue.SpawnRequest{
		Channel: channel,
		Request: req,
		Config:  config,
	})
	if err != nil {
		return nil, err
	}

	// Apply options
	opt, err := applyOpts(WithWait(wait))
	if err != nil {
		return nil, err
	}

	// Perform request
	var response request.Response
	if err := c.DoWithContext(ctx, payload, &response, client.OptPath("request"), client.OptQuery(opt.Values)); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}
