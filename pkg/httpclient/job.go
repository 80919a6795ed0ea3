package httpclient

import (
	"context"

	// Packages
	uuid "github.com/google/uuid"
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-requeue/pkg/queue/schema"
	request "github.com/mutablelogic/go-requeue/pkg/request"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ListJobs returns jobs, most recent first (GET /job).
func (c *Client) ListJobs(ctx context.Context, opts ...Opt) (*schema.TaskList, error) {
	req := client.NewRequest()

	// Apply options
	opt, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}

	// Perform request
	var response schema.TaskList
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("job"), client.OptQuery(opt.Values)); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}

// GetJob returns a job (GET /job/{id}).
func (c *Client) GetJob(ctx context.Context, id uuid.UUID) (*schema.TaskWithStatus, error) {
	req := client.NewRequest()

	// Perform request
	var response schema.TaskWithStatus
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("job", id.String())); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}

// GetResponse returns the accepted response of a completed job
// (GET /job/{id}/response).
func (c *Client) GetResponse(ctx context.Context, id uuid.UUID) (*request.Response, error) {
	req := client.NewRequest()

	// Perform request
	var response request.Response
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("job", id.String(), "response")); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}
