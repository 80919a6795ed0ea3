package httpclient

import (
	"context"
	"net/http"

	// Packages
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-requeue/pkg/queue/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ListChannels returns the channels (GET /channel).
func (c *Client) ListChannels(ctx context.Context, opts ...Opt) (*schema.QueueList, error) {
	req := client.NewRequest()

	// Apply options
	opt, err := applyOpts(opts...)
	if err != nil {
		return nil, err
	}

	// Perform request
	var response schema.QueueList
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("channel"), client.OptQuery(opt.Values)); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}

// ChannelStatus returns the number of jobs on a channel by status
// (GET /channel/{name}).
func (c *Client) ChannelStatus(ctx context.Context, name string) ([]schema.QueueStatus, error) {
	req := client.NewRequest()

	// Perform request
	var response []schema.QueueStatus
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("channel", name)); err != nil {
		return nil, err
	}

	// Return the response
	return response, nil
}

// ClearChannel removes pending jobs from a channel, and returns the jobs
// removed (DELETE /channel/{name}).
func (c *Client) ClearChannel(ctx context.Context, name string) ([]schema.Task, error) {
	req := client.NewRequestEx(http.MethodDelete, "")

	// Perform request
	var response []schema.Task
	if err := c.DoWithContext(ctx, req, &response, client.OptPath("channel", name)); err != nil {
		return nil, err
	}

	// Return the response
	return response, nil
}
