package requeue

import (
	"context"
	"errors"
	"time"

	// Packages
	json "github.com/goccy/go-json"
	uuid "github.com/google/uuid"
	pg "github.com/mutablelogic/go-requeue/pkg/pg"
	schema "github.com/mutablelogic/go-requeue/pkg/queue/schema"
	request "github.com/mutablelogic/go-requeue/pkg/request"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// JobConfig sets how a spawned request is retried and scheduled
type JobConfig struct {
	// Number of attempts. Zero uses the channel default.
	Retries uint64 `json:"retries,omitempty"`

	// Delay before the second attempt, doubled after each failure. Zero
	// uses the channel default.
	Backoff time.Duration `json:"backoff,omitempty"`

	// Send after every earlier ordered request on the channel
	Ordered bool `json:"ordered,omitempty"`

	// Delay before the first attempt
	Delay time.Duration `json:"delay,omitempty"`
}

// SpawnRequest is a request to be enqueued on a channel. When Config is
// nil the default configuration is used.
type SpawnRequest struct {
	Channel string           `json:"channel"`
	Request *request.Request `json:"request"`
	Config  *JobConfig       `json:"config,omitempty"`
}

// SpawnResponse identifies an enqueued request
type SpawnResponse struct {
	Id uuid.UUID `json:"id"`
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	DefaultRetries = 100000
)

// DefaultJobConfig returns the configuration used by Spawn and
// SpawnReturning
func DefaultJobConfig() JobConfig {
	return JobConfig{
		Retries: DefaultRetries,
		Ordered: true,
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Spawn enqueues a request on a channel and returns the job identifier. The
// response is discarded once accepted.
func (c *Client) Spawn(ctx context.Context, channel string, req *request.Request) (uuid.UUID, error) {
	return c.SpawnWithConfig(ctx, channel, req, nil)
}

// SpawnWithConfig is as Spawn. The function, when not nil, can modify the
// default configuration.
func (c *Client) SpawnWithConfig(ctx context.Context, channel string, req *request.Request, fn func(*JobConfig)) (uuid.UUID, error) {
	return c.spawn(ctx, channel, ExecutorHTTP, uuid.New(), req, config(fn))
}

// SpawnReturning enqueues a request on a channel and waits for the accepted
// response. The request continues to be retried if the context is
// cancelled before a response is accepted.
func (c *Client) SpawnReturning(ctx context.Context, channel string, req *request.Request) (*request.Response, error) {
	return c.spawnReturning(ctx, channel, req, DefaultJobConfig())
}

// SpawnReturningWithConfig is as SpawnReturning. The function, when not nil,
// can modify the default configuration. The job is never ordered, so a
// failing earlier request on the channel cannot hold up the caller.
func (c *Client) SpawnReturningWithConfig(ctx context.Context, channel string, req *request.Request, fn func(*JobConfig)) (*request.Response, error) {
	cfg := config(fn)
	cfg.Ordered = false
	return c.spawnReturning(ctx, channel, req, cfg)
}

// With returns a function which replaces the default configuration, or nil
// when Config is nil
func (r SpawnRequest) With() func(*JobConfig) {
	if r.Config == nil {
		return nil
	}
	return func(config *JobConfig) {
		*config = *r.Config
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func config(fn func(*JobConfig)) JobConfig {
	config := DefaultJobConfig()
	if fn != nil {
		fn(&config)
	}
	return config
}

// spawnReturning registers a waiter, enqueues the job and waits for the
// waiter to be resolved or rejected
func (c *Client) spawnReturning(ctx context.Context, channel string, req *request.Request, config JobConfig) (*request.Response, error) {
	id := uuid.New()

	// Register before the job can run
	waiter, err := c.table.Register(id)
	if err != nil {
		return nil, ErrNotSent.Wrap(err)
	}
	defer waiter.Close()

	// Enqueue
	if _, err := c.spawn(ctx, channel, ExecutorHTTPResponse, id, req, config); err != nil {
		c.table.Forget(id)
		return nil, err
	}

	// Wait for the response
	resp, err := waiter.Wait(ctx)
	if err != nil && !errors.Is(err, ErrNotAccepted) {
		return nil, ErrNotAccepted.Wrap(err)
	}
	return resp, err
}

// spawn enqueues a job with the identifier, retrying on transient conflicts
func (c *Client) spawn(ctx context.Context, channel, executor string, id uuid.UUID, req *request.Request, config JobConfig) (uuid.UUID, error) {
	if req == nil {
		return uuid.Nil, ErrMissingRequest
	} else if config.Backoff < 0 || config.Delay < 0 {
		return uuid.Nil, ErrBadParameter.With("negative duration in job config")
	}

	// Encode the request
	payload, err := req.Encode()
	if err != nil {
		return uuid.Nil, ErrMissingRequest.Wrap(err)
	}

	meta := schema.TaskMeta{
		Id:       id,
		Executor: executor,
		Payload:  json.RawMessage(payload),
		Ordered:  config.Ordered,
	}
	if config.Retries > 0 {
		meta.Retries = &config.Retries
	}
	if config.Backoff > 0 {
		meta.RetryDelay = &config.Backoff
	}

	// Insert, retrying while the insert conflicts
	id, err = retryingSpawn(ctx, func(ctx context.Context) (uuid.UUID, error) {
		if config.Delay > 0 {
			delayedAt := time.Now().Add(config.Delay)
			meta.DelayedAt = &delayedAt
		}
		return c.createTask(ctx, channel, meta)
	})
	if err != nil {
		return uuid.Nil, ErrNotSent.Wrap(err)
	}
	return id, nil
}

// createTask creates the channel if it has not been seen before, and then
// inserts the job
func (c *Client) createTask(ctx context.Context, channel string, meta schema.TaskMeta) (uuid.UUID, error) {
	if err := c.ensureChannel(ctx, channel); err != nil {
		return uuid.Nil, err
	}
	task, err := c.manager.CreateTask(ctx, channel, meta)
	if errors.Is(err, pg.ErrNotFound) {
		// The channel was deleted after it was seen
		c.forgetChannel(channel)
		if err := c.ensureChannel(ctx, channel); err != nil {
			return uuid.Nil, err
		}
		task, err = c.manager.CreateTask(ctx, channel, meta)
	}
	if err != nil {
		return uuid.Nil, err
	}
	return task.Id, nil
}

func (c *Client) ensureChannel(ctx context.Context, channel string) error {
	c.Lock()
	_, exists := c.channels[channel]
	c.Unlock()
	if exists {
		return nil
	}
	if _, err := c.manager.EnsureQueue(ctx, channel); err != nil {
		return err
	}
	c.Lock()
	c.channels[channel] = struct{}{}
	c.Unlock()
	return nil
}

func (c *Client) forgetChannel(channel string) {
	c.Lock()
	defer c.Unlock()
	delete(c.channels, channel)
}
