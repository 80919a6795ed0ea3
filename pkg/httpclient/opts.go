package httpclient

import (
	"fmt"
	"net/url"
	"time"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type opt struct {
	url.Values
}

// Opt is an option to set on the client request.
type Opt func(*opt) error

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func applyOpts(opts ...Opt) (*opt, error) {
	o := new(opt)
	o.Values = make(url.Values)
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithOffsetLimit sets offset and limit query parameters.
func WithOffsetLimit(offset uint64, limit *uint64) Opt {
	return func(o *opt) error {
		if offset > 0 {
			o.Set("offset", fmt.Sprint(offset))
		}
		if limit != nil {
			o.Set("limit", fmt.Sprint(*limit))
		}
		return nil
	}
}

// WithChannel sets the channel query parameter.
func WithChannel(channel string) Opt {
	return func(o *opt) error {
		if channel != "" {
			o.Set("channel", channel)
		}
		return nil
	}
}

// WithStatus sets the status query parameter.
func WithStatus(status string) Opt {
	return func(o *opt) error {
		if status != "" {
			o.Set("status", status)
		}
		return nil
	}
}

// WithWait sets the time to wait for a response to a request.
func WithWait(wait time.Duration) Opt {
	return func(o *opt) error {
		if wait < 0 {
			return fmt.Errorf("negative wait: %v", wait)
		} else if wait > 0 {
			o.Set("wait", wait.String())
		}
		return nil
	}
}
