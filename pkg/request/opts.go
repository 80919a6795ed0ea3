package request

import (
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	// Packages
	httpguts "golang.org/x/net/http/httpguts"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt sets a field while a request is built
type Opt func(*Request) error

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// WithHeader appends a header, keeping any existing values for the name.
// The name must be a valid token, and the value valid UTF-8 without
// control characters, so that the stored payload replays byte for byte.
func WithHeader(name, value string) Opt {
	return func(r *Request) error {
		name = strings.TrimSpace(name)
		if !httpguts.ValidHeaderFieldName(name) {
			return ErrBadParameter.Withf("invalid header name %q", name)
		}
		if !httpguts.ValidHeaderFieldValue(value) || !utf8.ValidString(value) {
			return ErrBadParameter.Withf("invalid value for header %q", name)
		}
		r.headers = append(r.headers, Header{Name: name, Value: value})
		return nil
	}
}

// WithHeaders appends every value in h, names in alphabetical order
func WithHeaders(h http.Header) Opt {
	return func(r *Request) error {
		names := make([]string, 0, len(h))
		for name := range h {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, value := range h[name] {
				if err := WithHeader(name, value)(r); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

// WithBody sets the body. An empty body is the same as no body.
func WithBody(body []byte) Opt {
	return func(r *Request) error {
		if len(body) == 0 {
			r.body = nil
		} else {
			r.body = append([]byte(nil), body...)
		}
		return nil
	}
}

// WithAccept sets the acceptance policy, replacing the default. Without it
// a request accepts 2xx responses only.
func WithAccept(v ...AcceptedResponse) Opt {
	return func(r *Request) error {
		r.accept = append(r.accept, v...)
		return nil
	}
}
