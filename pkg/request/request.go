package request

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Request is an immutable description of an outbound HTTP request and the
// status codes which count as delivered. It carries everything needed to
// replay it from a queued payload.
type Request struct {
	method  string
	url     *url.URL
	headers []Header
	body    []byte
	accept  Accept
}

// Header is one name/value pair. Request headers keep their order and
// may repeat a name.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

var methods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodDelete, http.MethodOptions, http.MethodTrace, http.MethodConnect,
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a request for any method. The URL must be absolute.
func New(method, rawurl string, opts ...Opt) (*Request, error) {
	r := new(Request)

	// Method
	r.method = strings.ToUpper(strings.TrimSpace(method))
	if r.method == "" {
		r.method = http.MethodGet
	} else if !slices.Contains(methods, r.method) {
		return nil, ErrBadParameter.Withf("unsupported method %q", method)
	}

	// URL
	if u, err := parseURL(rawurl); err != nil {
		return nil, err
	} else {
		r.url = u
	}

	// Options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	// Policy
	r.accept = NewAccept(r.accept...)
	if err := r.accept.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

func Get(url string, opts ...Opt) (*Request, error) {
	return New(http.MethodGet, url, opts...)
}

func Head(url string, opts ...Opt) (*Request, error) {
	return New(http.MethodHead, url, opts...)
}

// Delete returns a DELETE request. A body may be set with WithBody.
func Delete(url string, opts ...Opt) (*Request, error) {
	return New(http.MethodDelete, url, opts...)
}

func Put(url string, body []byte, opts ...Opt) (*Request, error) {
	return New(http.MethodPut, url, append([]Opt{WithBody(body)}, opts...)...)
}

func Post(url string, body []byte, opts ...Opt) (*Request, error) {
	return New(http.MethodPost, url, append([]Opt{WithBody(body)}, opts...)...)
}

// FromHTTP converts an outbound net/http request, reading and closing its
// body. Header names are ordered alphabetically since http.Header has no
// order of its own.
func FromHTTP(req *http.Request) (*Request, error) {
	if req == nil || req.URL == nil {
		return nil, ErrBadParameter.With("missing request")
	}

	var body []byte
	if req.Body != nil && req.Body != http.NoBody {
		defer req.Body.Close()
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		body = data
	}

	names := make([]string, 0, len(req.Header))
	for name := range req.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	opts := make([]Opt, 0, len(names)+1)
	for _, name := range names {
		for _, value := range req.Header[name] {
			opts = append(opts, WithHeader(name, value))
		}
	}
	opts = append(opts, WithBody(body))

	return New(req.Method, req.URL.String(), opts...)
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (r *Request) String() string {
	return r.method + " " + r.url.String()
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (r *Request) Method() string {
	return r.method
}

// URL returns a copy of the request URL
func (r *Request) URL() *url.URL {
	u := *r.url
	return &u
}

// Headers returns a copy of the ordered headers
func (r *Request) Headers() []Header {
	return slices.Clone(r.headers)
}

// Header returns the headers as an http.Header
func (r *Request) Header() http.Header {
	h := make(http.Header, len(r.headers))
	for _, v := range r.headers {
		h.Add(v.Name, v.Value)
	}
	return h
}

// Body returns a copy of the body, or nil when there is none
func (r *Request) Body() []byte {
	return bytes.Clone(r.body)
}

// Accept returns the acceptance policy
func (r *Request) Accept() Accept {
	return slices.Clone(r.accept)
}

// Accepts reports whether a response with this status completes the request
func (r *Request) Accepts(status int) bool {
	return r.accept.Accepts(status)
}

// Equal reports whether two requests describe the same call and policy
func (r *Request) Equal(other *Request) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.method == other.method &&
		r.url.String() == other.url.String() &&
		slices.Equal(r.headers, other.headers) &&
		bytes.Equal(r.body, other.body) &&
		slices.Equal(r.accept, other.accept)
}

// HTTPRequest builds the outbound request with headers in their stored
// order. A Host header overrides the host sent on the wire.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, r.url.String(), body)
	if err != nil {
		return nil, err
	}
	for _, h := range r.headers {
		if strings.EqualFold(h.Name, "Host") {
			req.Host = h.Value
		} else {
			req.Header.Add(h.Name, h.Value)
		}
	}
	return req, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func parseURL(rawurl string) (*url.URL, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, ErrBadParameter.With(err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, ErrBadParameter.Withf("url %q is not absolute", rawurl)
	}
	return u, nil
}
