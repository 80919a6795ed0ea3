package request

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Response is a delivered response with its body read into memory.
// Truncated is set when the body was longer than the read limit, and
// Body holds only its first bytes.
type Response struct {
	Status    int         `json:"status"`
	Header    http.Header `json:"header,omitempty"`
	Body      []byte      `json:"body,omitempty"`
	Truncated bool        `json:"truncated,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// ReadResponse reads and closes the response body. When max is positive
// at most max bytes of body are kept, and a longer body sets Truncated.
func ReadResponse(resp *http.Response, max int64) (*Response, error) {
	defer resp.Body.Close()

	// Read one byte past the limit to detect a longer body
	var reader io.Reader = resp.Body
	if max > 0 {
		reader = io.LimitReader(resp.Body, max+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	var truncated bool
	if max > 0 && int64(len(body)) > max {
		body, truncated = body[:max], true
	}
	if len(body) == 0 {
		body = nil
	}

	return &Response{
		Status:    resp.StatusCode,
		Header:    resp.Header.Clone(),
		Body:      body,
		Truncated: truncated,
	}, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// HTTP returns the response as a net/http response
func (r *Response) HTTP() *http.Response {
	header := r.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		Status:        strconv.Itoa(r.Status) + " " + http.StatusText(r.Status),
		StatusCode:    r.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
	}
}
