package request

import (
	// Packages
	json "github.com/goccy/go-json"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// payload is the stored form of a Request. Fields are only ever added,
// and older payloads decode with the defaults below.
type payload struct {
	Version int                `json:"version,omitempty"`
	Method  string             `json:"method,omitempty"`
	URL     string             `json:"url"`
	Headers []Header           `json:"headers,omitempty"`
	Body    []byte             `json:"body,omitempty"`
	Accept  []AcceptedResponse `json:"accept,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Version is the payload version written by Encode
const Version = 1

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Decode returns a request from a stored payload. A missing version means
// version 1, a missing method means GET and a missing or empty policy
// means DefaultAccept. Unknown fields are ignored.
func Decode(data []byte) (*Request, error) {
	r := new(Request)
	if err := r.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return r, nil
}

// Encode returns the stored payload for the request
func (r *Request) Encode() ([]byte, error) {
	return r.MarshalJSON()
}

func (r *Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(payload{
		Version: Version,
		Method:  r.method,
		URL:     r.url.String(),
		Headers: r.headers,
		Body:    r.body,
		Accept:  r.accept,
	})
}

func (r *Request) UnmarshalJSON(data []byte) error {
	var v payload
	if err := json.Unmarshal(data, &v); err != nil {
		return ErrBadParameter.With(err)
	}
	if v.Version > Version {
		return ErrUnsupportedVersion.Withf("version %d", v.Version)
	}

	opts := make([]Opt, 0, len(v.Headers)+2)
	for _, h := range v.Headers {
		opts = append(opts, WithHeader(h.Name, h.Value))
	}
	opts = append(opts, WithBody(v.Body), WithAccept(v.Accept...))

	req, err := New(v.Method, v.URL, opts...)
	if err != nil {
		return err
	}
	*r = *req
	return nil
}
