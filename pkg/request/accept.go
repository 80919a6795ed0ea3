package request

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	// Packages
	json "github.com/goccy/go-json"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Kind is the category of an AcceptedResponse
type Kind uint8

// AcceptedResponse matches a set of status codes. Category kinds match a
// hundred-wide band; Single and Range match [Min, Max] inclusive.
type AcceptedResponse struct {
	Kind Kind
	Min  int
	Max  int
}

// Accept is a de-duplicated, sorted set of AcceptedResponse values. A
// status is accepted when any member matches.
type Accept []AcceptedResponse

type acceptedResponseJSON struct {
	Kind string `json:"kind"`
	Code *int   `json:"code,omitempty"`
	Min  *int   `json:"min,omitempty"`
	Max  *int   `json:"max,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	KindInformational Kind = iota + 1
	KindSuccess
	KindRedirection
	KindClientError
	KindServerError
	KindSingle
	KindRange
)

const (
	minStatus = 100
	maxStatus = 999
)

var (
	Informational = AcceptedResponse{Kind: KindInformational, Min: 100, Max: 199}
	Success       = AcceptedResponse{Kind: KindSuccess, Min: 200, Max: 299}
	Redirection   = AcceptedResponse{Kind: KindRedirection, Min: 300, Max: 399}
	ClientError   = AcceptedResponse{Kind: KindClientError, Min: 400, Max: 499}
	ServerError   = AcceptedResponse{Kind: KindServerError, Min: 500, Max: 599}
)

// DefaultAccept accepts 2xx responses only
var DefaultAccept = Accept{Success}

var kindNames = map[Kind]string{
	KindInformational: "informational",
	KindSuccess:       "success",
	KindRedirection:   "redirection",
	KindClientError:   "client_error",
	KindServerError:   "server_error",
	KindSingle:        "single",
	KindRange:         "range",
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Single accepts exactly one status code
func Single(code int) AcceptedResponse {
	return AcceptedResponse{Kind: KindSingle, Min: code, Max: code}
}

// Range accepts status codes from min to max inclusive. A range with
// min > max fails validation when attached to a request.
func Range(min, max int) AcceptedResponse {
	return AcceptedResponse{Kind: KindRange, Min: min, Max: max}
}

// NewAccept returns a sorted set without duplicates. An empty set is
// replaced with DefaultAccept.
func NewAccept(v ...AcceptedResponse) Accept {
	if len(v) == 0 {
		return slices.Clone(DefaultAccept)
	}
	set := slices.Clone(v)
	slices.SortFunc(set, compare)
	return slices.CompactFunc(set, func(a, b AcceptedResponse) bool {
		return compare(a, b) == 0
	})
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (a AcceptedResponse) String() string {
	switch a.Kind {
	case KindSingle:
		return fmt.Sprint(a.Min)
	case KindRange:
		return fmt.Sprintf("%d-%d", a.Min, a.Max)
	default:
		return a.Kind.String()
	}
}

func (a Accept) String() string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = v.String()
	}
	return strings.Join(parts, ",")
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Accepts reports whether status is matched
func (a AcceptedResponse) Accepts(status int) bool {
	return status >= a.Min && status <= a.Max
}

// Validate checks the kind and the bounds
func (a AcceptedResponse) Validate() error {
	switch a.Kind {
	case KindInformational, KindSuccess, KindRedirection, KindClientError, KindServerError:
		if a != category(a.Kind) {
			return ErrBadParameter.Withf("%v: unexpected bounds %d-%d", a.Kind, a.Min, a.Max)
		}
	case KindSingle:
		if a.Min != a.Max || a.Min < minStatus || a.Min > maxStatus {
			return ErrBadParameter.Withf("invalid status code %d", a.Min)
		}
	case KindRange:
		if a.Min > a.Max {
			return ErrBadParameter.Withf("invalid range %d-%d", a.Min, a.Max)
		}
	default:
		return ErrBadParameter.Withf("unknown acceptance kind %v", a.Kind)
	}
	return nil
}

// Accepts reports whether any member matches status
func (a Accept) Accepts(status int) bool {
	return slices.ContainsFunc(a, func(v AcceptedResponse) bool {
		return v.Accepts(status)
	})
}

// Validate returns the first invalid member
func (a Accept) Validate() error {
	for _, v := range a {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// JSON

func (a AcceptedResponse) MarshalJSON() ([]byte, error) {
	v := acceptedResponseJSON{Kind: a.Kind.String()}
	switch a.Kind {
	case KindSingle:
		v.Code = &a.Min
	case KindRange:
		v.Min, v.Max = &a.Min, &a.Max
	}
	return json.Marshal(v)
}

func (a *AcceptedResponse) UnmarshalJSON(data []byte) error {
	var v acceptedResponseJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	var kind Kind
	for k, name := range kindNames {
		if name == v.Kind {
			kind = k
		}
	}
	switch kind {
	case KindSingle:
		if v.Code == nil {
			return ErrBadParameter.With("single: missing code")
		}
		*a = Single(*v.Code)
	case KindRange:
		if v.Min == nil || v.Max == nil {
			return ErrBadParameter.With("range: missing bounds")
		}
		*a = Range(*v.Min, *v.Max)
	case 0:
		return ErrBadParameter.Withf("unknown acceptance kind %q", v.Kind)
	default:
		*a = category(kind)
	}
	return a.Validate()
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func category(k Kind) AcceptedResponse {
	switch k {
	case KindInformational:
		return Informational
	case KindSuccess:
		return Success
	case KindRedirection:
		return Redirection
	case KindClientError:
		return ClientError
	case KindServerError:
		return ServerError
	}
	return AcceptedResponse{Kind: k}
}

func compare(a, b AcceptedResponse) int {
	return cmp.Or(
		cmp.Compare(a.Kind, b.Kind),
		cmp.Compare(a.Min, b.Min),
		cmp.Compare(a.Max, b.Max),
	)
}
