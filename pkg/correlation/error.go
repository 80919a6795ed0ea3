package correlation

import (
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type Err int

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	ErrSuccess Err = iota
	ErrMissingSender
	ErrMissingReceiver
	ErrDuplicate
	ErrRejected
	ErrUnavailable
)

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (e Err) Error() string {
	switch e {
	case ErrSuccess:
		return "success"
	case ErrMissingSender:
		return "no waiter registered"
	case ErrMissingReceiver:
		return "waiter abandoned"
	case ErrDuplicate:
		return "waiter already registered"
	case ErrRejected:
		return "rejected"
	case ErrUnavailable:
		return "table unavailable"
	}
	return fmt.Sprintf("error code %d", int(e))
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (e Err) With(args ...any) error {
	return fmt.Errorf("%w: %s", e, fmt.Sprint(args...))
}

func (e Err) Withf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", e, fmt.Sprintf(format, args...))
}
