package requeue

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
	ErrBadParameter
	ErrMissingRequest
	ErrNotSent
	ErrNotAccepted
	ErrUndelivered
)

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (e Err) Error() string {
	switch e {
	case ErrSuccess:
		return "success"
	case ErrBadParameter:
		return "bad parameter"
	case ErrMissingRequest:
		return "missing or malformed request"
	case ErrNotSent:
		return "request not sent"
	case ErrNotAccepted:
		return "response not accepted"
	case ErrUndelivered:
		return "response not delivered"
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

// Wrap returns err with the error code in its chain, or nil if err is nil
func (e Err) Wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", e, err)
}
