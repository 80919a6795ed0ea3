package request

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
	ErrUnsupportedVersion
)

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (e Err) Error() string {
	switch e {
	case ErrSuccess:
		return "success"
	case ErrBadParameter:
		return "bad parameter"
	case ErrUnsupportedVersion:
		return "unsupported payload version"
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
