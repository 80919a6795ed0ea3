package pg

import (
	"errors"
	"fmt"

	// Packages
	pgx "github.com/jackc/pgx/v5"
	pgconn "github.com/jackc/pgx/v5/pgconn"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Err is an error code returned by the database layer.
type Err int

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	ErrSuccess Err = iota
	ErrNotFound
	ErrNotImplemented
	ErrBadParameter
	ErrNotAvailable
	ErrConflict
)

// PostgreSQL error codes which are mapped onto Err values
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeInvalidTextRep       = "22P02"
)

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (e Err) Error() string {
	switch e {
	case ErrSuccess:
		return "success"
	case ErrNotFound:
		return "not found"
	case ErrNotImplemented:
		return "not implemented"
	case ErrBadParameter:
		return "bad parameter"
	case ErrNotAvailable:
		return "not available"
	case ErrConflict:
		return "conflict"
	}
	return fmt.Sprintf("error code %d", int(e))
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// With returns the error with additional context
func (e Err) With(args ...any) error {
	return fmt.Errorf("%w: %s", e, fmt.Sprint(args...))
}

// Withf returns the error with additional formatted context
func (e Err) Withf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", e, fmt.Sprintf(format, args...))
}

// PgError returns the underlying PostgreSQL error and true, if there is one
func PgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// pgerror normalizes pgx errors into Err values. The original error is kept
// in the chain so the PostgreSQL error details can still be inspected.
func pgerror(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var e Err
	if errors.As(err, &e) {
		return err
	}
	if pgErr, ok := PgError(err); ok {
		switch pgErr.Code {
		case codeUniqueViolation, codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%w: %w", ErrConflict, err)
		case codeForeignKeyViolation, codeCheckViolation, codeInvalidTextRep:
			return fmt.Errorf("%w: %w", ErrBadParameter, err)
		}
	}
	return err
}
