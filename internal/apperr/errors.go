// Package apperr defines the error kinds shared by the stores, services, and
// HTTP handlers. Kinds are sentinels so callers match them with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation_error")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidReference   = errors.New("invalid_reference")
	ErrUnavailable        = errors.New("unavailable")
)

// OpError carries the failing operation and a human-readable message next to
// its kind. Msg must never contain secrets.
type OpError struct {
	Op   string
	Kind error
	Msg  string
}

func (e OpError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

func (e OpError) Unwrap() error { return e.Kind }

// ConflictError reports a uniqueness violation on a logical field
// ("username", "email").
type ConflictError struct {
	Op    string
	Field string
}

func (e ConflictError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Op, ErrConflict)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrConflict, e.Field)
}

func (e ConflictError) Unwrap() error { return ErrConflict }

func Validation(op, msg string) error {
	return OpError{Op: op, Kind: ErrValidation, Msg: msg}
}

func NotFound(op, resource string) error {
	return OpError{Op: op, Kind: ErrNotFound, Msg: resource}
}

// Kind returns the sentinel kind of err, or nil when err is not a domain error.
func Kind(err error) error {
	for _, k := range []error{
		ErrValidation,
		ErrConflict,
		ErrInvalidCredentials,
		ErrUnauthorized,
		ErrForbidden,
		ErrNotFound,
		ErrInvalidReference,
		ErrUnavailable,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Message is the client-facing text for a kind. Internal errors get a
// generic message; the cause belongs in the logs.
func Message(err error) string {
	var ce ConflictError
	if errors.As(err, &ce) {
		if ce.Field != "" {
			return ce.Field + " already exists"
		}
		return "username or email already exists"
	}
	var oe OpError
	if errors.As(err, &oe) && oe.Msg != "" && oe.Kind != ErrNotFound {
		return oe.Msg
	}
	switch Kind(err) {
	case ErrValidation:
		return "invalid request"
	case ErrInvalidCredentials:
		return "invalid username or password"
	case ErrUnauthorized:
		return "authentication required"
	case ErrForbidden:
		return "access denied"
	case ErrNotFound:
		return "not found"
	case ErrInvalidReference:
		return "referenced account does not exist"
	case ErrUnavailable:
		return "service unavailable"
	default:
		return "internal server error"
	}
}
