package services

import "errors"

// ErrForbidden is returned when an authenticated caller operates on a
// resource owned by someone else.
var ErrForbidden = errors.New("not authorized")

// ValidationError reports a missing or malformed client-supplied field.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(reason string) error {
	return &ValidationError{Reason: reason}
}
