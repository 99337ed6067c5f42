package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a group, session, student or payment
// reference does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an operation would violate uniqueness or
// would destroy rows that still have history attached.
var ErrConflict = errors.New("conflict")

// ErrCapacityExceeded is returned when an admit would push a group past its
// capacity. The caller may retry as a waitlist registration.
var ErrCapacityExceeded = errors.New("group capacity exceeded")

// ErrForbidden is returned when an instructor touches a group they are not
// assigned to.
var ErrForbidden = errors.New("forbidden")

// ValidationError reports a missing or malformed request field. Nothing is
// persisted when one is returned.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func Validation(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
