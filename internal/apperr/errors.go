// Package apperr defines the error taxonomy shared by the coordinators,
// the storage backends and the HTTP handlers. Sentinel values let higher
// layers distinguish failure scenarios with errors.Is, while the typed
// errors carry the detail a caller needs to report the failed action.
package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a document does not exist.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate it into an HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict signals that an operation cannot proceed because of the
// current state of a resource. Handlers translate it into an HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already exists")

// ValidationError reports missing or invalid input detected before any
// side effect. It is never the result of a backend call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// Invalid builds a ValidationError for field.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Required builds the common "is required" ValidationError.
func Required(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "is required"}
}

// BackendError wraps a failure returned by a store, broker or identity
// provider. Error returns the backend message unmodified so it can be
// surfaced to the user as-is; Op names the action that failed.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return e.Err.Error()
}

func (e *BackendError) Unwrap() error { return e.Err }

// Backend wraps err as a BackendError for op. A nil err yields nil, and an
// err that already is a BackendError is returned unchanged.
func Backend(op string, err error) error {
	if err == nil {
		return nil
	}
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return &BackendError{Op: op, Err: err}
}

// PartialBookingFailure records a table that could not be marked booked
// after its order was already saved. It is logged rather than returned as
// an overall failure.
type PartialBookingFailure struct {
	CafeID  string
	TableID string
	Err     error
}

func (e *PartialBookingFailure) Error() string {
	return fmt.Sprintf("booking table %s in cafe %s: %v", e.TableID, e.CafeID, e.Err)
}

func (e *PartialBookingFailure) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Message returns the text to show a user for err: the backend message for
// a BackendError, the reason for a ValidationError, otherwise err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.Error()
	}
	return err.Error()
}
