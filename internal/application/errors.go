package application

import "errors"

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidWindow is returned when a time window is incomplete or does not start before it ends.
	ErrInvalidWindow = errors.New("application: invalid time window")
	// ErrAlreadyRegistered is returned when the user already holds the commitment being added.
	ErrAlreadyRegistered = errors.New("application: already registered")
	// ErrEventNotFound is returned when the referenced catalog event does not exist.
	ErrEventNotFound = errors.New("application: event not found")
	// ErrStorageUnavailable wraps failures of the underlying stores.
	ErrStorageUnavailable = errors.New("application: storage unavailable")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
