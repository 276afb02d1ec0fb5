package application

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrForbidden is returned when the caller does not own the resource it is acting on.
	ErrForbidden = errors.New("application: forbidden")
	// ErrAlreadyExists is returned when a uniqueness rule rejects a write.
	ErrAlreadyExists = errors.New("application: already exists")
)

// NotFoundError names the entity a lookup failed to find. It satisfies
// errors.Is(err, ErrNotFound) so callers can keep matching the sentinel.
type NotFoundError struct {
	Resource string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e == nil || e.Resource == "" {
		return "resource not found"
	}
	return e.Resource + " not found"
}

// Is reports whether target is the not-found sentinel.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError reports why a requested time cannot be booked.
type ConflictError struct {
	Reason string
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil || c.Reason == "" {
		return "booking conflict"
	}
	return c.Reason
}

// InvalidStateError reports an operation applied to a resource whose current
// state forbids it, such as cancelling a booking twice.
type InvalidStateError struct {
	Reason string
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	if e == nil || e.Reason == "" {
		return "invalid state"
	}
	return e.Reason
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
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
