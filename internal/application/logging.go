package application

import "errors"

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	}

	var (
		vErr     *ValidationError
		conflict *ConflictError
		invalid  *InvalidStateError
	)
	switch {
	case errors.As(err, &vErr):
		return "validation"
	case errors.As(err, &conflict):
		return "conflict"
	case errors.As(err, &invalid):
		return "invalid_state"
	}

	return "unexpected"
}
