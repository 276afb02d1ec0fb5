package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrConflict is returned when a conflict-guarded insert or update loses
	// to an overlapping confirmed booking.
	ErrConflict = errors.New("persistence: booking conflict")
)
