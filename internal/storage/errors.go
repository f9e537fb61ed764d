package storage

import "errors"

// Sentinel errors shared by every DrawDayStore. Drivers map their own
// errors onto these so callers can use errors.Is regardless of backend.
var (
	// ErrNotFound is returned when no day is stored for the requested date.
	ErrNotFound = errors.New("storage: draw day not found")

	// ErrDuplicateKey is returned when a day is inserted for a date that is
	// already stored. Draw days are append-only.
	ErrDuplicateKey = errors.New("storage: draw day already stored")

	// ErrInvalidInput is returned for nil days or days without a date.
	ErrInvalidInput = errors.New("storage: invalid draw day")
)
