package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrMalformedDay is returned when a day yields no parseable draw values.
	ErrMalformedDay = errors.New("malformed day: no draw values")

	// ErrInvalidConfiguration is returned when simulation parameters are rejected.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// MalformedDayError reports a day that contributes no events.
type MalformedDayError struct {
	Date time.Time
}

func (e *MalformedDayError) Error() string {
	return fmt.Sprintf("malformed day %s: no draw values", e.Date.Format(DateLayout))
}

func (e *MalformedDayError) Unwrap() error {
	return ErrMalformedDay
}

// InvalidConfigurationError describes one rejected configuration field.
type InvalidConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

func invalid(field string, value any, reason string) error {
	return &InvalidConfigurationError{Field: field, Value: value, Reason: reason}
}
