// Package replay delivers outcome events to engines in (date, sequence
// index) order.
package replay

import (
	"context"
	"errors"

	"drawgap-lab/internal/domain"
)

// ErrInvalidOrdering is returned when an event sequence is not strictly
// increasing by (date, sequence index).
var ErrInvalidOrdering = errors.New("replay: events out of (date, sequence index) order")

// ReplayEngine consumes one event at a time.
type ReplayEngine interface {
	// OnEvent receives events strictly ordered by (date, sequence index).
	OnEvent(ctx context.Context, event *domain.OutcomeEvent) error
}
