package replay

import (
	"context"
	"time"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/storage"
	"drawgap-lab/internal/stream"
)

// Summary describes one replay.
type Summary struct {
	Days    int                         // days loaded
	Events  int                         // events delivered to the engine
	Skipped []*domain.MalformedDayError // days that produced no events
}

// Runner loads draw days from storage and replays them in deterministic order.
type Runner struct {
	dayStore storage.DrawDayStore
}

// NewRunner creates a new replay runner.
func NewRunner(dayStore storage.DrawDayStore) *Runner {
	return &Runner{dayStore: dayStore}
}

// Run loads days within [from, to] and replays their events through the engine.
func (r *Runner) Run(ctx context.Context, from, to time.Time, policy stream.Policy, engine ReplayEngine) (*Summary, error) {
	days, err := r.dayStore.GetByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return replayDays(ctx, days, policy, engine)
}

// RunAll loads all days and replays their events through the engine.
func (r *Runner) RunAll(ctx context.Context, policy stream.Policy, engine ReplayEngine) (*Summary, error) {
	days, err := r.dayStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return replayDays(ctx, days, policy, engine)
}

// LoadEvents loads all days and builds the ordered event stream without replaying it.
func (r *Runner) LoadEvents(ctx context.Context, policy stream.Policy) ([]*domain.OutcomeEvent, *Summary, error) {
	days, err := r.dayStore.GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	events, summary := buildEvents(days, policy)
	return events, summary, nil
}

func replayDays(ctx context.Context, days []*domain.DrawDay, policy stream.Policy, engine ReplayEngine) (*Summary, error) {
	events, summary := buildEvents(days, policy)
	if err := Replay(ctx, events, engine); err != nil {
		return nil, err
	}
	summary.Events = len(events)
	return summary, nil
}

func buildEvents(days []*domain.DrawDay, policy stream.Policy) ([]*domain.OutcomeEvent, *Summary) {
	values := make([]domain.DrawDay, len(days))
	for i, d := range days {
		values[i] = *d
	}
	SortDays(values)

	events, skipped := stream.Build(values, policy)
	return events, &Summary{Days: len(days), Events: len(events), Skipped: skipped}
}

// Replay validates ordering and feeds every event to the engine.
// Returns ErrInvalidOrdering before any event is delivered if events are out of order.
func Replay(ctx context.Context, events []*domain.OutcomeEvent, engine ReplayEngine) error {
	if err := ValidateOrder(events); err != nil {
		return err
	}
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := engine.OnEvent(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
