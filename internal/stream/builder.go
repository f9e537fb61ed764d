// Package stream turns daily draw rows into the ordered outcome event stream
// consumed by the simulation engine.
package stream

import (
	"errors"

	"drawgap-lab/internal/domain"
)

// Policy holds the per-event flags derived from configuration.
type Policy struct {
	// MinSequenceIndexToWager is the first 1-based race index that may be wagered on.
	MinSequenceIndexToWager int
	// FirstEventCountsTowardGap makes race 1 of each day part of gap accounting.
	FirstEventCountsTowardGap bool
}

// DefaultPolicy allows wagering from race 1 and counts every race toward the gap.
func DefaultPolicy() Policy {
	return Policy{MinSequenceIndexToWager: 1, FirstEventCountsTowardGap: true}
}

// PolicyFromConfig extracts the stream policy of a simulation config.
func PolicyFromConfig(cfg domain.SimulationConfig) Policy {
	return Policy{
		MinSequenceIndexToWager:   cfg.MinSequenceIndexToWager,
		FirstEventCountsTowardGap: cfg.FirstEventCountsTowardGap,
	}
}

// BuildDay converts one day into events in race order.
// Returns *domain.MalformedDayError when the day has no values.
func BuildDay(day domain.DrawDay, policy Policy) ([]*domain.OutcomeEvent, error) {
	if len(day.Values) == 0 {
		return nil, &domain.MalformedDayError{Date: day.Date}
	}

	minSeq := policy.MinSequenceIndexToWager
	if minSeq < 1 {
		minSeq = 1
	}

	events := make([]*domain.OutcomeEvent, 0, len(day.Values))
	seen := make(map[string]struct{}, len(day.Values))
	prior := make([]string, 0, len(day.Values))

	for i, value := range day.Values {
		seq := i + 1
		_, repeat := seen[value]

		priorCopy := make([]string, len(prior))
		copy(priorCopy, prior)

		events = append(events, &domain.OutcomeEvent{
			Date:            day.Date,
			SequenceIndex:   seq,
			Value:           value,
			PriorValues:     priorCopy,
			IsRepeat:        repeat,
			IsWagerEligible: seq >= minSeq,
			CountsTowardGap: seq > 1 || policy.FirstEventCountsTowardGap,
		})

		if !repeat {
			seen[value] = struct{}{}
			prior = append(prior, value)
		}
	}

	return events, nil
}

// Build converts days into one ordered event stream.
// Malformed days contribute no events and are returned alongside the stream.
// Days are expected in chronological order; ordering is not re-checked here.
func Build(days []domain.DrawDay, policy Policy) ([]*domain.OutcomeEvent, []*domain.MalformedDayError) {
	var (
		events  []*domain.OutcomeEvent
		skipped []*domain.MalformedDayError
	)

	for _, day := range days {
		dayEvents, err := BuildDay(day, policy)
		if err != nil {
			var mde *domain.MalformedDayError
			if errors.As(err, &mde) {
				skipped = append(skipped, mde)
			}
			continue
		}
		events = append(events, dayEvents...)
	}

	return events, skipped
}
