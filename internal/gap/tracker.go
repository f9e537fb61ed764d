// Package gap tracks the cold streak: consecutive counted non-repeat events.
package gap

import (
	"sort"

	"drawgap-lab/internal/domain"
)

// Tracker holds the current gap and the append-only history of completed gaps.
// Not safe for concurrent use; each simulation owns its own Tracker.
type Tracker struct {
	current int
	history []domain.CompletedGap
}

// NewTracker creates a tracker with gap 0 and empty history.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record applies one event. Events not counting toward the gap are ignored.
// A counted repeat closes the current gap; the completed gap is returned with ok=true.
func (t *Tracker) Record(ev *domain.OutcomeEvent) (completed domain.CompletedGap, ok bool) {
	if !ev.CountsTowardGap {
		return domain.CompletedGap{}, false
	}
	if !ev.IsRepeat {
		t.current++
		return domain.CompletedGap{}, false
	}

	values := make([]string, 0, len(ev.PriorValues)+1)
	values = append(values, ev.PriorValues...)
	values = append(values, ev.Value)

	completed = domain.CompletedGap{
		Length:      t.current,
		EndDate:     ev.Date,
		EndSequence: ev.SequenceIndex,
		Values:      values,
	}
	t.history = append(t.history, completed)
	t.current = 0
	return completed, true
}

// Current returns the current gap length.
func (t *Tracker) Current() int {
	return t.current
}

// Count returns the number of completed gaps.
func (t *Tracker) Count() int {
	return len(t.history)
}

// History returns a copy of completed gaps in completion order.
func (t *Tracker) History() []domain.CompletedGap {
	out := make([]domain.CompletedGap, len(t.history))
	copy(out, t.history)
	return out
}

// Lengths returns completed gap lengths in completion order.
func (t *Tracker) Lengths() []int {
	out := make([]int, len(t.history))
	for i, g := range t.history {
		out[i] = g.Length
	}
	return out
}

// Longest returns up to n completed gaps, longest first.
// Ties keep completion order.
func (t *Tracker) Longest(n int) []domain.CompletedGap {
	if n <= 0 {
		return nil
	}
	out := t.History()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Length > out[j].Length
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
