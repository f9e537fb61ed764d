package replay

import (
	"fmt"
	"sort"

	"drawgap-lab/internal/domain"
)

// SortDays orders days by date ascending. Days sharing a date keep their
// relative order.
func SortDays(days []domain.DrawDay) {
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
}

// SortEvents orders events by (date ASC, sequence_index ASC).
func SortEvents(events []*domain.OutcomeEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return compareEvents(events[i], events[j]) < 0
	})
}

// ValidateOrder checks that events are strictly increasing by
// (date, sequence_index). Duplicates are an ordering error.
func ValidateOrder(events []*domain.OutcomeEvent) error {
	for i := 1; i < len(events); i++ {
		if compareEvents(events[i-1], events[i]) >= 0 {
			return fmt.Errorf("%w: event %d (%s #%d) does not follow %s #%d",
				ErrInvalidOrdering, i,
				events[i].Date.Format(domain.DateLayout), events[i].SequenceIndex,
				events[i-1].Date.Format(domain.DateLayout), events[i-1].SequenceIndex)
		}
	}
	return nil
}

// compareEvents returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (date ASC, sequence_index ASC)
func compareEvents(a, b *domain.OutcomeEvent) int {
	if !a.Date.Equal(b.Date) {
		if a.Date.Before(b.Date) {
			return -1
		}
		return 1
	}
	if a.SequenceIndex != b.SequenceIndex {
		if a.SequenceIndex < b.SequenceIndex {
			return -1
		}
		return 1
	}
	return 0
}
