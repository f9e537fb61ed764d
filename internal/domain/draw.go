package domain

import "time"

// DrawDay is one calendar day of draw results in draw order.
// Immutable once loaded.
type DrawDay struct {
	Date   time.Time // calendar date (UTC midnight)
	Values []string  // draw values in sequence order, 0-4 in practice
}

// DateKey returns the YYYY-MM-DD form of the day's date.
func (d *DrawDay) DateKey() string {
	return d.Date.Format(DateLayout)
}

// DateLayout is the canonical calendar date format.
const DateLayout = "2006-01-02"

// OutcomeEvent is one draw within a day, annotated for the wager engine.
// Events are totally ordered by (Date, SequenceIndex).
type OutcomeEvent struct {
	Date          time.Time
	SequenceIndex int    // 1-based position within the day
	Value         string // observed draw value

	// PriorValues holds the distinct values drawn earlier the same day,
	// in first-seen order. Empty for the first event of a day.
	PriorValues []string

	IsRepeat        bool // Value is in PriorValues
	IsWagerEligible bool // may be bet on
	CountsTowardGap bool // participates in gap accounting
}

// TargetsCount is the number of distinct values a wager on this event must cover.
func (e *OutcomeEvent) TargetsCount() int {
	return len(e.PriorValues)
}

// CompletedGap is a cold streak closed by a counted repeat.
type CompletedGap struct {
	Length      int       // gap value before reset
	EndDate     time.Time // date of the repeat that ended it
	EndSequence int       // sequence index of the repeat
	Values      []string  // the day's draws up to and including the repeat
}
