package domain

import "time"

// Outcome classifies what happened on a logged event.
type Outcome string

// Outcome constants.
const (
	OutcomeNone    Outcome = ""
	OutcomeWin     Outcome = "WIN"
	OutcomeLoss    Outcome = "LOSS"
	OutcomeStop    Outcome = "STOP"
	OutcomeSkipped Outcome = "SKIPPED" // session abandoned on an ineligible repeat
	OutcomeBust    Outcome = "BUST"    // step cost exceeded the bankroll

	OutcomeCooldownReset Outcome = "COOLDOWN_RESET"
	OutcomeCooldownEnd   Outcome = "COOLDOWN_END"
)

// ClosesSession reports whether the outcome ends an open session.
func (o Outcome) ClosesSession() bool {
	switch o {
	case OutcomeWin, OutcomeStop, OutcomeSkipped, OutcomeBust:
		return true
	default:
		return false
	}
}

// TradeRecord is one row of the per-event trade log.
// Step and Stake are the values wagered on this event; Gap is the
// gap after the event resolved.
type TradeRecord struct {
	Date          time.Time
	SequenceIndex int
	Value         string
	Gap           int

	Step    int     // ladder step wagered (0 when nothing was wagered)
	Stake   float64 // per-target stake wagered
	Targets int     // distinct values covered
	Cost    float64 // Stake * Targets
	Payout  float64 // Stake * PayoutOdds on a win, else 0
	PnL     float64 // Payout - Cost
	Equity  float64 // equity (or bankroll) after the event

	Outcome Outcome
	Note    string
}

// EquityPoint is equity at the close of a day.
type EquityPoint struct {
	Date   time.Time
	Equity float64
}
