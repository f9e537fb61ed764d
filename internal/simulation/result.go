package simulation

import (
	"drawgap-lab/internal/domain"
)

// Result is the terminal output of one simulation run.
type Result struct {
	RunID  string
	Config domain.SimulationConfig

	// Equity
	StartingEquity float64
	FinalEquity    float64
	Peak           float64
	Trough         float64
	MaxDrawdown    float64
	TotalCost      float64
	TotalPayout    float64
	GrossProfit    float64
	GrossLoss      float64
	ProfitFactor   float64

	// Sessions
	SessionsOpened      int
	Wins                int
	StopLosses          int
	SkippedWins         int
	Busted              bool
	MaxConsecutiveStops int
	AvgStepsToWin       float64

	// Stream
	EventCount        int
	EligibleCount     int
	DayCount          int
	CompletedGapCount int
	FinalGap          int
	FinalThreshold    int // entry threshold after the last event, -1 when unreachable
	LongestGaps       []domain.CompletedGap

	TradeLog    []*domain.TradeRecord
	DailyEquity []domain.EquityPoint
}

// NetProfit is final minus starting equity.
func (r *Result) NetProfit() float64 {
	return r.FinalEquity - r.StartingEquity
}

// WinRate is wins over closed sessions, 0 when none closed.
func (r *Result) WinRate() float64 {
	closed := r.Wins + r.StopLosses
	if closed == 0 {
		return 0
	}
	return float64(r.Wins) / float64(closed)
}
