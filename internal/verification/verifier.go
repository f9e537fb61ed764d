// Package verification checks simulation output: field-by-field trade log
// comparison, structural invariants over a result, and replay determinism.
package verification

import (
	"math"

	"drawgap-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between expected and actual values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // value from the reference run
	Actual   interface{} // value from the replayed run
}

// RecordResult contains the result of comparing one trade log entry.
type RecordResult struct {
	Index       int               // position in the trade log
	Match       bool              // true if all fields match
	Divergences []FieldDivergence // list of divergent fields
}

// VerificationReport contains results for a whole trade log comparison.
type VerificationReport struct {
	ExpectedRecords  int            // records in the reference log
	ActualRecords    int            // records in the replayed log
	MatchedRecords   int            // positions that matched exactly
	DivergentRecords int            // positions with divergences
	Results          []RecordResult // divergent positions only
}

// Match reports whether both logs are identical within tolerance.
func (r *VerificationReport) Match() bool {
	return r.ExpectedRecords == r.ActualRecords && r.DivergentRecords == 0
}

// CompareTradeLogs compares two trade logs position by position. Extra records
// on either side count as divergent.
func CompareTradeLogs(expected, actual []*domain.TradeRecord) *VerificationReport {
	report := &VerificationReport{
		ExpectedRecords: len(expected),
		ActualRecords:   len(actual),
	}

	n := len(expected)
	if len(actual) > n {
		n = len(actual)
	}

	for i := 0; i < n; i++ {
		var divergences []FieldDivergence
		switch {
		case i >= len(actual):
			divergences = []FieldDivergence{{Field: "Record", Expected: expected[i], Actual: nil}}
		case i >= len(expected):
			divergences = []FieldDivergence{{Field: "Record", Expected: nil, Actual: actual[i]}}
		default:
			divergences = CompareTradeRecords(expected[i], actual[i])
		}

		if len(divergences) == 0 {
			report.MatchedRecords++
			continue
		}
		report.DivergentRecords++
		report.Results = append(report.Results, RecordResult{Index: i, Divergences: divergences})
	}

	return report
}

// CompareTradeRecords compares two trade records and returns divergences.
// Uses FloatTolerance for float64 comparisons.
func CompareTradeRecords(expected, actual *domain.TradeRecord) []FieldDivergence {
	var divergences []FieldDivergence
	add := func(field string, e, a interface{}) {
		divergences = append(divergences, FieldDivergence{Field: field, Expected: e, Actual: a})
	}

	// Position in the stream must match exactly
	if !expected.Date.Equal(actual.Date) {
		add("Date", expected.Date, actual.Date)
	}
	if expected.SequenceIndex != actual.SequenceIndex {
		add("SequenceIndex", expected.SequenceIndex, actual.SequenceIndex)
	}
	if expected.Value != actual.Value {
		add("Value", expected.Value, actual.Value)
	}

	// Ladder state
	if expected.Gap != actual.Gap {
		add("Gap", expected.Gap, actual.Gap)
	}
	if expected.Step != actual.Step {
		add("Step", expected.Step, actual.Step)
	}
	if !floatEquals(expected.Stake, actual.Stake) {
		add("Stake", expected.Stake, actual.Stake)
	}
	if expected.Targets != actual.Targets {
		add("Targets", expected.Targets, actual.Targets)
	}

	// Money
	if !floatEquals(expected.Cost, actual.Cost) {
		add("Cost", expected.Cost, actual.Cost)
	}
	if !floatEquals(expected.Payout, actual.Payout) {
		add("Payout", expected.Payout, actual.Payout)
	}
	if !floatEquals(expected.PnL, actual.PnL) {
		add("PnL", expected.PnL, actual.PnL)
	}
	if !floatEquals(expected.Equity, actual.Equity) {
		add("Equity", expected.Equity, actual.Equity)
	}

	if expected.Outcome != actual.Outcome {
		add("Outcome", expected.Outcome, actual.Outcome)
	}

	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
