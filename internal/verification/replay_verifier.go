package verification

import (
	"context"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/replay"
	"drawgap-lab/internal/simulation"
	"drawgap-lab/internal/stream"
)

// Report is the outcome of verifying one configuration.
type Report struct {
	RunID       string
	Reference   *simulation.Result
	Determinism *VerificationReport
	Violations  []Violation
}

// OK reports whether the replay was deterministic and no invariant broke.
func (r *Report) OK() bool {
	return r.Determinism.Match() && len(r.Violations) == 0
}

// ReplayVerifier replays stored draw days twice and checks the results.
type ReplayVerifier struct {
	runner *replay.Runner
	opts   []simulation.Option
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(runner *replay.Runner, opts ...simulation.Option) *ReplayVerifier {
	return &ReplayVerifier{runner: runner, opts: opts}
}

// Verify loads the event stream for cfg once and verifies it.
func (v *ReplayVerifier) Verify(ctx context.Context, cfg domain.SimulationConfig) (*Report, error) {
	events, _, err := v.runner.LoadEvents(ctx, stream.PolicyFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	return VerifyEvents(ctx, events, cfg, v.opts...)
}

// VerifyEvents runs the simulation twice over the same events, compares the
// trade logs and checks invariants on the first run.
func VerifyEvents(ctx context.Context, events []*domain.OutcomeEvent, cfg domain.SimulationConfig, opts ...simulation.Option) (*Report, error) {
	first, err := simulation.Run(ctx, events, cfg, opts...)
	if err != nil {
		return nil, err
	}
	second, err := simulation.Run(ctx, events, cfg, opts...)
	if err != nil {
		return nil, err
	}

	determinism := CompareTradeLogs(first.TradeLog, second.TradeLog)
	if !floatEquals(first.FinalEquity, second.FinalEquity) {
		determinism.DivergentRecords++
		determinism.Results = append(determinism.Results, RecordResult{
			Index:       -1,
			Divergences: []FieldDivergence{{Field: "FinalEquity", Expected: first.FinalEquity, Actual: second.FinalEquity}},
		})
	}

	return &Report{
		RunID:       first.RunID,
		Reference:   first,
		Determinism: determinism,
		Violations:  CheckInvariants(first),
	}, nil
}
