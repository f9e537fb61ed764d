package strategy

import (
	"fmt"
	"strconv"

	"drawgap-lab/internal/threshold"
)

// AdaptivePercentilePolicy opens once the gap reaches the given percentile of
// all gaps completed so far. Never ready until MinSamples gaps are known.
type AdaptivePercentilePolicy struct {
	Percentile float64
	MinSamples int

	estimator *threshold.Estimator
}

var _ EntryPolicy = (*AdaptivePercentilePolicy)(nil)

// NewAdaptivePercentilePolicy creates a policy with empty history.
func NewAdaptivePercentilePolicy(pct float64, minSamples int) *AdaptivePercentilePolicy {
	return &AdaptivePercentilePolicy{
		Percentile: pct,
		MinSamples: minSamples,
		estimator:  threshold.NewEstimator(pct, minSamples),
	}
}

// Ready reports gap >= current threshold.
func (p *AdaptivePercentilePolicy) Ready(gap int) bool {
	t := p.estimator.Threshold()
	return t != threshold.Unreachable && gap >= t
}

// Observe adds a completed gap to the history.
func (p *AdaptivePercentilePolicy) Observe(length int) {
	p.estimator.Add(length)
}

// Threshold returns the current percentile or threshold.Unreachable.
func (p *AdaptivePercentilePolicy) Threshold() int {
	return p.estimator.Threshold()
}

// Samples returns the number of completed gaps observed.
func (p *AdaptivePercentilePolicy) Samples() int {
	return p.estimator.Len()
}

// ID returns e.g. "ADAPTIVE_P90_MIN11".
func (p *AdaptivePercentilePolicy) ID() string {
	return fmt.Sprintf("ADAPTIVE_P%s_MIN%d", strconv.FormatFloat(p.Percentile, 'f', -1, 64), p.MinSamples)
}
