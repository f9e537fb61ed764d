package strategy

import "fmt"

// FixedGapPolicy opens once the gap reaches a constant threshold.
type FixedGapPolicy struct {
	MinGap int
}

var _ EntryPolicy = (*FixedGapPolicy)(nil)

// NewFixedGapPolicy creates a FixedGapPolicy.
func NewFixedGapPolicy(minGap int) *FixedGapPolicy {
	return &FixedGapPolicy{MinGap: minGap}
}

// Ready reports gap >= MinGap.
func (p *FixedGapPolicy) Ready(gap int) bool {
	return gap >= p.MinGap
}

// Observe is a no-op.
func (p *FixedGapPolicy) Observe(int) {}

// Threshold returns MinGap.
func (p *FixedGapPolicy) Threshold() int {
	return p.MinGap
}

// ID returns e.g. "FIXED_GAP_4".
func (p *FixedGapPolicy) ID() string {
	return fmt.Sprintf("FIXED_GAP_%d", p.MinGap)
}
