package sweep

import (
	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/idhash"
)

// Grid lists candidate values per swept parameter. An empty dimension keeps
// the base config's value.
type Grid struct {
	BaseStakes           []float64 `yaml:"base_stakes" json:"base_stakes"`
	StepMultipliers      []float64 `yaml:"step_multipliers" json:"step_multipliers"`
	MaxSteps             []int     `yaml:"max_steps" json:"max_steps"`
	FixedEntryThresholds []int     `yaml:"fixed_entry_thresholds" json:"fixed_entry_thresholds"`
	Percentiles          []float64 `yaml:"percentiles" json:"percentiles"`
	RequiredResets       []int     `yaml:"required_resets" json:"required_resets"`
}

// Size returns the number of grid points before deduplication.
func (g Grid) Size() int {
	n := 1
	for _, l := range []int{
		len(g.BaseStakes), len(g.StepMultipliers), len(g.MaxSteps),
		len(g.FixedEntryThresholds), len(g.Percentiles), len(g.RequiredResets),
	} {
		if l > 0 {
			n *= l
		}
	}
	return n
}

// Expand returns one config per grid point in deterministic nested order.
// Dimensions that do not apply to base (entry thresholds in adaptive mode,
// percentiles in fixed mode, resets with cooldown disabled) collapse, and
// configs with identical run IDs are emitted once.
func (g Grid) Expand(base domain.SimulationConfig) []domain.SimulationConfig {
	stakes := orFloat(g.BaseStakes, base.BaseStake)
	mults := orFloat(g.StepMultipliers, base.StepMultiplier)
	steps := orInt(g.MaxSteps, base.MaxSteps)
	thresholds := orInt(g.FixedEntryThresholds, base.FixedEntryThreshold)
	pcts := orFloat(g.Percentiles, base.Percentile)
	resets := orInt(g.RequiredResets, base.RequiredResets)

	if base.EntryMode == domain.EntryModeAdaptivePercentile {
		thresholds = []int{base.FixedEntryThreshold}
	} else {
		pcts = []float64{base.Percentile}
	}
	if !base.CooldownEnabled {
		resets = []int{base.RequiredResets}
	}

	var (
		out  []domain.SimulationConfig
		seen = make(map[string]struct{})
	)
	for _, stake := range stakes {
		for _, mult := range mults {
			for _, maxSteps := range steps {
				for _, th := range thresholds {
					for _, pct := range pcts {
						for _, r := range resets {
							cfg := base
							cfg.BaseStake = stake
							cfg.StepMultiplier = mult
							cfg.MaxSteps = maxSteps
							cfg.FixedEntryThreshold = th
							cfg.Percentile = pct
							cfg.RequiredResets = r

							id := idhash.ComputeRunID(cfg)
							if _, dup := seen[id]; dup {
								continue
							}
							seen[id] = struct{}{}
							out = append(out, cfg)
						}
					}
				}
			}
		}
	}
	return out
}

func orFloat(values []float64, fallback float64) []float64 {
	if len(values) == 0 {
		return []float64{fallback}
	}
	return values
}

func orInt(values []int, fallback int) []int {
	if len(values) == 0 {
		return []int{fallback}
	}
	return values
}
