package strategy

import (
	"errors"

	"drawgap-lab/internal/domain"
)

// Factory errors
var (
	ErrUnknownEntryMode  = errors.New("unknown entry mode")
	ErrNegativeEntryGap  = errors.New("fixed_gap requires FixedEntryThreshold >= 0")
	ErrInvalidPercentile = errors.New("adaptive_percentile requires Percentile in (0, 100]")
	ErrInvalidMinSamples = errors.New("adaptive_percentile requires MinSamplesForAdaptive >= 1")
)

// FromConfig creates a fresh EntryPolicy from the entry section of cfg.
// Each call returns independent state.
func FromConfig(cfg domain.SimulationConfig) (EntryPolicy, error) {
	switch cfg.EntryMode {
	case domain.EntryModeFixedGap:
		if cfg.FixedEntryThreshold < 0 {
			return nil, ErrNegativeEntryGap
		}
		return NewFixedGapPolicy(cfg.FixedEntryThreshold), nil
	case domain.EntryModeAdaptivePercentile:
		if !(cfg.Percentile > 0 && cfg.Percentile <= 100) {
			return nil, ErrInvalidPercentile
		}
		if cfg.MinSamplesForAdaptive < 1 {
			return nil, ErrInvalidMinSamples
		}
		return NewAdaptivePercentilePolicy(cfg.Percentile, cfg.MinSamplesForAdaptive), nil
	default:
		return nil, ErrUnknownEntryMode
	}
}
