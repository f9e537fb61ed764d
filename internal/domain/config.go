package domain

import (
	"errors"
	"fmt"
	"math"
)

// EntryMode selects how a closed session decides to open.
type EntryMode string

// Entry modes.
const (
	EntryModeFixedGap           EntryMode = "fixed_gap"
	EntryModeAdaptivePercentile EntryMode = "adaptive_percentile"
)

// StakeMode selects how the base stake of a session is sized.
type StakeMode string

// Stake modes.
const (
	StakeModeFixed       StakeMode = "fixed"
	StakeModeCompounding StakeMode = "compounding"
)

// SimulationConfig holds every parameter of one simulation run.
type SimulationConfig struct {
	// Ladder
	BaseStake      float64 `yaml:"base_stake" json:"base_stake"`
	StepMultiplier float64 `yaml:"step_multiplier" json:"step_multiplier"`
	PayoutOdds     float64 `yaml:"payout_odds" json:"payout_odds"`
	MaxSteps       int     `yaml:"max_steps" json:"max_steps"`

	// Entry
	EntryMode             EntryMode `yaml:"entry_mode" json:"entry_mode"`
	FixedEntryThreshold   int       `yaml:"fixed_entry_threshold" json:"fixed_entry_threshold"`
	Percentile            float64   `yaml:"percentile" json:"percentile"`
	MinSamplesForAdaptive int       `yaml:"min_samples_for_adaptive" json:"min_samples_for_adaptive"`
	WarmupDays            int       `yaml:"warmup_days" json:"warmup_days"`

	// Stream policy
	MinSequenceIndexToWager   int  `yaml:"min_sequence_index_to_wager" json:"min_sequence_index_to_wager"`
	FirstEventCountsTowardGap bool `yaml:"first_event_counts_toward_gap" json:"first_event_counts_toward_gap"`
	AbandonOnIneligibleRepeat bool `yaml:"abandon_on_ineligible_repeat" json:"abandon_on_ineligible_repeat"`

	// Cooldown
	CooldownEnabled bool `yaml:"cooldown_enabled" json:"cooldown_enabled"`
	RequiredResets  int  `yaml:"required_resets" json:"required_resets"`

	// Stake sizing
	StakeMode         StakeMode `yaml:"stake_mode" json:"stake_mode"`
	RiskFraction      float64   `yaml:"risk_fraction" json:"risk_fraction"`
	StakeFloor        float64   `yaml:"stake_floor" json:"stake_floor"`
	StartingBankroll  float64   `yaml:"starting_bankroll" json:"starting_bankroll"`
	AssumedAvgTargets float64   `yaml:"assumed_avg_targets" json:"assumed_avg_targets"`
	RoundStakeCents   bool      `yaml:"round_stake_cents" json:"round_stake_cents"`
}

// DefaultSimulationConfig returns the fixed-gap ladder: stake 2, x2 per loss,
// 9x payout, stop after 6 steps, enter after a gap of 4.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		BaseStake:                 2,
		StepMultiplier:            2,
		PayoutOdds:                9,
		MaxSteps:                  6,
		EntryMode:                 EntryModeFixedGap,
		FixedEntryThreshold:       4,
		Percentile:                90,
		MinSamplesForAdaptive:     11,
		MinSequenceIndexToWager:   1,
		FirstEventCountsTowardGap: true,
		RequiredResets:            3,
		StakeMode:                 StakeModeFixed,
		RiskFraction:              0.05,
		StakeFloor:                2,
		AssumedAvgTargets:         1,
	}
}

// Validate checks every parameter and returns all violations joined.
// Each violation is an *InvalidConfigurationError.
func (c SimulationConfig) Validate() error {
	var errs []error

	ladderOK := true
	if !(c.StepMultiplier > 1) || math.IsInf(c.StepMultiplier, 0) {
		errs = append(errs, invalid("step_multiplier", c.StepMultiplier, "must be finite and > 1"))
		ladderOK = false
	}
	if !(c.PayoutOdds > 0) || math.IsInf(c.PayoutOdds, 0) {
		errs = append(errs, invalid("payout_odds", c.PayoutOdds, "must be finite and > 0"))
	}
	if c.MaxSteps < 1 {
		errs = append(errs, invalid("max_steps", c.MaxSteps, "must be >= 1"))
		ladderOK = false
	}

	switch c.EntryMode {
	case EntryModeFixedGap:
		if c.FixedEntryThreshold < 0 {
			errs = append(errs, invalid("fixed_entry_threshold", c.FixedEntryThreshold, "must be >= 0"))
		}
	case EntryModeAdaptivePercentile:
		if !(c.Percentile > 0 && c.Percentile <= 100) {
			errs = append(errs, invalid("percentile", c.Percentile, "must be in (0, 100]"))
		}
		if c.MinSamplesForAdaptive < 1 {
			errs = append(errs, invalid("min_samples_for_adaptive", c.MinSamplesForAdaptive, "must be >= 1"))
		}
	default:
		errs = append(errs, invalid("entry_mode", c.EntryMode, "unknown entry mode"))
	}

	if c.WarmupDays < 0 {
		errs = append(errs, invalid("warmup_days", c.WarmupDays, "must be >= 0"))
	}
	if c.MinSequenceIndexToWager < 1 {
		errs = append(errs, invalid("min_sequence_index_to_wager", c.MinSequenceIndexToWager, "must be >= 1"))
	}
	if c.CooldownEnabled && c.RequiredResets < 1 {
		errs = append(errs, invalid("required_resets", c.RequiredResets, "must be >= 1 when cooldown is enabled"))
	}

	switch c.StakeMode {
	case StakeModeFixed:
		if !(c.BaseStake > 0) || math.IsInf(c.BaseStake, 0) {
			errs = append(errs, invalid("base_stake", c.BaseStake, "must be finite and > 0"))
			ladderOK = false
		}
		if !(c.StartingBankroll >= 0) || math.IsInf(c.StartingBankroll, 0) {
			errs = append(errs, invalid("starting_bankroll", c.StartingBankroll, "must be finite and >= 0"))
		}
	case StakeModeCompounding:
		if !(c.RiskFraction > 0 && c.RiskFraction <= 1) {
			errs = append(errs, invalid("risk_fraction", c.RiskFraction, "must be in (0, 1]"))
		}
		if !(c.StakeFloor > 0) || math.IsInf(c.StakeFloor, 0) {
			errs = append(errs, invalid("stake_floor", c.StakeFloor, "must be finite and > 0"))
			ladderOK = false
		}
		if !(c.StartingBankroll > 0) || math.IsInf(c.StartingBankroll, 0) {
			errs = append(errs, invalid("starting_bankroll", c.StartingBankroll, "must be finite and > 0 in compounding mode"))
		}
		if !(c.AssumedAvgTargets > 0) || math.IsInf(c.AssumedAvgTargets, 0) {
			errs = append(errs, invalid("assumed_avg_targets", c.AssumedAvgTargets, "must be finite and > 0"))
		}
	default:
		errs = append(errs, invalid("stake_mode", c.StakeMode, "unknown stake mode"))
		ladderOK = false
	}

	if ladderOK {
		if top := c.WorstCaseStepStake(); !(top <= MaxStepStake) {
			errs = append(errs, invalid("max_steps", c.MaxSteps,
				fmt.Sprintf("step %d stake %g exceeds %g at step_multiplier %g", c.MaxSteps, top, MaxStepStake, c.StepMultiplier)))
		} else if units := c.WorstCaseLadderUnits(); math.IsInf(units, 0) {
			errs = append(errs, invalid("step_multiplier", c.StepMultiplier,
				fmt.Sprintf("ladder of %d steps overflows", c.MaxSteps)))
		}
	}

	return errors.Join(errs...)
}

// MaxStepStake bounds the stake of the last ladder step.
const MaxStepStake = 1e12

// WorstCaseStepStake is the stake of step MaxSteps for a session opened at
// the configured base stake, or at the stake floor in compounding mode.
func (c SimulationConfig) WorstCaseStepStake() float64 {
	base := c.BaseStake
	if c.StakeMode == StakeModeCompounding {
		base = c.StakeFloor
	}
	if c.MaxSteps < 1 {
		return 0
	}
	return base * math.Pow(c.StepMultiplier, float64(c.MaxSteps-1))
}

// WorstCaseLadderUnits is the stake-unit cost of a session that runs to
// stop-loss: sum of StepMultiplier^i for i in [0, MaxSteps), scaled by
// AssumedAvgTargets.
func (c SimulationConfig) WorstCaseLadderUnits() float64 {
	n := float64(c.MaxSteps)
	if n <= 0 {
		return 0
	}
	units := n
	if m := c.StepMultiplier; m != 1 {
		units = (math.Pow(m, n) - 1) / (m - 1)
	}
	avg := c.AssumedAvgTargets
	if avg <= 0 {
		avg = 1
	}
	return units * avg
}
