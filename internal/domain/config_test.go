package domain

import (
	"errors"
	"math"
	"testing"
)

func TestDefaultSimulationConfig_Valid(t *testing.T) {
	if err := DefaultSimulationConfig().Validate(); err != nil {
		t.Fatalf("default config must be valid: %v", err)
	}
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SimulationConfig)
		field  string
	}{
		{"multiplier one", func(c *SimulationConfig) { c.StepMultiplier = 1 }, "step_multiplier"},
		{"zero odds", func(c *SimulationConfig) { c.PayoutOdds = 0 }, "payout_odds"},
		{"zero max steps", func(c *SimulationConfig) { c.MaxSteps = 0 }, "max_steps"},
		{"unknown entry", func(c *SimulationConfig) { c.EntryMode = "gut" }, "entry_mode"},
		{"negative threshold", func(c *SimulationConfig) { c.FixedEntryThreshold = -1 }, "fixed_entry_threshold"},
		{"percentile zero", func(c *SimulationConfig) {
			c.EntryMode = EntryModeAdaptivePercentile
			c.Percentile = 0
		}, "percentile"},
		{"min samples zero", func(c *SimulationConfig) {
			c.EntryMode = EntryModeAdaptivePercentile
			c.MinSamplesForAdaptive = 0
		}, "min_samples_for_adaptive"},
		{"negative warmup", func(c *SimulationConfig) { c.WarmupDays = -1 }, "warmup_days"},
		{"min sequence zero", func(c *SimulationConfig) { c.MinSequenceIndexToWager = 0 }, "min_sequence_index_to_wager"},
		{"cooldown without resets", func(c *SimulationConfig) {
			c.CooldownEnabled = true
			c.RequiredResets = 0
		}, "required_resets"},
		{"zero base stake", func(c *SimulationConfig) { c.BaseStake = 0 }, "base_stake"},
		{"unknown stake mode", func(c *SimulationConfig) { c.StakeMode = "kelly" }, "stake_mode"},
		{"compounding without bankroll", func(c *SimulationConfig) {
			c.StakeMode = StakeModeCompounding
			c.StartingBankroll = 0
		}, "starting_bankroll"},
		{"compounding risk above one", func(c *SimulationConfig) {
			c.StakeMode = StakeModeCompounding
			c.StartingBankroll = 100
			c.RiskFraction = 1.5
		}, "risk_fraction"},
		{"infinite multiplier", func(c *SimulationConfig) { c.StepMultiplier = math.Inf(1) }, "step_multiplier"},
		{"nan multiplier", func(c *SimulationConfig) { c.StepMultiplier = math.NaN() }, "step_multiplier"},
		{"infinite odds", func(c *SimulationConfig) { c.PayoutOdds = math.Inf(1) }, "payout_odds"},
		{"infinite base stake", func(c *SimulationConfig) { c.BaseStake = math.Inf(1) }, "base_stake"},
		{"infinite bankroll", func(c *SimulationConfig) { c.StartingBankroll = math.Inf(1) }, "starting_bankroll"},
		{"nan bankroll", func(c *SimulationConfig) { c.StartingBankroll = math.NaN() }, "starting_bankroll"},
		{"compounding infinite bankroll", func(c *SimulationConfig) {
			c.StakeMode = StakeModeCompounding
			c.StartingBankroll = math.Inf(1)
		}, "starting_bankroll"},
		{"compounding infinite floor", func(c *SimulationConfig) {
			c.StakeMode = StakeModeCompounding
			c.StartingBankroll = 100
			c.StakeFloor = math.Inf(1)
		}, "stake_floor"},
		{"compounding infinite avg targets", func(c *SimulationConfig) {
			c.StakeMode = StakeModeCompounding
			c.StartingBankroll = 100
			c.AssumedAvgTargets = math.Inf(1)
		}, "assumed_avg_targets"},
		{"ladder overflows float", func(c *SimulationConfig) { c.MaxSteps = 1100 }, "max_steps"},
		{"ladder step above cap", func(c *SimulationConfig) { c.MaxSteps = 41 }, "max_steps"},
		{"huge multiplier", func(c *SimulationConfig) {
			c.StepMultiplier = 1e200
			c.MaxSteps = 4
		}, "max_steps"},
		{"ladder sum overflows", func(c *SimulationConfig) {
			c.StakeMode = StakeModeCompounding
			c.StartingBankroll = 100
			c.StakeFloor = 1e-200
			c.StepMultiplier = 1e200
			c.MaxSteps = 2
		}, "step_multiplier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSimulationConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
			var ice *InvalidConfigurationError
			if !errors.As(err, &ice) {
				t.Fatalf("expected *InvalidConfigurationError, got %T", err)
			}
			if ice.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, ice.Field)
			}
		})
	}
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	cfg := DefaultSimulationConfig()
	cfg.StepMultiplier = 0.5
	cfg.MaxSteps = 0

	err := cfg.Validate()
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		t.Fatalf("expected joined error, got %T", err)
	}
	if n := len(joined.Unwrap()); n != 2 {
		t.Errorf("expected 2 violations, got %d: %v", n, err)
	}
}

func TestWorstCaseLadderUnits(t *testing.T) {
	cfg := DefaultSimulationConfig()
	cfg.StepMultiplier = 2
	cfg.MaxSteps = 6
	cfg.AssumedAvgTargets = 1
	if got := cfg.WorstCaseLadderUnits(); got != 63 {
		t.Errorf("expected 63, got %v", got)
	}

	cfg.AssumedAvgTargets = 2.5
	if got := cfg.WorstCaseLadderUnits(); got != 157.5 {
		t.Errorf("expected 157.5, got %v", got)
	}

	cfg.AssumedAvgTargets = 0
	if got := cfg.WorstCaseLadderUnits(); got != 63 {
		t.Errorf("zero avg targets must count as 1, got %v", got)
	}
}

func TestWorstCaseStepStake(t *testing.T) {
	cfg := DefaultSimulationConfig()
	if got := cfg.WorstCaseStepStake(); got != 64 {
		t.Errorf("expected 2 × 2^5 = 64, got %v", got)
	}

	cfg.StakeMode = StakeModeCompounding
	cfg.StakeFloor = 3
	if got := cfg.WorstCaseStepStake(); got != 96 {
		t.Errorf("compounding ladder starts at the floor: expected 96, got %v", got)
	}
}

func TestValidate_HugeMaxStepsReturns(t *testing.T) {
	cfg := DefaultSimulationConfig()
	cfg.MaxSteps = math.MaxInt

	if got := cfg.WorstCaseLadderUnits(); !math.IsInf(got, 1) {
		t.Errorf("expected +Inf ladder units, got %v", got)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}
