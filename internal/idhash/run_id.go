package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"drawgap-lab/internal/domain"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(CanonicalConfig(cfg))
// Returns hex-encoded hash (64 characters).
func ComputeRunID(cfg domain.SimulationConfig) string {
	hash := sha256.Sum256([]byte(CanonicalConfig(cfg)))
	return hex.EncodeToString(hash[:])
}

// ShortRunID returns the first 12 characters of ComputeRunID.
func ShortRunID(cfg domain.SimulationConfig) string {
	return ComputeRunID(cfg)[:12]
}

// CanonicalConfig renders every parameter as key=value pairs joined by '|',
// in a fixed order, with floats in shortest round-trip form.
func CanonicalConfig(cfg domain.SimulationConfig) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

	parts := []string{
		"base_stake=" + f(cfg.BaseStake),
		"step_multiplier=" + f(cfg.StepMultiplier),
		"payout_odds=" + f(cfg.PayoutOdds),
		"max_steps=" + strconv.Itoa(cfg.MaxSteps),
		"entry_mode=" + string(cfg.EntryMode),
		"fixed_entry_threshold=" + strconv.Itoa(cfg.FixedEntryThreshold),
		"percentile=" + f(cfg.Percentile),
		"min_samples_for_adaptive=" + strconv.Itoa(cfg.MinSamplesForAdaptive),
		"warmup_days=" + strconv.Itoa(cfg.WarmupDays),
		"min_sequence_index_to_wager=" + strconv.Itoa(cfg.MinSequenceIndexToWager),
		"first_event_counts_toward_gap=" + strconv.FormatBool(cfg.FirstEventCountsTowardGap),
		"abandon_on_ineligible_repeat=" + strconv.FormatBool(cfg.AbandonOnIneligibleRepeat),
		"cooldown_enabled=" + strconv.FormatBool(cfg.CooldownEnabled),
		"required_resets=" + strconv.Itoa(cfg.RequiredResets),
		"stake_mode=" + string(cfg.StakeMode),
		"risk_fraction=" + f(cfg.RiskFraction),
		"stake_floor=" + f(cfg.StakeFloor),
		"starting_bankroll=" + f(cfg.StartingBankroll),
		"assumed_avg_targets=" + f(cfg.AssumedAvgTargets),
		"round_stake_cents=" + strconv.FormatBool(cfg.RoundStakeCents),
	}
	return strings.Join(parts, "|")
}

// ComputeDatasetID computes a deterministic fingerprint of input days.
// Formula: SHA256 over "date:v1,v2,...\n" per day, in the given order.
func ComputeDatasetID(days []*domain.DrawDay) string {
	h := sha256.New()
	for _, d := range days {
		fmt.Fprintf(h, "%s:%s\n", d.DateKey(), strings.Join(d.Values, ","))
	}
	return hex.EncodeToString(h.Sum(nil))
}
