// Package cli holds the flag plumbing shared by the command binaries.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"drawgap-lab/internal/config"
	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/observability"
)

// Flag names shared across commands.
const (
	FlagConfig        = "config"
	FlagEnvFile       = "env-file"
	FlagLogLevel      = "log-level"
	FlagLogPretty     = "log-pretty"
	FlagBackend       = "backend"
	FlagPostgresDSN   = "postgres-dsn"
	FlagClickHouseDSN = "clickhouse-dsn"
	FlagClickHouseDB  = "clickhouse-database"
)

// AddGlobalFlags registers config, logging and storage flags on cmd.
func AddGlobalFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String(FlagConfig, "", "YAML config file")
	f.StringSlice(FlagEnvFile, nil, "env files to load (default .env when present)")
	f.String(FlagLogLevel, "", "log level: debug, info, warn, error")
	f.Bool(FlagLogPretty, false, "human-readable console logs")
	f.String(FlagBackend, "", "storage backend: memory, postgres, clickhouse")
	f.String(FlagPostgresDSN, "", "PostgreSQL connection string")
	f.String(FlagClickHouseDSN, "", "ClickHouse connection string")
	f.String(FlagClickHouseDB, "", "ClickHouse database, overrides the DSN")
}

// Bootstrap loads the config named by the global flags, applies flag
// overrides and builds the stderr logger.
func Bootstrap(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString(FlagConfig)
	envFiles, _ := flags.GetStringSlice(FlagEnvFile)

	cfg, err := config.Load(path, envFiles...)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	overrideString(cmd, FlagLogLevel, &cfg.Log.Level)
	overrideBool(cmd, FlagLogPretty, &cfg.Log.Pretty)
	overrideString(cmd, FlagBackend, &cfg.Storage.Backend)
	overrideString(cmd, FlagPostgresDSN, &cfg.Storage.PostgresDSN)
	overrideString(cmd, FlagClickHouseDSN, &cfg.Storage.ClickHouseDSN)
	overrideString(cmd, FlagClickHouseDB, &cfg.Storage.ClickHouseDatabase)

	ApplySimulationFlags(cmd, &cfg.Simulation)
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("config validation failed: %w", err)
	}

	log, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Pretty, cmd.ErrOrStderr())
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log, nil
}

// Simulation flag names.
const (
	FlagBaseStake        = "base-stake"
	FlagStepMultiplier   = "step-multiplier"
	FlagPayoutOdds       = "payout-odds"
	FlagMaxSteps         = "max-steps"
	FlagEntryMode        = "entry-mode"
	FlagEntryThreshold   = "entry-threshold"
	FlagPercentile       = "percentile"
	FlagMinSamples       = "min-samples"
	FlagWarmupDays       = "warmup-days"
	FlagMinSequence      = "min-sequence-index"
	FlagFirstEventCounts = "first-event-counts"
	FlagAbandon          = "abandon-on-ineligible"
	FlagCooldown         = "cooldown"
	FlagRequiredResets   = "required-resets"
	FlagStakeMode        = "stake-mode"
	FlagRiskFraction     = "risk-fraction"
	FlagStakeFloor       = "stake-floor"
	FlagBankroll         = "starting-bankroll"
	FlagAvgTargets       = "assumed-avg-targets"
	FlagRoundCents       = "round-stake-cents"
)

// AddSimulationFlags registers one flag per simulation option. Unset flags
// leave the loaded config untouched.
func AddSimulationFlags(cmd *cobra.Command) {
	d := domain.DefaultSimulationConfig()
	f := cmd.Flags()
	f.Float64(FlagBaseStake, d.BaseStake, "stake of the first ladder step")
	f.Float64(FlagStepMultiplier, d.StepMultiplier, "stake multiplier after each loss")
	f.Float64(FlagPayoutOdds, d.PayoutOdds, "payout multiple of a winning stake")
	f.Int(FlagMaxSteps, d.MaxSteps, "ladder length before a stop-loss")
	f.String(FlagEntryMode, string(d.EntryMode), "entry mode: fixed_gap, adaptive_percentile")
	f.Int(FlagEntryThreshold, d.FixedEntryThreshold, "gap required to open a session (fixed_gap)")
	f.Float64(FlagPercentile, d.Percentile, "gap percentile used as threshold (adaptive_percentile)")
	f.Int(FlagMinSamples, d.MinSamplesForAdaptive, "completed gaps required before adaptive entry")
	f.Int(FlagWarmupDays, d.WarmupDays, "days observed before the first session may open")
	f.Int(FlagMinSequence, d.MinSequenceIndexToWager, "first race index eligible for wagering")
	f.Bool(FlagFirstEventCounts, d.FirstEventCountsTowardGap, "count a day's first event toward the gap")
	f.Bool(FlagAbandon, d.AbandonOnIneligibleRepeat, "close an open session on an ineligible repeat")
	f.Bool(FlagCooldown, d.CooldownEnabled, "require gap resets after a stop-loss")
	f.Int(FlagRequiredResets, d.RequiredResets, "gap resets that end a cooldown")
	f.String(FlagStakeMode, string(d.StakeMode), "stake mode: fixed, compounding")
	f.Float64(FlagRiskFraction, d.RiskFraction, "bankroll fraction risked per ladder (compounding)")
	f.Float64(FlagStakeFloor, d.StakeFloor, "minimum base stake (compounding)")
	f.Float64(FlagBankroll, d.StartingBankroll, "starting equity")
	f.Float64(FlagAvgTargets, d.AssumedAvgTargets, "targets per step assumed when sizing (compounding)")
	f.Bool(FlagRoundCents, d.RoundStakeCents, "round compounding stakes to cents")
}

// ApplySimulationFlags copies every explicitly set simulation flag into sc.
// Flags that were never registered are ignored.
func ApplySimulationFlags(cmd *cobra.Command, sc *domain.SimulationConfig) {
	var entryMode, stakeMode string
	if overrideString(cmd, FlagEntryMode, &entryMode) {
		sc.EntryMode = domain.EntryMode(entryMode)
	}
	if overrideString(cmd, FlagStakeMode, &stakeMode) {
		sc.StakeMode = domain.StakeMode(stakeMode)
	}
	overrideFloat(cmd, FlagBaseStake, &sc.BaseStake)
	overrideFloat(cmd, FlagStepMultiplier, &sc.StepMultiplier)
	overrideFloat(cmd, FlagPayoutOdds, &sc.PayoutOdds)
	overrideInt(cmd, FlagMaxSteps, &sc.MaxSteps)
	overrideInt(cmd, FlagEntryThreshold, &sc.FixedEntryThreshold)
	overrideFloat(cmd, FlagPercentile, &sc.Percentile)
	overrideInt(cmd, FlagMinSamples, &sc.MinSamplesForAdaptive)
	overrideInt(cmd, FlagWarmupDays, &sc.WarmupDays)
	overrideInt(cmd, FlagMinSequence, &sc.MinSequenceIndexToWager)
	overrideBool(cmd, FlagFirstEventCounts, &sc.FirstEventCountsTowardGap)
	overrideBool(cmd, FlagAbandon, &sc.AbandonOnIneligibleRepeat)
	overrideBool(cmd, FlagCooldown, &sc.CooldownEnabled)
	overrideInt(cmd, FlagRequiredResets, &sc.RequiredResets)
	overrideFloat(cmd, FlagRiskFraction, &sc.RiskFraction)
	overrideFloat(cmd, FlagStakeFloor, &sc.StakeFloor)
	overrideFloat(cmd, FlagBankroll, &sc.StartingBankroll)
	overrideFloat(cmd, FlagAvgTargets, &sc.AssumedAvgTargets)
	overrideBool(cmd, FlagRoundCents, &sc.RoundStakeCents)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Warn().Str("signal", sig.String()).Msg("shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func changed(cmd *cobra.Command, name string) bool {
	fl := cmd.Flags().Lookup(name)
	return fl != nil && fl.Changed
}

func overrideString(cmd *cobra.Command, name string, dst *string) bool {
	if !changed(cmd, name) {
		return false
	}
	*dst, _ = cmd.Flags().GetString(name)
	return true
}

func overrideBool(cmd *cobra.Command, name string, dst *bool) {
	if changed(cmd, name) {
		*dst, _ = cmd.Flags().GetBool(name)
	}
}

func overrideInt(cmd *cobra.Command, name string, dst *int) {
	if changed(cmd, name) {
		*dst, _ = cmd.Flags().GetInt(name)
	}
}

func overrideFloat(cmd *cobra.Command, name string, dst *float64) {
	if changed(cmd, name) {
		*dst, _ = cmd.Flags().GetFloat64(name)
	}
}
