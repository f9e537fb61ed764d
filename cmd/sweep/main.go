package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"drawgap-lab/internal/cli"
	"drawgap-lab/internal/loader"
	"drawgap-lab/internal/observability"
	"drawgap-lab/internal/replay"
	"drawgap-lab/internal/reporting"
	"drawgap-lab/internal/storage/backend"
	"drawgap-lab/internal/sweep"
)

var rootCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a parameter grid over one draw history and rank the results",
	Long: `Expands the configured grid around the base simulation config, runs every
point concurrently over the same history and prints a leaderboard ranked by
final equity.

Grid values come from the sweep.grid config section; any grid flag replaces
that dimension.`,
	Example: `  sweep --input draws.csv --base-stakes 1,2,5 --max-steps-grid 5,6,7 \
    --thresholds 2,4,6 --format markdown --top 10

  sweep --config sweep.yaml --metrics-addr :9090`,
	RunE:          runSweep,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cli.AddGlobalFlags(rootCmd)
	cli.AddSimulationFlags(rootCmd)

	f := rootCmd.Flags()
	f.String("input", "", "CSV draw history (default: read from the store)")
	f.Float64Slice("base-stakes", nil, "grid: base stakes")
	f.Float64Slice("step-multipliers", nil, "grid: step multipliers")
	f.IntSlice("max-steps-grid", nil, "grid: ladder lengths")
	f.IntSlice("thresholds", nil, "grid: fixed entry thresholds")
	f.Float64Slice("percentiles", nil, "grid: adaptive percentiles")
	f.IntSlice("resets", nil, "grid: cooldown required resets")
	f.Int("workers", 0, "concurrent runs (default from config, 0 means GOMAXPROCS)")
	f.Int("top", 0, "leaderboard rows (default from config, 0 means all)")
	f.String("format", "markdown", "leaderboard format: markdown, csv")
	f.String("output", "", "write the leaderboard to this file instead of stdout")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address while running")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sweep:", err)
		os.Exit(1)
	}
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, log, err := cli.Bootstrap(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()

	format, _ := flags.GetString("format")
	format = strings.ToLower(format)
	if format != "markdown" && format != "csv" {
		return fmt.Errorf("invalid format %q: must be markdown or csv", format)
	}

	grid := cfg.Sweep.Grid
	if flags.Changed("base-stakes") {
		grid.BaseStakes, _ = flags.GetFloat64Slice("base-stakes")
	}
	if flags.Changed("step-multipliers") {
		grid.StepMultipliers, _ = flags.GetFloat64Slice("step-multipliers")
	}
	if flags.Changed("max-steps-grid") {
		grid.MaxSteps, _ = flags.GetIntSlice("max-steps-grid")
	}
	if flags.Changed("thresholds") {
		grid.FixedEntryThresholds, _ = flags.GetIntSlice("thresholds")
	}
	if flags.Changed("percentiles") {
		grid.Percentiles, _ = flags.GetFloat64Slice("percentiles")
	}
	if flags.Changed("resets") {
		grid.RequiredResets, _ = flags.GetIntSlice("resets")
	}
	workers := cfg.Sweep.Workers
	if flags.Changed("workers") {
		workers, _ = flags.GetInt("workers")
	}
	top := cfg.Sweep.Top
	if flags.Changed("top") {
		top, _ = flags.GetInt("top")
	}

	cfgs := grid.Expand(cfg.Simulation)
	log.Info().Int("grid_points", grid.Size()).Int("configs", len(cfgs)).Msg("grid expanded")

	ctx, cancel := cli.SignalContext(context.Background(), log)
	defer cancel()

	m := observability.NewMetrics("drawgap", prometheus.DefaultRegisterer)
	metricsAddr, _ := flags.GetString("metrics-addr")
	cli.ServeMetrics(ctx, metricsAddr, observability.Handler(), log)

	sweeper := sweep.New(
		sweep.WithWorkers(workers),
		sweep.WithLogger(log),
		sweep.WithMetrics(m),
		sweep.WithTopGaps(cfg.Report.TopGaps),
	)

	var outcome *sweep.Outcome
	if input, _ := flags.GetString("input"); input != "" {
		days, stats, err := loader.LoadFile(input)
		if err != nil {
			return fmt.Errorf("load %s: %w", input, err)
		}
		log.Info().Str("path", input).Int("days", stats.Days).Msg("draw history loaded")
		outcome, err = sweeper.Run(ctx, days, cfgs)
		if err != nil {
			return err
		}
	} else {
		store, closeStore, err := backend.Open(ctx, cfg.Storage, backend.Options{Metrics: m})
		if err != nil {
			return err
		}
		defer closeStore()
		outcome, err = sweeper.RunFromStore(ctx, replay.NewRunner(store), cfgs)
		if err != nil {
			return err
		}
	}

	for _, s := range outcome.Skipped {
		log.Warn().Time("date", s.Date).Msg("skipped malformed day")
	}

	board := reporting.NewGenerator().GenerateLeaderboard(outcome.BatchID, outcome.Top(top))
	board.Runs = len(outcome.Results)

	out := cmd.OutOrStdout()
	if path, _ := flags.GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create leaderboard file: %w", err)
		}
		defer f.Close()
		out = f
	}

	var rendered string
	if format == "csv" {
		rendered = reporting.RenderLeaderboardCSV(board.Rows)
	} else {
		rendered = reporting.RenderLeaderboardMarkdown(board)
	}
	_, err = io.WriteString(out, rendered)
	return err
}
