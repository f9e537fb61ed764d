package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"drawgap-lab/internal/backtest"
	"drawgap-lab/internal/cli"
	"drawgap-lab/internal/config"
	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/loader"
	"drawgap-lab/internal/replay"
	"drawgap-lab/internal/reporting"
	"drawgap-lab/internal/simulation"
	"drawgap-lab/internal/storage/backend"
	"drawgap-lab/internal/stream"
	"drawgap-lab/internal/verification"
)

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run one martingale simulation over a draw history",
	Long: `Replays a daily draw history, from a CSV file or the configured store,
through one simulation configuration and prints the run report.`,
	Example: `  # CSV input, markdown report, trade log next to it
  backtest --input draws.csv --format markdown --trade-log trades.csv

  # Stored history for 2024 with an adaptive entry
  backtest --backend postgres --from 2024-01-01 --to 2024-12-31 \
    --entry-mode adaptive_percentile --percentile 90 --verify`,
	RunE:          runBacktest,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cli.AddGlobalFlags(rootCmd)
	cli.AddSimulationFlags(rootCmd)

	f := rootCmd.Flags()
	f.String("input", "", "CSV draw history (default: read from the store)")
	f.String("from", "", "first day to replay from the store, YYYY-MM-DD")
	f.String("to", "", "last day to replay from the store, YYYY-MM-DD")
	f.String("format", "text", "output format: text, json, markdown")
	f.String("output", "", "write the report to this file instead of stdout")
	f.String("trade-log", "", "write the trade log CSV to this file")
	f.Int("top-gaps", 0, "longest gaps listed in the report (default from config)")
	f.Bool("verify", false, "replay twice and check invariants")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "backtest:", err)
		os.Exit(1)
	}
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	cfg, log, err := cli.Bootstrap(cmd)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(format)
	if format != "text" && format != "json" && format != "markdown" {
		return fmt.Errorf("invalid format %q: must be text, json or markdown", format)
	}

	topGaps := cfg.Report.TopGaps
	if cmd.Flags().Changed("top-gaps") {
		topGaps, _ = cmd.Flags().GetInt("top-gaps")
	}
	opts := []simulation.Option{simulation.WithLogger(log), simulation.WithTopGaps(topGaps)}

	ctx, cancel := cli.SignalContext(context.Background(), log)
	defer cancel()

	input, _ := cmd.Flags().GetString("input")
	doVerify, _ := cmd.Flags().GetBool("verify")

	var (
		res     *simulation.Result
		skipped []*domain.MalformedDayError
		report  *verification.Report
	)
	if input != "" {
		res, skipped, report, err = runFromCSV(ctx, log, input, cfg.Simulation, doVerify, opts)
	} else {
		res, skipped, report, err = runFromStore(ctx, cmd, log, cfg, doVerify, opts)
	}
	if err != nil {
		return err
	}

	for _, s := range skipped {
		log.Warn().Time("date", s.Date).Msg("skipped malformed day")
	}
	log.Info().
		Str("run_id", res.RunID).
		Int("days", res.DayCount).
		Int("events", res.EventCount).
		Float64("final_equity", res.FinalEquity).
		Float64("max_drawdown", res.MaxDrawdown).
		Msg("backtest complete")

	if path, _ := cmd.Flags().GetString("trade-log"); path != "" {
		if err := writeTradeLog(path, res.TradeLog); err != nil {
			return err
		}
		log.Info().Str("path", path).Int("records", len(res.TradeLog)).Msg("trade log written")
	}

	out := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := writeReport(out, format, reporting.NewGenerator().Generate(res)); err != nil {
		return err
	}

	if report != nil {
		return checkReport(log, report)
	}
	return nil
}

func runFromCSV(
	ctx context.Context,
	log zerolog.Logger,
	path string,
	sc domain.SimulationConfig,
	doVerify bool,
	opts []simulation.Option,
) (*simulation.Result, []*domain.MalformedDayError, *verification.Report, error) {
	days, stats, err := loader.LoadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load %s: %w", path, err)
	}
	log.Info().
		Str("path", path).
		Int("rows", stats.Rows).
		Int("days", stats.Days).
		Int("duplicates", stats.Duplicates).
		Int("empty_days", stats.EmptyDays).
		Msg("draw history loaded")

	events, skipped := stream.Build(days, stream.PolicyFromConfig(sc))
	res, err := simulation.Run(ctx, events, sc, opts...)
	if err != nil {
		return nil, nil, nil, err
	}

	var report *verification.Report
	if doVerify {
		if report, err = verification.VerifyEvents(ctx, events, sc); err != nil {
			return nil, nil, nil, err
		}
	}
	return res, skipped, report, nil
}

func runFromStore(
	ctx context.Context,
	cmd *cobra.Command,
	log zerolog.Logger,
	cfg *config.Config,
	doVerify bool,
	opts []simulation.Option,
) (*simulation.Result, []*domain.MalformedDayError, *verification.Report, error) {
	store, closeStore, err := backend.Open(ctx, cfg.Storage, backend.Options{})
	if err != nil {
		return nil, nil, nil, err
	}
	defer closeStore()
	log.Info().Str("backend", cfg.Storage.Backend).Msg("reading draw days from store")

	replayRunner := replay.NewRunner(store)
	runner := backtest.NewRunner(replayRunner, opts...)

	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")

	var results *backtest.Results
	if fromStr == "" && toStr == "" {
		results, err = runner.RunAll(ctx, cfg.Simulation)
	} else {
		from, to, perr := parseRange(fromStr, toStr)
		if perr != nil {
			return nil, nil, nil, perr
		}
		results, err = runner.Run(ctx, from, to, cfg.Simulation)
	}
	if err != nil {
		return nil, nil, nil, err
	}
	if results.Days == 0 {
		log.Warn().Msg("no draw days in store for the requested range")
	}

	var report *verification.Report
	if doVerify {
		if report, err = verification.NewReplayVerifier(replayRunner).Verify(ctx, cfg.Simulation); err != nil {
			return nil, nil, nil, err
		}
	}
	return results.Result, results.Skipped, report, nil
}

// parseRange parses an inclusive day range. A missing bound is open.
func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	var err error
	if fromStr != "" {
		if from, err = loader.ParseDate(fromStr); err != nil {
			return from, to, fmt.Errorf("--from: %w", err)
		}
	}
	if toStr != "" {
		if to, err = loader.ParseDate(toStr); err != nil {
			return from, to, fmt.Errorf("--to: %w", err)
		}
	}
	if to.Before(from) {
		return from, to, fmt.Errorf("--to %s is before --from %s", toStr, fromStr)
	}
	return from, to, nil
}

func writeTradeLog(path string, trades []*domain.TradeRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trade log: %w", err)
	}
	defer f.Close()
	if err := reporting.WriteTradeLogCSV(f, trades); err != nil {
		return fmt.Errorf("write trade log: %w", err)
	}
	return f.Close()
}

func writeReport(w io.Writer, format string, r *reporting.Report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "markdown":
		_, err := io.WriteString(w, reporting.RenderMarkdown(r))
		return err
	default:
		return printSummary(w, r)
	}
}

func printSummary(w io.Writer, r *reporting.Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Run:            %s (%s)\n", r.RunID, r.EntryPolicy)
	if !r.Dataset.DateRangeStart.IsZero() {
		fmt.Fprintf(&b, "Days:           %d (%s .. %s)\n", r.Dataset.Days,
			r.Dataset.DateRangeStart.Format(domain.DateLayout), r.Dataset.DateRangeEnd.Format(domain.DateLayout))
	} else {
		fmt.Fprintf(&b, "Days:           %d\n", r.Dataset.Days)
	}
	fmt.Fprintf(&b, "Events:         %d\n", r.Dataset.Events)
	fmt.Fprintf(&b, "Final equity:   %.2f\n", r.KPIs.FinalEquity)
	fmt.Fprintf(&b, "Net profit:     %.2f\n", r.KPIs.NetProfit)
	fmt.Fprintf(&b, "Wins / stops:   %d / %d\n", r.KPIs.Wins, r.KPIs.StopLosses)
	fmt.Fprintf(&b, "Max drawdown:   %.2f\n", r.Risk.MaxDrawdown)
	fmt.Fprintf(&b, "Bankroll (rec): %.2f\n", r.Risk.RecommendedBankroll)
	if r.Risk.Busted {
		b.WriteString("BUSTED\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func checkReport(log zerolog.Logger, report *verification.Report) error {
	for _, v := range report.Violations {
		log.Error().Str("rule", v.Rule).Int("index", v.Index).Msg(v.Detail)
	}
	if !report.Determinism.Match() {
		log.Error().
			Int("divergent", report.Determinism.DivergentRecords).
			Int("expected", report.Determinism.ExpectedRecords).
			Int("actual", report.Determinism.ActualRecords).
			Msg("replay is not deterministic")
	}
	if !report.OK() {
		return fmt.Errorf("verification failed for run %s", report.RunID)
	}
	log.Info().Str("run_id", report.RunID).Msg("verification passed")
	return nil
}
