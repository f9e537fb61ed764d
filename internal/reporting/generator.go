package reporting

import (
	"time"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/idhash"
	"drawgap-lab/internal/metrics"
	"drawgap-lab/internal/simulation"
	"drawgap-lab/internal/strategy"
)

// Generator produces reports from simulation results.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces the report of one run.
func (g *Generator) Generate(res *simulation.Result) *Report {
	summary := metrics.Summarize(res)

	return &Report{
		GeneratedAt:  g.now(),
		RunID:        res.RunID,
		EntryPolicy:  entryPolicyID(res.Config),
		Config:       res.Config,
		Dataset:      generateDataset(res),
		KPIs:         generateKPIs(res, summary),
		Risk:         generateRisk(res, summary),
		TopGaps:      res.LongestGaps,
		Monthly:      summary.Monthly,
		BySequence:   summary.BySequence,
		SessionStats: summary.SessionStats,
		StopClusters: summary.StopClusters,
	}
}

// GenerateLeaderboard ranks results already ordered by the sweep.
func (g *Generator) GenerateLeaderboard(batchID string, ranked []*simulation.Result) *LeaderboardReport {
	rows := make([]LeaderboardRow, len(ranked))
	for i, res := range ranked {
		resets := 0
		if res.Config.CooldownEnabled {
			resets = res.Config.RequiredResets
		}
		rows[i] = LeaderboardRow{
			Rank:                i + 1,
			RunID:               idhash.ShortRunID(res.Config),
			EntryPolicy:         entryPolicyID(res.Config),
			BaseStake:           res.Config.BaseStake,
			StepMultiplier:      res.Config.StepMultiplier,
			MaxSteps:            res.Config.MaxSteps,
			CooldownResets:      resets,
			FinalEquity:         res.FinalEquity,
			NetProfit:           res.NetProfit(),
			MaxDrawdown:         res.MaxDrawdown,
			ProfitFactor:        res.ProfitFactor,
			Wins:                res.Wins,
			StopLosses:          res.StopLosses,
			WinRate:             res.WinRate(),
			MaxConsecutiveStops: res.MaxConsecutiveStops,
			Busted:              res.Busted,
		}
	}

	return &LeaderboardReport{
		GeneratedAt: g.now(),
		BatchID:     batchID,
		Runs:        len(ranked),
		Rows:        rows,
	}
}

func generateDataset(res *simulation.Result) DatasetSummary {
	ds := DatasetSummary{
		Days:           res.DayCount,
		Events:         res.EventCount,
		EligibleEvents: res.EligibleCount,
		CompletedGaps:  res.CompletedGapCount,
		FinalGap:       res.FinalGap,
		FinalThreshold: res.FinalThreshold,
	}
	if n := len(res.DailyEquity); n > 0 {
		ds.DateRangeStart = res.DailyEquity[0].Date
		ds.DateRangeEnd = res.DailyEquity[n-1].Date
	}
	return ds
}

func generateKPIs(res *simulation.Result, summary *metrics.Summary) KPISection {
	return KPISection{
		StartingEquity:     res.StartingEquity,
		FinalEquity:        res.FinalEquity,
		NetProfit:          res.NetProfit(),
		TotalCost:          res.TotalCost,
		TotalPayout:        res.TotalPayout,
		ProfitFactor:       res.ProfitFactor,
		SessionsOpened:     res.SessionsOpened,
		Wins:               res.Wins,
		StopLosses:         res.StopLosses,
		SkippedWins:        res.SkippedWins,
		WinRate:            res.WinRate(),
		AvgStepsToWin:      res.AvgStepsToWin,
		AvgMonthlyPnL:      summary.AvgMonthlyPnL,
		LastThreeMonthsAvg: summary.LastThreeMonthsAvg,
	}
}

func generateRisk(res *simulation.Result, summary *metrics.Summary) RiskSection {
	return RiskSection{
		Peak:                res.Peak,
		Trough:              res.Trough,
		MaxDrawdown:         res.MaxDrawdown,
		MaxConsecutiveStops: res.MaxConsecutiveStops,
		WorstCaseLadderCost: res.Config.BaseStake * res.Config.WorstCaseLadderUnits(),
		RecommendedBankroll: summary.RecommendedBankroll,
		Busted:              res.Busted,
	}
}

// entryPolicyID names the entry policy of cfg, or the raw mode if cfg is invalid.
func entryPolicyID(cfg domain.SimulationConfig) string {
	policy, err := strategy.FromConfig(cfg)
	if err != nil {
		return string(cfg.EntryMode)
	}
	return policy.ID()
}
