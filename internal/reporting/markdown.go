package reporting

import (
	"fmt"
	"strings"
	"time"

	"drawgap-lab/internal/domain"
)

// RenderMarkdown renders a run report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Simulation Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s` | Entry: %s\n\n", r.RunID, r.EntryPolicy))

	// Parameters
	c := r.Config
	sb.WriteString("## Parameters\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Stake Mode | %s |\n", c.StakeMode))
	if c.StakeMode == domain.StakeModeCompounding {
		sb.WriteString(fmt.Sprintf("| Risk Fraction | %.4f |\n", c.RiskFraction))
		sb.WriteString(fmt.Sprintf("| Stake Floor | %.2f |\n", c.StakeFloor))
	} else {
		sb.WriteString(fmt.Sprintf("| Base Stake | %.2f |\n", c.BaseStake))
	}
	sb.WriteString(fmt.Sprintf("| Step Multiplier | %.2f |\n", c.StepMultiplier))
	sb.WriteString(fmt.Sprintf("| Payout Odds | %.2f |\n", c.PayoutOdds))
	sb.WriteString(fmt.Sprintf("| Max Steps | %d |\n", c.MaxSteps))
	sb.WriteString(fmt.Sprintf("| Min Race To Wager | %d |\n", c.MinSequenceIndexToWager))
	sb.WriteString(fmt.Sprintf("| Warm-up Days | %d |\n", c.WarmupDays))
	if c.CooldownEnabled {
		sb.WriteString(fmt.Sprintf("| Cooldown Resets | %d |\n", c.RequiredResets))
	} else {
		sb.WriteString("| Cooldown | disabled |\n")
	}
	sb.WriteString("\n")

	// Dataset
	d := r.Dataset
	sb.WriteString("## Dataset\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Days | %d |\n", d.Days))
	if d.Days > 0 {
		sb.WriteString(fmt.Sprintf("| Date Range | %s to %s |\n",
			d.DateRangeStart.Format(domain.DateLayout), d.DateRangeEnd.Format(domain.DateLayout)))
	}
	sb.WriteString(fmt.Sprintf("| Events | %d |\n", d.Events))
	sb.WriteString(fmt.Sprintf("| Eligible Events | %d |\n", d.EligibleEvents))
	sb.WriteString(fmt.Sprintf("| Completed Gaps | %d |\n", d.CompletedGaps))
	sb.WriteString(fmt.Sprintf("| Current Gap | %d |\n", d.FinalGap))
	if d.FinalThreshold < 0 {
		sb.WriteString("| Entry Threshold | unreachable |\n")
	} else {
		sb.WriteString(fmt.Sprintf("| Entry Threshold | %d |\n", d.FinalThreshold))
	}
	sb.WriteString("\n")

	// KPIs
	k := r.KPIs
	sb.WriteString("## Results\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Starting Equity | %.2f |\n", k.StartingEquity))
	sb.WriteString(fmt.Sprintf("| Final Equity | %.2f |\n", k.FinalEquity))
	sb.WriteString(fmt.Sprintf("| Net Profit | %.2f |\n", k.NetProfit))
	sb.WriteString(fmt.Sprintf("| Total Cost | %.2f |\n", k.TotalCost))
	sb.WriteString(fmt.Sprintf("| Total Payout | %.2f |\n", k.TotalPayout))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %.2f |\n", k.ProfitFactor))
	sb.WriteString(fmt.Sprintf("| Sessions | %d |\n", k.SessionsOpened))
	sb.WriteString(fmt.Sprintf("| Wins / Stops / Skipped | %d / %d / %d |\n", k.Wins, k.StopLosses, k.SkippedWins))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", k.WinRate*100))
	sb.WriteString(fmt.Sprintf("| Avg Steps To Win | %.2f |\n", k.AvgStepsToWin))
	sb.WriteString(fmt.Sprintf("| Avg Monthly P&L | %.2f |\n", k.AvgMonthlyPnL))
	sb.WriteString(fmt.Sprintf("| Last 3 Months Avg | %.2f |\n", k.LastThreeMonthsAvg))
	sb.WriteString("\n")

	// Risk
	rk := r.Risk
	sb.WriteString("## Risk\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Peak Equity | %.2f |\n", rk.Peak))
	sb.WriteString(fmt.Sprintf("| Trough Equity | %.2f |\n", rk.Trough))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.2f |\n", rk.MaxDrawdown))
	sb.WriteString(fmt.Sprintf("| Max Consecutive Stops | %d |\n", rk.MaxConsecutiveStops))
	sb.WriteString(fmt.Sprintf("| Worst-Case Ladder Cost | %.2f |\n", rk.WorstCaseLadderCost))
	sb.WriteString(fmt.Sprintf("| Recommended Bankroll | %.2f |\n", rk.RecommendedBankroll))
	if rk.Busted {
		sb.WriteString("\n**Bankroll exhausted.** No sessions opened after the bust.\n")
	}
	sb.WriteString("\n")

	// Session distribution
	s := r.SessionStats
	sb.WriteString("## Session P&L\n\n")
	if s.Count > 0 {
		sb.WriteString("| Sessions | Mean | Stddev | Min | P10 | Median | P90 | Max |\n")
		sb.WriteString("|----------|------|--------|-----|-----|--------|-----|-----|\n")
		sb.WriteString(fmt.Sprintf("| %d | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f |\n",
			s.Count, s.Mean, s.Stddev, s.Min, s.P10, s.Median, s.P90, s.Max))
	} else {
		sb.WriteString("No closed sessions.\n")
	}
	sb.WriteString("\n")

	// Top gaps
	sb.WriteString("## Longest Gaps\n\n")
	if len(r.TopGaps) > 0 {
		sb.WriteString("| # | Length | Ended | Race |\n")
		sb.WriteString("|---|--------|-------|------|\n")
		for i, g := range r.TopGaps {
			sb.WriteString(fmt.Sprintf("| %d | %d | %s | %d |\n",
				i+1, g.Length, g.EndDate.Format(domain.DateLayout), g.EndSequence))
		}
	} else {
		sb.WriteString("No completed gaps.\n")
	}
	sb.WriteString("\n")

	// Monthly
	sb.WriteString("## Monthly P&L\n\n")
	if len(r.Monthly) > 0 {
		sb.WriteString("| Month | P&L | Sessions | Wins | Stops | End Equity |\n")
		sb.WriteString("|-------|-----|----------|------|-------|------------|\n")
		for _, m := range r.Monthly {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %d | %d | %d | %.2f |\n",
				m.Month, m.PnL, m.Sessions, m.Wins, m.Stops, m.EndEquity))
		}
	} else {
		sb.WriteString("No monthly data available.\n")
	}
	sb.WriteString("\n")

	// Per race
	sb.WriteString("## Performance By Race\n\n")
	if len(r.BySequence) > 0 {
		sb.WriteString("| Race | Wagers | Wins | WinRate | P&L |\n")
		sb.WriteString("|------|--------|------|---------|-----|\n")
		for _, q := range r.BySequence {
			sb.WriteString(fmt.Sprintf("| %d | %d | %d | %.4f | %.2f |\n",
				q.SequenceIndex, q.Wagers, q.Wins, q.WinRate, q.PnL))
		}
	} else {
		sb.WriteString("No wagers placed.\n")
	}
	sb.WriteString("\n")

	// Stop clustering
	sb.WriteString("## Stop-Loss Clustering\n\n")
	if len(r.StopClusters) > 0 {
		sb.WriteString("| Consecutive Stops | Occurrences |\n")
		sb.WriteString("|-------------------|-------------|\n")
		for _, c := range r.StopClusters {
			sb.WriteString(fmt.Sprintf("| %d | %d |\n", c.Length, c.Count))
		}
	} else {
		sb.WriteString("No stop-losses.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// RenderLeaderboardMarkdown renders a sweep leaderboard as Markdown string.
func RenderLeaderboardMarkdown(l *LeaderboardReport) string {
	var sb strings.Builder

	sb.WriteString("# Sweep Leaderboard\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", l.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Batch: `%s` | Runs: %d\n\n", l.BatchID, l.Runs))

	if len(l.Rows) == 0 {
		sb.WriteString("No runs.\n")
		return sb.String()
	}

	sb.WriteString("| Rank | Run | Entry | Stake | Mult | Steps | Resets | Final Equity | MaxDD | PF | Wins | Stops | WinRate | Busted |\n")
	sb.WriteString("|------|-----|-------|-------|------|-------|--------|--------------|-------|----|------|-------|---------|--------|\n")
	for _, r := range l.Rows {
		busted := ""
		if r.Busted {
			busted = "yes"
		}
		sb.WriteString(fmt.Sprintf("| %d | `%s` | %s | %.2f | %.2f | %d | %d | %.2f | %.2f | %.2f | %d | %d | %.4f | %s |\n",
			r.Rank, r.RunID, r.EntryPolicy, r.BaseStake, r.StepMultiplier, r.MaxSteps, r.CooldownResets,
			r.FinalEquity, r.MaxDrawdown, r.ProfitFactor, r.Wins, r.StopLosses, r.WinRate, busted))
	}
	sb.WriteString("\n")

	return sb.String()
}
