// Package metrics computes post-hoc statistics over a finished simulation:
// monthly income, per-race win rates, session P&L distribution and
// stop-loss clustering.
package metrics

import (
	"sort"
	"time"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/simulation"
)

// MonthLayout keys monthly rows.
const MonthLayout = "2006-01"

// Bankroll recommendation: 1.5 × max drawdown, never below the floor.
const (
	BankrollDrawdownMultiple = 1.5
	BankrollFloor            = 2000.0
)

// Session is one closed wagering session reconstructed from the trade log.
type Session struct {
	Start   time.Time
	End     time.Time
	Steps   int
	Outcome domain.Outcome
	PnL     float64
}

// SessionStats describes the distribution of closed-session net P&L.
type SessionStats struct {
	Count   int
	Mean    float64
	Stddev  float64
	Min     float64
	P10     float64
	P25     float64
	Median  float64
	P75     float64
	P90     float64
	Max     float64
	MaxLoss float64 // worst peak-to-trough over cumulative session P&L
}

// MonthPnL is the realized P&L of one calendar month.
type MonthPnL struct {
	Month     string
	PnL       float64
	Sessions  int
	Wins      int
	Stops     int
	EndEquity float64
}

// SequenceStats is wager performance at one race index.
type SequenceStats struct {
	SequenceIndex int
	Wagers        int
	Wins          int
	WinRate       float64
	PnL           float64
}

// StopCluster counts runs of consecutive stop-loss sessions of one length.
type StopCluster struct {
	Length int
	Count  int
}

// Summary holds every post-hoc statistic of one run.
type Summary struct {
	Sessions            []Session
	SessionStats        SessionStats
	Monthly             []MonthPnL
	AvgMonthlyPnL       float64
	LastThreeMonthsAvg  float64
	BySequence          []SequenceStats
	StopClusters        []StopCluster
	RecommendedBankroll float64
}

// Summarize computes all statistics for res.
func Summarize(res *simulation.Result) *Summary {
	sessions := Sessions(res.TradeLog)
	monthly := MonthlyPnL(res)

	s := &Summary{
		Sessions:            sessions,
		SessionStats:        ComputeSessionStats(sessions),
		Monthly:             monthly,
		AvgMonthlyPnL:       averageMonthly(monthly, len(monthly)),
		LastThreeMonthsAvg:  averageMonthly(monthly, 3),
		BySequence:          SequencePerformance(res.TradeLog),
		StopClusters:        StopClusters(sessions),
		RecommendedBankroll: RecommendedBankroll(res.MaxDrawdown),
	}
	return s
}

// Sessions groups wagering records into closed sessions. Cooldown records are
// ignored; a session still open at the end of the log is not reported.
func Sessions(trades []*domain.TradeRecord) []Session {
	var (
		out  []Session
		cur  Session
		open bool
	)
	for _, t := range trades {
		switch t.Outcome {
		case domain.OutcomeWin, domain.OutcomeLoss, domain.OutcomeStop,
			domain.OutcomeSkipped, domain.OutcomeBust:
		default:
			continue
		}
		if !open {
			cur = Session{Start: t.Date}
			open = true
		}
		cur.PnL += t.PnL
		if t.Step > cur.Steps {
			cur.Steps = t.Step
		}
		if t.Outcome.ClosesSession() {
			cur.End = t.Date
			cur.Outcome = t.Outcome
			out = append(out, cur)
			open = false
		}
	}
	return out
}

// ComputeSessionStats summarizes session net P&L.
func ComputeSessionStats(sessions []Session) SessionStats {
	n := len(sessions)
	if n == 0 {
		return SessionStats{}
	}

	pnl := make([]float64, n)
	for i, s := range sessions {
		pnl[i] = s.PnL
	}
	smp := newSample(pnl)

	return SessionStats{
		Count:   n,
		Mean:    smp.mean(),
		Stddev:  smp.stddev(),
		Min:     smp.min(),
		P10:     smp.quantile(0.10),
		P25:     smp.quantile(0.25),
		Median:  smp.quantile(0.50),
		P75:     smp.quantile(0.75),
		P90:     smp.quantile(0.90),
		Max:     smp.max(),
		MaxLoss: smp.drawdown(),
	}
}

// MonthlyPnL returns one row per calendar month touched by the run, in order.
// Months come from the daily equity curve so that idle months report zero.
func MonthlyPnL(res *simulation.Result) []MonthPnL {
	var (
		rows  []MonthPnL
		index = make(map[string]int)
	)
	row := func(date time.Time) *MonthPnL {
		key := date.Format(MonthLayout)
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, MonthPnL{Month: key})
		}
		return &rows[i]
	}

	for _, p := range res.DailyEquity {
		row(p.Date).EndEquity = p.Equity
	}
	for _, s := range Sessions(res.TradeLog) {
		r := row(s.End)
		r.Sessions++
		switch s.Outcome {
		case domain.OutcomeWin:
			r.Wins++
		case domain.OutcomeStop:
			r.Stops++
		}
	}
	for _, t := range res.TradeLog {
		row(t.Date).PnL += t.PnL
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	return rows
}

// averageMonthly averages the P&L of the last n months (fewer if the run is shorter).
func averageMonthly(rows []MonthPnL, n int) float64 {
	if n > len(rows) {
		n = len(rows)
	}
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range rows[len(rows)-n:] {
		sum += r.PnL
	}
	return sum / float64(n)
}

// SequencePerformance aggregates wagers by race index, ascending.
func SequencePerformance(trades []*domain.TradeRecord) []SequenceStats {
	bySeq := make(map[int]*SequenceStats)
	for _, t := range trades {
		switch t.Outcome {
		case domain.OutcomeWin, domain.OutcomeLoss, domain.OutcomeStop:
		default:
			continue
		}
		s, ok := bySeq[t.SequenceIndex]
		if !ok {
			s = &SequenceStats{SequenceIndex: t.SequenceIndex}
			bySeq[t.SequenceIndex] = s
		}
		s.Wagers++
		s.PnL += t.PnL
		if t.Outcome == domain.OutcomeWin {
			s.Wins++
		}
	}

	out := make([]SequenceStats, 0, len(bySeq))
	for _, s := range bySeq {
		s.WinRate = ratio(s.Wins, s.Wagers)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceIndex < out[j].SequenceIndex })
	return out
}

// StopClusters histograms runs of stop-loss sessions. Only a win ends a run,
// matching how the ledger counts consecutive stops.
func StopClusters(sessions []Session) []StopCluster {
	counts := make(map[int]int)
	run := 0
	for _, s := range sessions {
		switch s.Outcome {
		case domain.OutcomeStop:
			run++
		case domain.OutcomeWin:
			if run > 0 {
				counts[run]++
			}
			run = 0
		}
	}
	if run > 0 {
		counts[run]++
	}

	out := make([]StopCluster, 0, len(counts))
	for length, count := range counts {
		out = append(out, StopCluster{Length: length, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Length < out[j].Length })
	return out
}

// RecommendedBankroll suggests capital able to absorb the observed drawdown.
func RecommendedBankroll(maxDrawdown float64) float64 {
	rec := maxDrawdown * BankrollDrawdownMultiple
	if rec < BankrollFloor {
		return BankrollFloor
	}
	return rec
}
