package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"drawgap-lab/internal/domain"
)

// TradeLogHeader is the trade log CSV header.
var TradeLogHeader = []string{
	"date", "race_index", "value", "gap", "step", "stake", "targets",
	"cost", "payout", "pnl", "equity", "outcome", "note",
}

// WriteTradeLogCSV writes the trade log as CSV with a header row.
func WriteTradeLogCSV(w io.Writer, trades []*domain.TradeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TradeLogHeader); err != nil {
		return err
	}

	money := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	for _, t := range trades {
		row := []string{
			t.Date.Format(domain.DateLayout),
			strconv.Itoa(t.SequenceIndex),
			t.Value,
			strconv.Itoa(t.Gap),
			strconv.Itoa(t.Step),
			money(t.Stake),
			strconv.Itoa(t.Targets),
			money(t.Cost),
			money(t.Payout),
			money(t.PnL),
			money(t.Equity),
			string(t.Outcome),
			t.Note,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// RenderTradeLogCSV renders the trade log as CSV string.
func RenderTradeLogCSV(trades []*domain.TradeRecord) (string, error) {
	var sb strings.Builder
	if err := WriteTradeLogCSV(&sb, trades); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RenderLeaderboardCSV renders sweep rows as CSV string.
func RenderLeaderboardCSV(rows []LeaderboardRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("rank,run_id,entry_policy,base_stake,step_multiplier,max_steps,cooldown_resets,")
	sb.WriteString("final_equity,net_profit,max_drawdown,profit_factor,")
	sb.WriteString("wins,stop_losses,win_rate,max_consecutive_stops,busted\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%.2f,%.2f,%d,%d,%.2f,%.2f,%.2f,%.4f,%d,%d,%.4f,%d,%t\n",
			r.Rank,
			r.RunID,
			r.EntryPolicy,
			r.BaseStake,
			r.StepMultiplier,
			r.MaxSteps,
			r.CooldownResets,
			r.FinalEquity,
			r.NetProfit,
			r.MaxDrawdown,
			r.ProfitFactor,
			r.Wins,
			r.StopLosses,
			r.WinRate,
			r.MaxConsecutiveStops,
			r.Busted,
		))
	}

	return sb.String()
}
