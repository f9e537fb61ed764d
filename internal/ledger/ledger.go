// Package ledger accumulates realized profit and loss, tracks equity peaks
// and troughs, sizes session stakes and keeps the append-only trade log.
package ledger

import (
	"math"

	"github.com/shopspring/decimal"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/session"
)

// ProfitFactorSentinel is reported when there is profit but no loss.
const ProfitFactorSentinel = 999.0

// Ledger is the equity ledger of one simulation. Amounts are kept as decimals
// so that long runs do not drift; accessors return float64.
// Not safe for concurrent use.
type Ledger struct {
	mode       domain.StakeMode
	baseStake  decimal.Decimal
	risk       decimal.Decimal
	floor      decimal.Decimal
	units      decimal.Decimal
	roundCents bool

	starting    decimal.Decimal
	equity      decimal.Decimal
	peak        decimal.Decimal
	trough      decimal.Decimal
	maxDrawdown decimal.Decimal

	grossProfit decimal.Decimal
	grossLoss   decimal.Decimal
	totalCost   decimal.Decimal
	totalPayout decimal.Decimal

	sessions            int
	wins                int
	stops               int
	skipped             int
	consecutiveStops    int
	maxConsecutiveStops int
	stepsToWin          int
	busted              bool

	trades []*domain.TradeRecord
}

// New creates a ledger holding cfg.StartingBankroll.
func New(cfg domain.SimulationConfig) *Ledger {
	start := decimal.NewFromFloat(cfg.StartingBankroll)
	l := &Ledger{
		mode:       cfg.StakeMode,
		baseStake:  decimal.NewFromFloat(cfg.BaseStake),
		roundCents: cfg.RoundStakeCents,
		starting:   start,
		equity:     start,
		peak:       start,
		trough:     start,
	}
	if cfg.StakeMode == domain.StakeModeCompounding {
		l.risk = decimal.NewFromFloat(cfg.RiskFraction)
		l.floor = decimal.NewFromFloat(cfg.StakeFloor)
		l.units = decimal.NewFromFloat(cfg.WorstCaseLadderUnits())
	}
	return l
}

// BaseStake returns the step-1 stake for a session opening now.
// Fixed mode: the configured stake. Compounding mode:
// max(floor, bankroll × riskFraction / worstCaseLadderUnits).
func (l *Ledger) BaseStake() float64 {
	if l.mode != domain.StakeModeCompounding {
		return l.baseStake.InexactFloat64()
	}
	stake := l.floor
	if l.units.IsPositive() {
		sized := l.equity.Mul(l.risk).Div(l.units)
		if sized.GreaterThan(stake) {
			stake = sized
		}
	}
	if l.roundCents {
		stake = stake.Round(2)
	}
	return stake.InexactFloat64()
}

// Budget returns the most a single step may cost: the bankroll in
// compounding mode, unlimited otherwise.
func (l *Ledger) Budget() float64 {
	if l.mode != domain.StakeModeCompounding {
		return math.Inf(1)
	}
	return l.equity.InexactFloat64()
}

// Apply books one resolution: debits cost, credits payout and updates counters.
func (l *Ledger) Apply(res session.Resolution) {
	if res.Opened {
		l.sessions++
	}

	cost := decimal.NewFromFloat(res.Cost)
	payout := decimal.NewFromFloat(res.Payout)
	pnl := payout.Sub(cost)

	l.equity = l.equity.Add(pnl)
	l.totalCost = l.totalCost.Add(cost)
	l.totalPayout = l.totalPayout.Add(payout)
	if pnl.IsPositive() {
		l.grossProfit = l.grossProfit.Add(pnl)
	} else if pnl.IsNegative() {
		l.grossLoss = l.grossLoss.Add(pnl.Neg())
	}

	switch res.Outcome {
	case domain.OutcomeWin:
		l.wins++
		l.stepsToWin += res.Step
		l.consecutiveStops = 0
	case domain.OutcomeStop:
		l.stops++
		l.consecutiveStops++
		if l.consecutiveStops > l.maxConsecutiveStops {
			l.maxConsecutiveStops = l.consecutiveStops
		}
	case domain.OutcomeSkipped:
		l.skipped++
	case domain.OutcomeBust:
		l.busted = true
	}
}

// Mark updates peak, trough and drawdown. Called after every event.
func (l *Ledger) Mark() {
	if l.equity.GreaterThan(l.peak) {
		l.peak = l.equity
	}
	if l.equity.LessThan(l.trough) {
		l.trough = l.equity
	}
	if dd := l.peak.Sub(l.equity); dd.GreaterThan(l.maxDrawdown) {
		l.maxDrawdown = dd
	}
}

// Append adds a record to the trade log, stamping the current equity.
func (l *Ledger) Append(rec *domain.TradeRecord) {
	rec.Equity = l.equity.InexactFloat64()
	l.trades = append(l.trades, rec)
}

// Trades returns the trade log.
func (l *Ledger) Trades() []*domain.TradeRecord {
	out := make([]*domain.TradeRecord, len(l.trades))
	copy(out, l.trades)
	return out
}

// StartingEquity returns the configured starting bankroll.
func (l *Ledger) StartingEquity() float64 { return l.starting.InexactFloat64() }

// Equity returns current equity.
func (l *Ledger) Equity() float64 { return l.equity.InexactFloat64() }

// Peak returns the highest equity seen.
func (l *Ledger) Peak() float64 { return l.peak.InexactFloat64() }

// Trough returns the lowest equity seen.
func (l *Ledger) Trough() float64 { return l.trough.InexactFloat64() }

// MaxDrawdown returns the largest peak-to-equity decline.
func (l *Ledger) MaxDrawdown() float64 { return l.maxDrawdown.InexactFloat64() }

// GrossProfit returns the sum of positive trade P&L.
func (l *Ledger) GrossProfit() float64 { return l.grossProfit.InexactFloat64() }

// GrossLoss returns the absolute sum of negative trade P&L.
func (l *Ledger) GrossLoss() float64 { return l.grossLoss.InexactFloat64() }

// TotalCost returns everything wagered.
func (l *Ledger) TotalCost() float64 { return l.totalCost.InexactFloat64() }

// TotalPayout returns everything won.
func (l *Ledger) TotalPayout() float64 { return l.totalPayout.InexactFloat64() }

// Sessions returns the number of sessions opened.
func (l *Ledger) Sessions() int { return l.sessions }

// Wins returns sessions closed by a win.
func (l *Ledger) Wins() int { return l.wins }

// StopLosses returns sessions closed at the step limit.
func (l *Ledger) StopLosses() int { return l.stops }

// SkippedWins returns sessions abandoned on an ineligible repeat.
func (l *Ledger) SkippedWins() int { return l.skipped }

// MaxConsecutiveStops returns the longest run of stop-losses without a win between.
func (l *Ledger) MaxConsecutiveStops() int { return l.maxConsecutiveStops }

// Busted reports whether a step could not be afforded.
func (l *Ledger) Busted() bool { return l.busted }

// AvgStepsToWin returns the mean winning step, 0 without wins.
func (l *Ledger) AvgStepsToWin() float64 {
	if l.wins == 0 {
		return 0
	}
	return float64(l.stepsToWin) / float64(l.wins)
}

// ProfitFactor returns gross profit over gross loss.
// ProfitFactorSentinel when there is profit and no loss, 0 when both are 0.
func (l *Ledger) ProfitFactor() float64 {
	if l.grossLoss.IsZero() {
		if l.grossProfit.IsPositive() {
			return ProfitFactorSentinel
		}
		return 0
	}
	return l.grossProfit.Div(l.grossLoss).InexactFloat64()
}
