package ledger

import (
	"math"
	"testing"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/session"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLedger_FixedStake(t *testing.T) {
	cfg := domain.DefaultSimulationConfig()
	cfg.BaseStake = 3
	l := New(cfg)

	if l.BaseStake() != 3 {
		t.Errorf("expected base stake 3, got %v", l.BaseStake())
	}
	if !math.IsInf(l.Budget(), 1) {
		t.Errorf("fixed mode budget must be unlimited, got %v", l.Budget())
	}
}

func TestLedger_FixedStakeIgnoresLadderSize(t *testing.T) {
	cfg := domain.DefaultSimulationConfig()
	cfg.MaxSteps = 1100

	l := New(cfg)
	if l.BaseStake() != cfg.BaseStake {
		t.Errorf("expected base stake %v, got %v", cfg.BaseStake, l.BaseStake())
	}
}

func TestLedger_CompoundingStake(t *testing.T) {
	cfg := domain.DefaultSimulationConfig()
	cfg.StakeMode = domain.StakeModeCompounding
	cfg.RiskFraction = 0.05
	cfg.StakeFloor = 2
	cfg.StepMultiplier = 2
	cfg.MaxSteps = 6 // units = 63
	cfg.RoundStakeCents = true

	tests := []struct {
		bankroll float64
		want     float64
	}{
		{1000, 2},     // 0.79 below floor
		{10000, 7.94}, // 500/63 = 7.936...
		{2520, 2},     // exactly floor
	}

	for _, tt := range tests {
		cfg.StartingBankroll = tt.bankroll
		l := New(cfg)
		if got := l.BaseStake(); !approx(got, tt.want) {
			t.Errorf("bankroll %v: expected stake %v, got %v", tt.bankroll, tt.want, got)
		}
		if l.Budget() != tt.bankroll {
			t.Errorf("bankroll %v: budget must equal bankroll, got %v", tt.bankroll, l.Budget())
		}
	}
}

func TestLedger_CompoundingAssumedTargets(t *testing.T) {
	cfg := domain.DefaultSimulationConfig()
	cfg.StakeMode = domain.StakeModeCompounding
	cfg.StartingBankroll = 12600
	cfg.RiskFraction = 0.1
	cfg.StakeFloor = 1
	cfg.AssumedAvgTargets = 2 // units = 63 × 2 = 126

	if got := New(cfg).BaseStake(); !approx(got, 10) {
		t.Errorf("expected stake 10, got %v", got)
	}
}

func TestLedger_ApplyAndCounters(t *testing.T) {
	l := New(domain.DefaultSimulationConfig())

	l.Apply(session.Resolution{Outcome: domain.OutcomeLoss, Opened: true, Step: 1, Cost: 2})
	l.Mark()
	l.Apply(session.Resolution{Outcome: domain.OutcomeWin, Step: 2, Cost: 4, Payout: 18})
	l.Mark()
	l.Apply(session.Resolution{Outcome: domain.OutcomeStop, Opened: true, Step: 1, Cost: 2})
	l.Mark()
	l.Apply(session.Resolution{Outcome: domain.OutcomeStop, Opened: true, Step: 1, Cost: 2})
	l.Mark()

	if !approx(l.Equity(), 8) {
		t.Errorf("expected equity 8, got %v", l.Equity())
	}
	if l.Sessions() != 3 || l.Wins() != 1 || l.StopLosses() != 2 {
		t.Errorf("unexpected counters: sessions=%d wins=%d stops=%d", l.Sessions(), l.Wins(), l.StopLosses())
	}
	if l.MaxConsecutiveStops() != 2 {
		t.Errorf("expected 2 consecutive stops, got %d", l.MaxConsecutiveStops())
	}
	if l.AvgStepsToWin() != 2 {
		t.Errorf("expected avg steps 2, got %v", l.AvgStepsToWin())
	}
	if !approx(l.Peak(), 12) || !approx(l.Trough(), -2) {
		t.Errorf("expected peak 12 trough -2, got %v %v", l.Peak(), l.Trough())
	}
	if !approx(l.MaxDrawdown(), 4) {
		t.Errorf("expected max drawdown 4, got %v", l.MaxDrawdown())
	}
	// gross profit 14, gross loss 6
	if !approx(l.ProfitFactor(), 14.0/6.0) {
		t.Errorf("expected profit factor 2.333, got %v", l.ProfitFactor())
	}
	if !approx(l.TotalCost(), 10) || !approx(l.TotalPayout(), 18) {
		t.Errorf("unexpected totals cost=%v payout=%v", l.TotalCost(), l.TotalPayout())
	}
}

func TestLedger_ConsecutiveStopsResetOnWin(t *testing.T) {
	l := New(domain.DefaultSimulationConfig())
	for _, o := range []domain.Outcome{domain.OutcomeStop, domain.OutcomeWin, domain.OutcomeStop, domain.OutcomeStop, domain.OutcomeStop, domain.OutcomeWin, domain.OutcomeStop} {
		l.Apply(session.Resolution{Outcome: o, Step: 1})
	}
	if l.MaxConsecutiveStops() != 3 {
		t.Errorf("expected 3, got %d", l.MaxConsecutiveStops())
	}
}

func TestLedger_ProfitFactorSentinels(t *testing.T) {
	empty := New(domain.DefaultSimulationConfig())
	if empty.ProfitFactor() != 0 {
		t.Errorf("expected 0 without trades, got %v", empty.ProfitFactor())
	}

	l := New(domain.DefaultSimulationConfig())
	l.Apply(session.Resolution{Outcome: domain.OutcomeWin, Step: 1, Cost: 1, Payout: 9})
	if l.ProfitFactor() != ProfitFactorSentinel {
		t.Errorf("expected sentinel, got %v", l.ProfitFactor())
	}
}

func TestLedger_BustAndSkipped(t *testing.T) {
	l := New(domain.DefaultSimulationConfig())
	l.Apply(session.Resolution{Outcome: domain.OutcomeSkipped, Step: 3})
	l.Apply(session.Resolution{Outcome: domain.OutcomeBust, Opened: true, Step: 1})

	if l.SkippedWins() != 1 {
		t.Errorf("expected 1 skipped win, got %d", l.SkippedWins())
	}
	if !l.Busted() {
		t.Error("expected busted")
	}
	if l.Equity() != 0 {
		t.Errorf("skipped and bust must not move equity, got %v", l.Equity())
	}
}

func TestLedger_AppendStampsEquity(t *testing.T) {
	cfg := domain.DefaultSimulationConfig()
	cfg.StartingBankroll = 100
	l := New(cfg)

	l.Apply(session.Resolution{Outcome: domain.OutcomeLoss, Step: 1, Cost: 2})
	rec := &domain.TradeRecord{Outcome: domain.OutcomeLoss, PnL: -2}
	l.Append(rec)

	if rec.Equity != 98 {
		t.Errorf("expected equity 98 on record, got %v", rec.Equity)
	}
	trades := l.Trades()
	if len(trades) != 1 || trades[0] != rec {
		t.Errorf("unexpected trade log %v", trades)
	}
	if l.StartingEquity() != 100 {
		t.Errorf("expected starting equity 100, got %v", l.StartingEquity())
	}
}
