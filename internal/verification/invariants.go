package verification

import (
	"fmt"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/simulation"
)

// Invariant rule names.
const (
	RuleEquityConsistency = "equity_consistency"
	RuleEquityChain       = "equity_chain"
	RuleStepBounds        = "step_bounds"
	RuleLadderContiguity  = "ladder_contiguity"
	RuleStopAtMax         = "stop_at_max_steps"
	RuleCostIdentity      = "cost_identity"
	RuleCooldownRespected = "cooldown_respected"
	RuleCounters          = "counters"
)

// Violation is one broken invariant.
type Violation struct {
	Index  int // trade log position, -1 for whole-run rules
	Rule   string
	Detail string
}

func (v Violation) String() string {
	if v.Index < 0 {
		return fmt.Sprintf("%s: %s", v.Rule, v.Detail)
	}
	return fmt.Sprintf("%s at record %d: %s", v.Rule, v.Index, v.Detail)
}

// CheckInvariants verifies the structural laws every result must obey:
// equity consistency, a contiguous single-session ladder bounded by max
// steps, cost and payout identities, and no wagers while cooling down.
func CheckInvariants(res *simulation.Result) []Violation {
	var (
		out []Violation
		cfg = res.Config
	)
	fail := func(i int, rule, format string, args ...interface{}) {
		out = append(out, Violation{Index: i, Rule: rule, Detail: fmt.Sprintf(format, args...)})
	}

	sumPnL := 0.0
	for _, t := range res.TradeLog {
		sumPnL += t.PnL
	}
	if !floatEquals(res.FinalEquity-res.StartingEquity, sumPnL) {
		fail(-1, RuleEquityConsistency, "final %v - starting %v != sum of pnl %v",
			res.FinalEquity, res.StartingEquity, sumPnL)
	}

	var (
		equity    = res.StartingEquity
		open      bool
		prevStep  int
		prevStake float64
		cooling   bool
		wins      int
		stops     int
	)

	for i, t := range res.TradeLog {
		equity += t.PnL
		if !floatEquals(equity, t.Equity) {
			fail(i, RuleEquityChain, "running equity %v, record says %v", equity, t.Equity)
		}

		switch t.Outcome {
		case domain.OutcomeCooldownReset:
			if !cooling {
				fail(i, RuleCooldownRespected, "cooldown reset outside a cooldown")
			}
			continue
		case domain.OutcomeCooldownEnd:
			if !cooling {
				fail(i, RuleCooldownRespected, "cooldown end outside a cooldown")
			}
			cooling = false
			continue
		}

		if cooling {
			fail(i, RuleCooldownRespected, "%s recorded during cooldown", t.Outcome)
		}

		if t.Step < 1 || t.Step > cfg.MaxSteps {
			fail(i, RuleStepBounds, "step %d outside [1, %d]", t.Step, cfg.MaxSteps)
		}

		if open {
			if t.Step != prevStep+1 {
				fail(i, RuleLadderContiguity, "step %d follows step %d", t.Step, prevStep)
			}
			if !floatEquals(t.Stake, prevStake*cfg.StepMultiplier) {
				fail(i, RuleLadderContiguity, "stake %v follows stake %v", t.Stake, prevStake)
			}
		} else if t.Step != 1 {
			fail(i, RuleLadderContiguity, "session starts at step %d", t.Step)
		}

		switch t.Outcome {
		case domain.OutcomeWin, domain.OutcomeLoss, domain.OutcomeStop:
			if !floatEquals(t.Cost, t.Stake*float64(t.Targets)) {
				fail(i, RuleCostIdentity, "cost %v != stake %v x targets %d", t.Cost, t.Stake, t.Targets)
			}
		default:
			if t.Cost != 0 {
				fail(i, RuleCostIdentity, "%s with cost %v", t.Outcome, t.Cost)
			}
		}
		wantPayout := 0.0
		if t.Outcome == domain.OutcomeWin {
			wantPayout = t.Stake * cfg.PayoutOdds
		}
		if !floatEquals(t.Payout, wantPayout) {
			fail(i, RuleCostIdentity, "payout %v, expected %v", t.Payout, wantPayout)
		}

		switch t.Outcome {
		case domain.OutcomeStop:
			stops++
			if t.Step != cfg.MaxSteps {
				fail(i, RuleStopAtMax, "stop at step %d, max is %d", t.Step, cfg.MaxSteps)
			}
			cooling = cfg.CooldownEnabled
		case domain.OutcomeLoss:
			if t.Step >= cfg.MaxSteps {
				fail(i, RuleStopAtMax, "loss at step %d did not stop", t.Step)
			}
		case domain.OutcomeWin:
			wins++
		}

		open = !t.Outcome.ClosesSession()
		prevStep, prevStake = t.Step, t.Stake
	}

	if wins != res.Wins || stops != res.StopLosses {
		fail(-1, RuleCounters, "log has %d wins %d stops, result says %d %d",
			wins, stops, res.Wins, res.StopLosses)
	}

	return out
}
