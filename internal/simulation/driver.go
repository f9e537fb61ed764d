// Package simulation composes the stream, gap, session, cooldown and ledger
// components into one deterministic pass over an outcome event sequence.
package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"drawgap-lab/internal/cooldown"
	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/gap"
	"drawgap-lab/internal/idhash"
	"drawgap-lab/internal/ledger"
	"drawgap-lab/internal/observability"
	"drawgap-lab/internal/replay"
	"drawgap-lab/internal/session"
	"drawgap-lab/internal/strategy"
	"drawgap-lab/internal/threshold"
)

// Driver owns all mutable state of one simulation run.
// Drivers share nothing; run one per goroutine.
type Driver struct {
	cfg     domain.SimulationConfig
	runID   string
	log     zerolog.Logger
	metrics *observability.Metrics
	topGaps int

	policy   strategy.EntryPolicy
	machine  *session.Machine
	gaps     *gap.Tracker
	cooldown *cooldown.Controller
	ledger   *ledger.Ledger

	events   int
	eligible int
	days     int
	day      time.Time
	daily    []domain.EquityPoint
}

var _ replay.ReplayEngine = (*Driver)(nil)

// NewDriver validates cfg and creates a driver with fresh state.
// Returns the joined *domain.InvalidConfigurationError values on bad config.
func NewDriver(cfg domain.SimulationConfig, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	policy, err := strategy.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	machine, err := session.NewMachine(session.LadderFromConfig(cfg), policy)
	if err != nil {
		return nil, err
	}

	d := &Driver{
		cfg:      cfg,
		runID:    idhash.ComputeRunID(cfg),
		log:      zerolog.Nop(),
		topGaps:  DefaultTopGaps,
		policy:   policy,
		machine:  machine,
		gaps:     gap.NewTracker(),
		cooldown: cooldown.NewController(cfg.RequiredResets),
		ledger:   ledger.New(cfg),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With().Str("run_id", d.runID[:12]).Logger()
	return d, nil
}

// RunID returns the deterministic run identifier.
func (d *Driver) RunID() string {
	return d.runID
}

// OnEvent applies one event. Never fails: every event shape has a defined outcome.
func (d *Driver) OnEvent(_ context.Context, ev *domain.OutcomeEvent) error {
	d.step(ev)
	return nil
}

// step runs the per-event pipeline: cooldown or session, then gap, then ledger,
// then trade log.
func (d *Driver) step(ev *domain.OutcomeEvent) {
	d.advanceDay(ev.Date)
	d.events++

	gapBefore := d.gaps.Current()

	var (
		res        session.Resolution
		transition cooldown.Transition
		note       string
	)

	switch {
	case d.cooldown.Active():
		transition = d.cooldown.Observe(ev.CountsTowardGap, ev.IsRepeat)
		switch transition {
		case cooldown.Reset:
			note = fmt.Sprintf("cooldown reset %d/%d", d.cooldown.Resets(), d.cooldown.Required())
		case cooldown.End:
			note = fmt.Sprintf("cooldown over after %d resets", d.cooldown.Required())
			d.log.Debug().Str("date", ev.Date.Format(domain.DateLayout)).Int("race", ev.SequenceIndex).Msg("cooldown ended")
		}
	case ev.IsWagerEligible:
		d.eligible++
		res = d.machine.Evaluate(session.Input{
			Gap:          gapBefore,
			IsRepeat:     ev.IsRepeat,
			Targets:      ev.TargetsCount(),
			EntryAllowed: d.entryAllowed(),
			BaseStake:    d.ledger.BaseStake(),
			Budget:       d.ledger.Budget(),
		})
		note = d.describe(res, gapBefore)
		if res.Outcome == domain.OutcomeStop && d.cfg.CooldownEnabled {
			d.cooldown.Engage()
			note += fmt.Sprintf("; cooldown engaged (0/%d)", d.cooldown.Required())
		}
	case ev.IsRepeat && d.cfg.AbandonOnIneligibleRepeat && d.machine.IsOpen():
		res = d.machine.Abandon()
		note = fmt.Sprintf("repeat on ineligible race %d; session abandoned at step %d", ev.SequenceIndex, res.Step)
	}

	if completed, ok := d.gaps.Record(ev); ok {
		d.policy.Observe(completed.Length)
	}

	d.ledger.Apply(res)
	d.ledger.Mark()

	if res.Outcome == domain.OutcomeNone && transition == cooldown.None {
		return
	}

	outcome := res.Outcome
	switch transition {
	case cooldown.Reset:
		outcome = domain.OutcomeCooldownReset
	case cooldown.End:
		outcome = domain.OutcomeCooldownEnd
	}

	d.ledger.Append(&domain.TradeRecord{
		Date:          ev.Date,
		SequenceIndex: ev.SequenceIndex,
		Value:         ev.Value,
		Gap:           d.gaps.Current(),
		Step:          res.Step,
		Stake:         res.Stake,
		Targets:       res.Targets,
		Cost:          res.Cost,
		Payout:        res.Payout,
		PnL:           res.PnL(),
		Outcome:       outcome,
		Note:          note,
	})

	if outcome.ClosesSession() {
		d.log.Debug().
			Str("date", ev.Date.Format(domain.DateLayout)).
			Int("race", ev.SequenceIndex).
			Str("outcome", string(outcome)).
			Int("step", res.Step).
			Float64("equity", d.ledger.Equity()).
			Msg("session closed")
		if d.metrics != nil {
			d.metrics.RecordSessionClosed(string(outcome))
		}
	}
}

// entryAllowed gates new sessions on warm-up and bust. Cooldown is handled
// before the session machine is consulted.
func (d *Driver) entryAllowed() bool {
	return !d.ledger.Busted() && d.days > d.cfg.WarmupDays
}

func (d *Driver) describe(res session.Resolution, gapBefore int) string {
	var note string
	if res.Opened {
		note = fmt.Sprintf("entry at gap %d (threshold %d)", gapBefore, res.Threshold)
		d.log.Debug().Int("gap", gapBefore).Int("threshold", res.Threshold).Float64("stake", res.Stake).Msg("session opened")
	}

	var verdict string
	switch res.Outcome {
	case domain.OutcomeWin:
		verdict = fmt.Sprintf("win at step %d", res.Step)
	case domain.OutcomeLoss:
		verdict = fmt.Sprintf("loss at step %d", res.Step)
	case domain.OutcomeStop:
		verdict = fmt.Sprintf("stop-loss at step %d", res.Step)
	case domain.OutcomeBust:
		verdict = fmt.Sprintf("bust: step %d cost %.2f exceeds bankroll %.2f",
			res.Step, res.Stake*float64(res.Targets), d.ledger.Equity())
	default:
		return note
	}
	if note == "" {
		return verdict
	}
	return note + "; " + verdict
}

// advanceDay closes the previous day's equity point when the date changes.
func (d *Driver) advanceDay(date time.Time) {
	if d.days > 0 && date.Equal(d.day) {
		return
	}
	if d.days > 0 {
		d.daily = append(d.daily, domain.EquityPoint{Date: d.day, Equity: d.ledger.Equity()})
	}
	d.days++
	d.day = date
}

// Result snapshots the run. Safe to call more than once.
func (d *Driver) Result() *Result {
	daily := make([]domain.EquityPoint, len(d.daily), len(d.daily)+1)
	copy(daily, d.daily)
	if d.days > 0 {
		daily = append(daily, domain.EquityPoint{Date: d.day, Equity: d.ledger.Equity()})
	}

	finalThreshold := d.policy.Threshold()
	if finalThreshold == threshold.Unreachable {
		finalThreshold = -1
	}

	return &Result{
		RunID:               d.runID,
		Config:              d.cfg,
		StartingEquity:      d.ledger.StartingEquity(),
		FinalEquity:         d.ledger.Equity(),
		Peak:                d.ledger.Peak(),
		Trough:              d.ledger.Trough(),
		MaxDrawdown:         d.ledger.MaxDrawdown(),
		TotalCost:           d.ledger.TotalCost(),
		TotalPayout:         d.ledger.TotalPayout(),
		GrossProfit:         d.ledger.GrossProfit(),
		GrossLoss:           d.ledger.GrossLoss(),
		ProfitFactor:        d.ledger.ProfitFactor(),
		SessionsOpened:      d.ledger.Sessions(),
		Wins:                d.ledger.Wins(),
		StopLosses:          d.ledger.StopLosses(),
		SkippedWins:         d.ledger.SkippedWins(),
		Busted:              d.ledger.Busted(),
		MaxConsecutiveStops: d.ledger.MaxConsecutiveStops(),
		AvgStepsToWin:       d.ledger.AvgStepsToWin(),
		EventCount:          d.events,
		EligibleCount:       d.eligible,
		DayCount:            d.days,
		CompletedGapCount:   d.gaps.Count(),
		FinalGap:            d.gaps.Current(),
		FinalThreshold:      finalThreshold,
		LongestGaps:         d.gaps.Longest(d.topGaps),
		TradeLog:            d.ledger.Trades(),
		DailyEquity:         daily,
	}
}

// Run validates cfg and event ordering, replays events once and returns the result.
// Fails before any event is processed on invalid config or ordering.
func Run(ctx context.Context, events []*domain.OutcomeEvent, cfg domain.SimulationConfig, opts ...Option) (*Result, error) {
	start := time.Now()

	d, err := NewDriver(cfg, opts...)
	if err != nil {
		return nil, err
	}

	if err := replay.Replay(ctx, events, d); err != nil {
		if d.metrics != nil {
			d.metrics.RecordSimulation(observability.StatusError, time.Since(start).Seconds(), 0)
		}
		return nil, err
	}

	res := d.Result()
	if d.metrics != nil {
		d.metrics.EventsReplayed.Add(float64(res.EventCount))
		d.metrics.RecordSimulation(observability.StatusOK, time.Since(start).Seconds(), res.FinalEquity)
	}

	d.log.Info().
		Int("events", res.EventCount).
		Int("sessions", res.SessionsOpened).
		Int("wins", res.Wins).
		Int("stops", res.StopLosses).
		Float64("final_equity", res.FinalEquity).
		Float64("max_drawdown", res.MaxDrawdown).
		Msg("simulation finished")

	return res, nil
}
