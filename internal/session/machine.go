// Package session implements the staking ladder: a two-state machine that
// opens on an entry signal, grows the stake geometrically on each loss and
// closes on a win or at the step limit.
package session

import (
	"errors"
	"math"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/strategy"
)

// State of the machine.
type State int

// Machine states.
const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "OPEN"
	}
	return "CLOSED"
}

// ErrNoEntryPolicy is returned by NewMachine when policy is nil.
var ErrNoEntryPolicy = errors.New("session: entry policy is required")

// Ladder holds the staking parameters.
type Ladder struct {
	StepMultiplier float64
	PayoutOdds     float64
	MaxSteps       int
}

// LadderFromConfig extracts the ladder parameters of cfg.
func LadderFromConfig(cfg domain.SimulationConfig) Ladder {
	return Ladder{
		StepMultiplier: cfg.StepMultiplier,
		PayoutOdds:     cfg.PayoutOdds,
		MaxSteps:       cfg.MaxSteps,
	}
}

// Input is one eligible event as seen by the machine.
type Input struct {
	Gap      int  // gap before this event resolves
	IsRepeat bool // event is a win for an open session
	Targets  int  // distinct values covered by the wager

	// EntryAllowed is false while cooling down, warming up or after a bust.
	EntryAllowed bool

	// BaseStake is the step-1 stake if this event opens a session.
	BaseStake float64

	// Budget is the most this step may cost; a costlier step busts the session.
	Budget float64
}

// Resolution is the machine's verdict on one event.
// The zero value means nothing happened.
type Resolution struct {
	Outcome   domain.Outcome
	Opened    bool // session opened on this event
	Step      int  // step wagered
	Stake     float64
	Targets   int
	Cost      float64
	Payout    float64
	Threshold int // entry threshold in force when the session opened
}

// PnL is payout minus cost.
func (r Resolution) PnL() float64 {
	return r.Payout - r.Cost
}

// Wagered reports whether a stake was placed.
func (r Resolution) Wagered() bool {
	return r.Outcome == domain.OutcomeWin || r.Outcome == domain.OutcomeLoss || r.Outcome == domain.OutcomeStop
}

// Machine is the session state machine. At most one session is open at a time.
// Not safe for concurrent use.
type Machine struct {
	ladder Ladder
	policy strategy.EntryPolicy

	state     State
	step      int
	stake     float64
	threshold int
}

// NewMachine creates a closed machine.
func NewMachine(ladder Ladder, policy strategy.EntryPolicy) (*Machine, error) {
	if policy == nil {
		return nil, ErrNoEntryPolicy
	}
	return &Machine{ladder: ladder, policy: policy}, nil
}

// Evaluate resolves one eligible event.
func (m *Machine) Evaluate(in Input) Resolution {
	if in.Targets <= 0 {
		return Resolution{}
	}

	var opened bool
	if m.state == Closed {
		if !in.EntryAllowed || !m.policy.Ready(in.Gap) {
			return Resolution{}
		}
		m.state = Open
		m.step = 1
		m.stake = in.BaseStake
		m.threshold = m.policy.Threshold()
		opened = true
	}

	res := Resolution{
		Opened:    opened,
		Step:      m.step,
		Stake:     m.stake,
		Targets:   in.Targets,
		Threshold: m.threshold,
	}
	cost := m.stake * float64(in.Targets)

	// A cost or payout that no longer fits a float64 cannot be booked.
	if cost > in.Budget || math.IsInf(cost, 0) || math.IsInf(m.stake*m.ladder.PayoutOdds, 0) {
		res.Outcome = domain.OutcomeBust
		m.close()
		return res
	}
	res.Cost = cost

	switch {
	case in.IsRepeat:
		res.Outcome = domain.OutcomeWin
		res.Payout = m.stake * m.ladder.PayoutOdds
		m.close()
	case m.step >= m.ladder.MaxSteps:
		res.Outcome = domain.OutcomeStop
		m.close()
	default:
		res.Outcome = domain.OutcomeLoss
		m.stake *= m.ladder.StepMultiplier
		m.step++
	}
	return res
}

// Abandon closes an open session without a win or loss.
// Returns the zero Resolution when no session is open.
func (m *Machine) Abandon() Resolution {
	if m.state != Open {
		return Resolution{}
	}
	res := Resolution{
		Outcome:   domain.OutcomeSkipped,
		Step:      m.step,
		Stake:     m.stake,
		Threshold: m.threshold,
	}
	m.close()
	return res
}

func (m *Machine) close() {
	m.state = Closed
	m.step = 0
	m.stake = 0
	m.threshold = 0
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// IsOpen reports whether a session is open.
func (m *Machine) IsOpen() bool {
	return m.state == Open
}

// Step returns the step the next eligible event will be wagered at, or 0 when closed.
func (m *Machine) Step() int {
	return m.step
}

// Stake returns the stake of the next wager, or 0 when closed.
func (m *Machine) Stake() float64 {
	return m.stake
}

// Policy returns the entry policy.
func (m *Machine) Policy() strategy.EntryPolicy {
	return m.policy
}
