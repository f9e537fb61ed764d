package backtest

import (
	"context"
	"time"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/replay"
	"drawgap-lab/internal/simulation"
	"drawgap-lab/internal/stream"
)

// Results holds backtest output.
type Results struct {
	*simulation.Result
	Days    int
	Skipped []*domain.MalformedDayError
}

// Runner executes store-backed simulations.
type Runner struct {
	replayRunner *replay.Runner
	opts         []simulation.Option
}

// NewRunner creates a new backtest runner. opts apply to every driver it creates.
func NewRunner(replayRunner *replay.Runner, opts ...simulation.Option) *Runner {
	return &Runner{
		replayRunner: replayRunner,
		opts:         opts,
	}
}

// Run executes a backtest over days within [from, to].
func (r *Runner) Run(ctx context.Context, from, to time.Time, cfg domain.SimulationConfig) (*Results, error) {
	driver, err := simulation.NewDriver(cfg, r.opts...)
	if err != nil {
		return nil, err
	}

	summary, err := r.replayRunner.Run(ctx, from, to, stream.PolicyFromConfig(cfg), driver)
	if err != nil {
		return nil, err
	}

	return &Results{Result: driver.Result(), Days: summary.Days, Skipped: summary.Skipped}, nil
}

// RunAll executes a backtest over every stored day.
func (r *Runner) RunAll(ctx context.Context, cfg domain.SimulationConfig) (*Results, error) {
	results, err := r.RunMany(ctx, []domain.SimulationConfig{cfg})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// RunMany executes one backtest per config over every stored day.
// Configs sharing a stream policy are replayed together in one pass.
// Results are returned in config order.
func (r *Runner) RunMany(ctx context.Context, cfgs []domain.SimulationConfig) ([]*Results, error) {
	drivers := make([]*simulation.Driver, len(cfgs))
	groups := make(map[stream.Policy][]int)
	var order []stream.Policy

	for i, cfg := range cfgs {
		driver, err := simulation.NewDriver(cfg, r.opts...)
		if err != nil {
			return nil, err
		}
		drivers[i] = driver

		policy := stream.PolicyFromConfig(cfg)
		if _, seen := groups[policy]; !seen {
			order = append(order, policy)
		}
		groups[policy] = append(groups[policy], i)
	}

	results := make([]*Results, len(cfgs))
	for _, policy := range order {
		idx := groups[policy]
		engines := make([]replay.ReplayEngine, len(idx))
		for j, i := range idx {
			engines[j] = drivers[i]
		}

		summary, err := r.replayRunner.RunAll(ctx, policy, NewEngine(engines...))
		if err != nil {
			return nil, err
		}
		for _, i := range idx {
			results[i] = &Results{Result: drivers[i].Result(), Days: summary.Days, Skipped: summary.Skipped}
		}
	}

	return results, nil
}
