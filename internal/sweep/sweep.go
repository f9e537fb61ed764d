// Package sweep runs many independent simulations over one draw history and
// ranks them.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/observability"
	"drawgap-lab/internal/replay"
	"drawgap-lab/internal/simulation"
	"drawgap-lab/internal/stream"
)

// ErrNoConfigs is returned when a sweep has nothing to run.
var ErrNoConfigs = errors.New("sweep: no configurations")

// Outcome is the ranked output of one sweep.
type Outcome struct {
	BatchID  string
	Results  []*simulation.Result // final equity desc, then run ID asc
	Streams  int                  // distinct event streams built
	Skipped  []*domain.MalformedDayError
	Duration time.Duration
}

// Top returns the best n results, or all when n <= 0.
func (o *Outcome) Top(n int) []*simulation.Result {
	if n <= 0 || n >= len(o.Results) {
		return o.Results
	}
	return o.Results[:n]
}

// Sweeper runs simulations concurrently. Each run owns its state; event
// streams are built once per stream policy and shared read-only.
type Sweeper struct {
	workers int
	topGaps int
	log     zerolog.Logger
	metrics *observability.Metrics
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithWorkers bounds concurrent runs. Values < 1 mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Sweeper) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger sets the logger. Defaults to zerolog.Nop().
func WithLogger(log zerolog.Logger) Option {
	return func(s *Sweeper) {
		s.log = log
	}
}

// WithMetrics records sweep progress to m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Sweeper) {
		s.metrics = m
	}
}

// WithTopGaps sets how many longest gaps each result carries.
func WithTopGaps(n int) Option {
	return func(s *Sweeper) {
		s.topGaps = n
	}
}

// New creates a Sweeper.
func New(opts ...Option) *Sweeper {
	s := &Sweeper{
		workers: runtime.GOMAXPROCS(0),
		topGaps: simulation.DefaultTopGaps,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run simulates every config over days. Invalid configs fail the sweep before
// any run starts. The first failing run cancels the rest.
func (s *Sweeper) Run(ctx context.Context, days []domain.DrawDay, cfgs []domain.SimulationConfig) (*Outcome, error) {
	sorted := make([]domain.DrawDay, len(days))
	copy(sorted, days)
	replay.SortDays(sorted)

	return s.run(ctx, cfgs, func(_ context.Context, policy stream.Policy) ([]*domain.OutcomeEvent, []*domain.MalformedDayError, error) {
		events, skipped := stream.Build(sorted, policy)
		return events, skipped, nil
	})
}

// RunFromStore is Run over every day held by the replay runner's store.
func (s *Sweeper) RunFromStore(ctx context.Context, runner *replay.Runner, cfgs []domain.SimulationConfig) (*Outcome, error) {
	return s.run(ctx, cfgs, func(ctx context.Context, policy stream.Policy) ([]*domain.OutcomeEvent, []*domain.MalformedDayError, error) {
		events, summary, err := runner.LoadEvents(ctx, policy)
		if err != nil {
			return nil, nil, err
		}
		return events, summary.Skipped, nil
	})
}

type loadFunc func(ctx context.Context, policy stream.Policy) ([]*domain.OutcomeEvent, []*domain.MalformedDayError, error)

func (s *Sweeper) run(ctx context.Context, cfgs []domain.SimulationConfig, load loadFunc) (*Outcome, error) {
	if len(cfgs) == 0 {
		return nil, ErrNoConfigs
	}
	for i, cfg := range cfgs {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config %d: %w", i, err)
		}
	}

	start := time.Now()
	batchID := uuid.NewString()
	log := s.log.With().Str("batch_id", batchID).Logger()

	outcome := &Outcome{BatchID: batchID}
	streams := make(map[stream.Policy][]*domain.OutcomeEvent)
	for _, cfg := range cfgs {
		policy := stream.PolicyFromConfig(cfg)
		if _, ok := streams[policy]; ok {
			continue
		}
		events, skipped, err := load(ctx, policy)
		if err != nil {
			return nil, fmt.Errorf("build event stream: %w", err)
		}
		streams[policy] = events
		if len(streams) == 1 {
			outcome.Skipped = skipped
		}
	}
	outcome.Streams = len(streams)

	log.Info().
		Int("runs", len(cfgs)).
		Int("streams", len(streams)).
		Int("workers", s.workers).
		Msg("sweep started")

	results := make([]*simulation.Result, len(cfgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, cfg := range cfgs {
		i, cfg := i, cfg
		events := streams[stream.PolicyFromConfig(cfg)]

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if s.metrics != nil {
				s.metrics.SweepInFlight.Inc()
				defer s.metrics.SweepInFlight.Dec()
			}

			opts := []simulation.Option{simulation.WithTopGaps(s.topGaps)}
			if s.metrics != nil {
				opts = append(opts, simulation.WithMetrics(s.metrics))
			}

			res, err := simulation.Run(gctx, events, cfg, opts...)
			if err != nil {
				if s.metrics != nil {
					s.metrics.RecordSweepRun(observability.StatusError)
				}
				return fmt.Errorf("run %d: %w", i, err)
			}
			if s.metrics != nil {
				s.metrics.RecordSweepRun(observability.StatusOK)
			}

			results[i] = res
			log.Debug().
				Str("run_id", res.RunID[:12]).
				Float64("final_equity", res.FinalEquity).
				Int("wins", res.Wins).
				Int("stops", res.StopLosses).
				Msg("run finished")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("sweep failed")
		return nil, err
	}

	Rank(results)
	outcome.Results = results
	outcome.Duration = time.Since(start)

	if s.metrics != nil {
		s.metrics.SweepDuration.Observe(outcome.Duration.Seconds())
		s.metrics.LastSuccessfulRun.SetToCurrentTime()
	}
	log.Info().
		Int("runs", len(results)).
		Dur("duration", outcome.Duration).
		Float64("best_final_equity", results[0].FinalEquity).
		Msg("sweep finished")

	return outcome, nil
}

// Rank orders results by final equity descending, then run ID ascending.
func Rank(results []*simulation.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FinalEquity != results[j].FinalEquity {
			return results[i].FinalEquity > results[j].FinalEquity
		}
		return results[i].RunID < results[j].RunID
	})
}
