package sweep

import (
	"context"
	"errors"
	"math/rand"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/observability"
	"drawgap-lab/internal/replay"
	"drawgap-lab/internal/simulation"
	"drawgap-lab/internal/storage/memory"
	"drawgap-lab/internal/stream"
)

func randomDays(seed int64, n int) []domain.DrawDay {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	days := make([]domain.DrawDay, n)
	for i := range days {
		values := make([]string, 6+rng.Intn(4))
		for j := range values {
			values[j] = strconv.Itoa(1 + rng.Intn(12))
		}
		days[i] = domain.DrawDay{Date: start.AddDate(0, 0, i), Values: values}
	}
	return days
}

func baseConfig() domain.SimulationConfig {
	cfg := domain.DefaultSimulationConfig()
	cfg.FixedEntryThreshold = 1
	return cfg
}

func TestGrid_Expand(t *testing.T) {
	grid := Grid{
		BaseStakes:  []float64{1, 2},
		MaxSteps:    []int{3, 6},
		Percentiles: []float64{80, 90}, // ignored in fixed mode
	}

	cfgs := grid.Expand(baseConfig())

	require.Len(t, cfgs, 4)
	assert.Equal(t, 1.0, cfgs[0].BaseStake)
	assert.Equal(t, 3, cfgs[0].MaxSteps)
	assert.Equal(t, 1.0, cfgs[1].BaseStake)
	assert.Equal(t, 6, cfgs[1].MaxSteps)
	assert.Equal(t, 2.0, cfgs[3].BaseStake)
	for _, cfg := range cfgs {
		assert.Equal(t, 90.0, cfg.Percentile)
		assert.Equal(t, 2.0, cfg.StepMultiplier)
	}
	assert.Equal(t, 8, grid.Size())
}

func TestGrid_ExpandAdaptiveAndCooldown(t *testing.T) {
	base := baseConfig()
	base.EntryMode = domain.EntryModeAdaptivePercentile
	base.CooldownEnabled = true

	grid := Grid{
		FixedEntryThresholds: []int{2, 3, 4}, // ignored in adaptive mode
		Percentiles:          []float64{80, 90},
		RequiredResets:       []int{1, 3},
	}

	cfgs := grid.Expand(base)
	require.Len(t, cfgs, 4)
	assert.Equal(t, 80.0, cfgs[0].Percentile)
	assert.Equal(t, 1, cfgs[0].RequiredResets)
	assert.Equal(t, 90.0, cfgs[3].Percentile)
	assert.Equal(t, 3, cfgs[3].RequiredResets)
}

func TestGrid_ExpandDeduplicates(t *testing.T) {
	cfgs := Grid{BaseStakes: []float64{1, 1, 2}}.Expand(baseConfig())
	assert.Len(t, cfgs, 2)

	assert.Len(t, Grid{}.Expand(baseConfig()), 1)
}

func TestSweeper_RunRanksAndMatchesSingleRuns(t *testing.T) {
	days := randomDays(42, 200)
	cfgs := Grid{
		BaseStakes:      []float64{1, 2},
		StepMultipliers: []float64{2, 2.5},
		MaxSteps:        []int{4, 6},
	}.Expand(baseConfig())

	outcome, err := New(WithWorkers(4)).Run(context.Background(), days, cfgs)
	require.NoError(t, err)
	require.Len(t, outcome.Results, len(cfgs))
	assert.NotEmpty(t, outcome.BatchID)
	assert.Equal(t, 1, outcome.Streams)

	for i := 1; i < len(outcome.Results); i++ {
		prev, cur := outcome.Results[i-1], outcome.Results[i]
		if prev.FinalEquity == cur.FinalEquity {
			assert.Less(t, prev.RunID, cur.RunID)
		} else {
			assert.Greater(t, prev.FinalEquity, cur.FinalEquity)
		}
	}

	events, _ := stream.Build(days, stream.PolicyFromConfig(cfgs[0]))
	byID := make(map[string]*simulation.Result)
	for _, r := range outcome.Results {
		byID[r.RunID] = r
	}
	for _, cfg := range cfgs {
		single, err := simulation.Run(context.Background(), events, cfg)
		require.NoError(t, err)
		got, ok := byID[single.RunID]
		require.True(t, ok, "missing run %s", single.RunID)
		assert.Equal(t, single.FinalEquity, got.FinalEquity)
		assert.Equal(t, len(single.TradeLog), len(got.TradeLog))
	}
}

func TestSweeper_WorkerCountDoesNotChangeResults(t *testing.T) {
	days := randomDays(9, 120)
	cfgs := Grid{BaseStakes: []float64{1, 2, 3}, MaxSteps: []int{3, 5}}.Expand(baseConfig())

	serial, err := New(WithWorkers(1)).Run(context.Background(), days, cfgs)
	require.NoError(t, err)
	parallel, err := New(WithWorkers(8)).Run(context.Background(), days, cfgs)
	require.NoError(t, err)

	require.Len(t, parallel.Results, len(serial.Results))
	for i := range serial.Results {
		assert.Equal(t, serial.Results[i].RunID, parallel.Results[i].RunID)
		assert.Equal(t, serial.Results[i].FinalEquity, parallel.Results[i].FinalEquity)
	}
	assert.NotEqual(t, serial.BatchID, parallel.BatchID)
}

func TestSweeper_OneStreamPerPolicy(t *testing.T) {
	a := baseConfig()
	b := baseConfig()
	b.MinSequenceIndexToWager = 3
	c := baseConfig()
	c.MaxSteps = 3

	outcome, err := New().Run(context.Background(), randomDays(1, 30), []domain.SimulationConfig{a, b, c})
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.Streams)
	assert.Len(t, outcome.Top(2), 2)
	assert.Len(t, outcome.Top(0), 3)
}

func TestSweeper_RejectsInvalidConfig(t *testing.T) {
	bad := baseConfig()
	bad.StepMultiplier = 1

	_, err := New().Run(context.Background(), randomDays(1, 10), []domain.SimulationConfig{baseConfig(), bad})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration))
	assert.Contains(t, err.Error(), "config 1")

	_, err = New().Run(context.Background(), randomDays(1, 10), nil)
	assert.ErrorIs(t, err, ErrNoConfigs)
}

func TestSweeper_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Run(ctx, randomDays(1, 10), []domain.SimulationConfig{baseConfig()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSweeper_RunFromStoreWithMetrics(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDrawDayStore()
	days := randomDays(5, 60)
	ptrs := make([]*domain.DrawDay, len(days))
	for i := range days {
		ptrs[i] = &days[i]
	}
	ptrs = append(ptrs, &domain.DrawDay{Date: days[len(days)-1].Date.AddDate(0, 0, 1)})
	require.NoError(t, store.InsertBulk(ctx, ptrs))

	reg := prometheus.NewRegistry()
	m := observability.NewMetrics("test", reg)
	cfgs := Grid{MaxSteps: []int{2, 4, 6}}.Expand(baseConfig())

	outcome, err := New(WithMetrics(m), WithWorkers(2)).RunFromStore(ctx, replay.NewRunner(store), cfgs)
	require.NoError(t, err)
	assert.Len(t, outcome.Results, 3)
	assert.Len(t, outcome.Skipped, 1)
	assert.Equal(t, 60, outcome.Results[0].DayCount)

	rec := httptest.NewRecorder()
	observability.HandlerFor(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `test_sweep_runs_total{status="ok"} 3`)
	assert.Contains(t, body, `test_simulation_runs_total{status="ok"} 3`)
	assert.Contains(t, body, "test_sweep_in_flight 0")
}
