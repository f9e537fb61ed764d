package backtest

import (
	"context"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/replay"
)

// Engine fans each event out to several replay engines, so that drivers
// sharing a stream policy replay in a single pass.
// Implements replay.ReplayEngine.
type Engine struct {
	engines    []replay.ReplayEngine
	eventCount int
}

// NewEngine creates an engine delivering events to every engine in order.
func NewEngine(engines ...replay.ReplayEngine) *Engine {
	return &Engine{engines: engines}
}

var _ replay.ReplayEngine = (*Engine)(nil)

// OnEvent processes an event through every engine.
// Stops at the first error.
func (e *Engine) OnEvent(ctx context.Context, event *domain.OutcomeEvent) error {
	e.eventCount++
	for _, eng := range e.engines {
		if err := eng.OnEvent(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// EventCount returns the number of events processed.
func (e *Engine) EventCount() int {
	return e.eventCount
}
