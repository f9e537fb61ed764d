package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/storage/memory"
	"drawgap-lab/internal/stream"
)

// collectingEngine collects events for verification.
type collectingEngine struct {
	events []*domain.OutcomeEvent
}

func (e *collectingEngine) OnEvent(_ context.Context, event *domain.OutcomeEvent) error {
	e.events = append(e.events, event)
	return nil
}

// failingEngine fails on the n-th event.
type failingEngine struct {
	n, seen int
}

var errEngine = errors.New("engine failure")

func (e *failingEngine) OnEvent(_ context.Context, _ *domain.OutcomeEvent) error {
	e.seen++
	if e.seen == e.n {
		return errEngine
	}
	return nil
}

func date(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestRunner_OrdersEventsDeterministically(t *testing.T) {
	store := memory.NewDrawDayStore()
	ctx := context.Background()

	days := []*domain.DrawDay{
		{Date: date(3), Values: []string{"5", "6"}},
		{Date: date(1), Values: []string{"1", "2", "1"}},
		{Date: date(2), Values: []string{"3"}},
	}
	if err := store.InsertBulk(ctx, days); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	runner := NewRunner(store)
	engine := &collectingEngine{}

	summary, err := runner.RunAll(ctx, stream.DefaultPolicy(), engine)
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}

	if summary.Days != 3 || summary.Events != 6 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if err := ValidateOrder(engine.events); err != nil {
		t.Errorf("engine received unordered events: %v", err)
	}
	if engine.events[0].Value != "1" || engine.events[5].Value != "6" {
		t.Errorf("unexpected order: first=%s last=%s", engine.events[0].Value, engine.events[5].Value)
	}
	if !engine.events[2].IsRepeat {
		t.Error("expected third event to be a repeat")
	}
}

func TestRunner_DateRangeAndSkippedDays(t *testing.T) {
	store := memory.NewDrawDayStore()
	ctx := context.Background()

	days := []*domain.DrawDay{
		{Date: date(1), Values: []string{"1"}},
		{Date: date(2), Values: nil},
		{Date: date(3), Values: []string{"3", "4"}},
		{Date: date(9), Values: []string{"9"}},
	}
	if err := store.InsertBulk(ctx, days); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	engine := &collectingEngine{}
	summary, err := NewRunner(store).Run(ctx, date(1), date(3), stream.DefaultPolicy(), engine)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Days != 3 {
		t.Errorf("expected 3 days, got %d", summary.Days)
	}
	if len(engine.events) != 3 {
		t.Errorf("expected 3 events, got %d", len(engine.events))
	}
	if len(summary.Skipped) != 1 || !summary.Skipped[0].Date.Equal(date(2)) {
		t.Errorf("expected 2024-01-02 skipped, got %v", summary.Skipped)
	}
}

func TestRunner_Empty(t *testing.T) {
	engine := &collectingEngine{}
	summary, err := NewRunner(memory.NewDrawDayStore()).RunAll(context.Background(), stream.DefaultPolicy(), engine)
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if summary.Events != 0 || len(engine.events) != 0 {
		t.Errorf("expected no events, got %d", len(engine.events))
	}
}

func TestRunner_LoadEvents(t *testing.T) {
	store := memory.NewDrawDayStore()
	ctx := context.Background()
	if err := store.Insert(ctx, &domain.DrawDay{Date: date(1), Values: []string{"1", "2"}}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	events, summary, err := NewRunner(store).LoadEvents(ctx, stream.Policy{MinSequenceIndexToWager: 2})
	if err != nil {
		t.Fatalf("LoadEvents failed: %v", err)
	}
	if len(events) != 2 || summary.Events != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].IsWagerEligible || !events[1].IsWagerEligible {
		t.Error("policy not applied")
	}
}

func TestReplay_RejectsUnorderedEvents(t *testing.T) {
	events := []*domain.OutcomeEvent{
		{Date: date(2), SequenceIndex: 1},
		{Date: date(1), SequenceIndex: 1},
	}
	engine := &collectingEngine{}

	err := Replay(context.Background(), events, engine)
	if !errors.Is(err, ErrInvalidOrdering) {
		t.Fatalf("expected ErrInvalidOrdering, got %v", err)
	}
	if len(engine.events) != 0 {
		t.Error("no event may be delivered when ordering is invalid")
	}
}

func TestReplay_PropagatesEngineError(t *testing.T) {
	events := []*domain.OutcomeEvent{
		{Date: date(1), SequenceIndex: 1},
		{Date: date(1), SequenceIndex: 2},
		{Date: date(1), SequenceIndex: 3},
	}
	engine := &failingEngine{n: 2}

	if err := Replay(context.Background(), events, engine); !errors.Is(err, errEngine) {
		t.Fatalf("expected engine error, got %v", err)
	}
	if engine.seen != 2 {
		t.Errorf("replay must stop at the failing event, saw %d", engine.seen)
	}
}

func TestReplay_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := []*domain.OutcomeEvent{{Date: date(1), SequenceIndex: 1}}
	if err := Replay(ctx, events, &collectingEngine{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestValidateOrder(t *testing.T) {
	tests := []struct {
		name    string
		events  []*domain.OutcomeEvent
		wantErr bool
	}{
		{"empty", nil, false},
		{"single", []*domain.OutcomeEvent{{Date: date(1), SequenceIndex: 1}}, false},
		{"ordered", []*domain.OutcomeEvent{
			{Date: date(1), SequenceIndex: 1},
			{Date: date(1), SequenceIndex: 2},
			{Date: date(2), SequenceIndex: 1},
		}, false},
		{"duplicate", []*domain.OutcomeEvent{
			{Date: date(1), SequenceIndex: 1},
			{Date: date(1), SequenceIndex: 1},
		}, true},
		{"sequence backwards", []*domain.OutcomeEvent{
			{Date: date(1), SequenceIndex: 2},
			{Date: date(1), SequenceIndex: 1},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOrder(tt.events)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOrder() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSortEvents(t *testing.T) {
	events := []*domain.OutcomeEvent{
		{Date: date(2), SequenceIndex: 1},
		{Date: date(1), SequenceIndex: 2},
		{Date: date(1), SequenceIndex: 1},
	}
	SortEvents(events)
	if err := ValidateOrder(events); err != nil {
		t.Errorf("SortEvents left events unordered: %v", err)
	}
}
