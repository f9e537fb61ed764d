package stream

import (
	"errors"
	"testing"
	"time"

	"drawgap-lab/internal/domain"
)

func day(t *testing.T, date string, values ...string) domain.DrawDay {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return domain.DrawDay{Date: d, Values: values}
}

func TestBuildDay_RepeatFlags(t *testing.T) {
	events, err := BuildDay(day(t, "2024-01-01", "A", "B", "A", "C"), DefaultPolicy())
	if err != nil {
		t.Fatalf("BuildDay failed: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}

	wantRepeat := []bool{false, false, true, false}
	wantTargets := []int{0, 1, 2, 2}
	for i, ev := range events {
		if ev.SequenceIndex != i+1 {
			t.Errorf("event %d: expected sequence %d, got %d", i, i+1, ev.SequenceIndex)
		}
		if ev.IsRepeat != wantRepeat[i] {
			t.Errorf("event %d: expected repeat %v, got %v", i, wantRepeat[i], ev.IsRepeat)
		}
		if ev.TargetsCount() != wantTargets[i] {
			t.Errorf("event %d: expected %d targets, got %d", i, wantTargets[i], ev.TargetsCount())
		}
	}
}

func TestBuildDay_FirstEventNeverRepeat(t *testing.T) {
	events, err := BuildDay(day(t, "2024-01-01", "7", "7", "7"), DefaultPolicy())
	if err != nil {
		t.Fatalf("BuildDay failed: %v", err)
	}
	if events[0].IsRepeat {
		t.Error("first event of day must not be a repeat")
	}
	if len(events[0].PriorValues) != 0 {
		t.Errorf("first event must have no prior values, got %v", events[0].PriorValues)
	}
	// Duplicate values are stored once in the prior set
	if got := events[2].TargetsCount(); got != 1 {
		t.Errorf("expected 1 distinct prior value, got %d", got)
	}
}

func TestBuildDay_PriorValuesNotShared(t *testing.T) {
	events, err := BuildDay(day(t, "2024-01-01", "A", "B", "C"), DefaultPolicy())
	if err != nil {
		t.Fatalf("BuildDay failed: %v", err)
	}
	events[1].PriorValues[0] = "Z"
	if events[2].PriorValues[0] != "A" {
		t.Errorf("prior values leaked between events: %v", events[2].PriorValues)
	}
}

func TestBuildDay_PolicyFlags(t *testing.T) {
	policy := Policy{MinSequenceIndexToWager: 3, FirstEventCountsTowardGap: false}
	events, err := BuildDay(day(t, "2024-01-01", "A", "B", "C", "D"), policy)
	if err != nil {
		t.Fatalf("BuildDay failed: %v", err)
	}

	wantEligible := []bool{false, false, true, true}
	wantCounts := []bool{false, true, true, true}
	for i, ev := range events {
		if ev.IsWagerEligible != wantEligible[i] {
			t.Errorf("event %d: expected eligible %v, got %v", i, wantEligible[i], ev.IsWagerEligible)
		}
		if ev.CountsTowardGap != wantCounts[i] {
			t.Errorf("event %d: expected counts %v, got %v", i, wantCounts[i], ev.CountsTowardGap)
		}
	}
}

func TestBuildDay_EmptyDay(t *testing.T) {
	_, err := BuildDay(day(t, "2024-01-02"), DefaultPolicy())
	if !errors.Is(err, domain.ErrMalformedDay) {
		t.Fatalf("expected ErrMalformedDay, got %v", err)
	}
	var mde *domain.MalformedDayError
	if !errors.As(err, &mde) {
		t.Fatalf("expected *MalformedDayError, got %T", err)
	}
	if mde.Date.Format(domain.DateLayout) != "2024-01-02" {
		t.Errorf("unexpected date %v", mde.Date)
	}
}

func TestBuild_SkipsMalformedDays(t *testing.T) {
	days := []domain.DrawDay{
		day(t, "2024-01-01", "A", "B"),
		day(t, "2024-01-02"),
		day(t, "2024-01-03", "C", "C", "D"),
	}

	events, skipped := Build(days, DefaultPolicy())

	if len(events) != 5 {
		t.Errorf("expected 5 events, got %d", len(events))
	}
	if len(skipped) != 1 {
		t.Fatalf("expected 1 skipped day, got %d", len(skipped))
	}
	if skipped[0].Date.Format(domain.DateLayout) != "2024-01-02" {
		t.Errorf("unexpected skipped date %v", skipped[0].Date)
	}
	// Prior set resets at day boundary
	if events[2].IsRepeat || len(events[2].PriorValues) != 0 {
		t.Errorf("first event of new day carried prior state: %+v", events[2])
	}
	if !events[3].IsRepeat {
		t.Error("expected C to repeat on 2024-01-03")
	}
}
