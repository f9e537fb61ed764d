package loader

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead_NormalizesSortsAndDedupes(t *testing.T) {
	input := strings.Join([]string{
		"Date,R1,R2,R3,R4,Track",
		"2024-01-03,5,7.0, 5 ,x,Aqueduct",
		"01/01/2024,1,2,,3,Belmont",
		"2024-01-03,9,9,9,9,Saratoga",
		"2024-01-02 00:00:00,,,,,Belmont",
		"",
	}, "\n")

	days, stats, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	if stats.Rows != 4 || stats.Duplicates != 1 || stats.Days != 3 || stats.EmptyDays != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	want := []struct {
		date   time.Time
		values []string
	}{
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), []string{"1", "2", "3"}},
		{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), nil},
		{time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), []string{"5", "7", "5"}},
	}
	for i, w := range want {
		if !days[i].Date.Equal(w.date) {
			t.Errorf("day %d: expected %v, got %v", i, w.date, days[i].Date)
		}
		if !reflect.DeepEqual(days[i].Values, w.values) {
			t.Errorf("day %d: expected values %v, got %v", i, w.values, days[i].Values)
		}
	}
}

func TestRead_RaceColumnsInNumericOrder(t *testing.T) {
	input := "R10,Date,R2,R1\n4,2024-02-01,2,1\n"

	days, _, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !reflect.DeepEqual(days[0].Values, []string{"1", "2", "4"}) {
		t.Errorf("expected [1 2 4], got %v", days[0].Values)
	}
}

func TestRead_ShortRows(t *testing.T) {
	days, _, err := Read(strings.NewReader("Date,R1,R2,R3\n2024-02-01,3\n"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !reflect.DeepEqual(days[0].Values, []string{"3"}) {
		t.Errorf("expected [3], got %v", days[0].Values)
	}
}

func TestRead_MissingDateColumn(t *testing.T) {
	tests := []string{
		"Day,R1,R2\n2024-01-01,1,2\n",
		"",
	}
	for _, input := range tests {
		if _, _, err := Read(strings.NewReader(input)); !errors.Is(err, ErrMissingDateColumn) {
			t.Errorf("input %q: expected ErrMissingDateColumn, got %v", input, err)
		}
	}
}

func TestRead_InvalidDate(t *testing.T) {
	_, _, err := Read(strings.NewReader("Date,R1\n2024-01-01,1\nnot-a-date,2\n"))

	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	var de *DateError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DateError, got %T", err)
	}
	if de.Line != 3 || de.Value != "not-a-date" {
		t.Errorf("unexpected error detail %+v", de)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-03-09", "03/09/2024", "2024-03-09 18:30:00", " 2024-03-09 "} {
		got, err := ParseDate(s)
		if err != nil {
			t.Errorf("%q: unexpected error %v", s, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("%q: expected %v, got %v", s, want, got)
		}
	}

	if _, err := ParseDate("2024/03/09"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"7", "7", true},
		{" 12 ", "12", true},
		{"7.0", "7", true},
		{"7.5", "", false},
		{"nan", "", false},
		{"", "", false},
		{"1A", "", false},
		{".0", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeValue(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeValue(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draws.csv")
	if err := os.WriteFile(path, []byte("\ufeffDate,R1,R2\n2024-01-01,1,1\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	days, stats, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(days) != 1 || stats.Days != 1 {
		t.Errorf("expected 1 day, got %d", len(days))
	}

	if _, _, err := LoadFile(filepath.Join(t.TempDir(), "missing.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
