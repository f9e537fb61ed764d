// Package loader reads daily draw histories from CSV.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"drawgap-lab/internal/domain"
)

var (
	// ErrMissingDateColumn is returned when the header has no Date column.
	ErrMissingDateColumn = errors.New("loader: missing Date column")

	// ErrInvalidDate is returned when a Date cell matches no accepted layout.
	ErrInvalidDate = errors.New("loader: invalid date")
)

// DateLayouts are the accepted Date column formats, tried in order.
var DateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006-01-02 15:04:05",
}

// DateError reports an unparseable Date cell.
type DateError struct {
	Line  int
	Value string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("line %d: invalid date %q", e.Line, e.Value)
}

func (e *DateError) Unwrap() error {
	return ErrInvalidDate
}

// Stats describes one load.
type Stats struct {
	Rows       int // data rows read
	Duplicates int // rows dropped because their date was already seen
	Days       int // days returned
	EmptyDays  int // days with no usable value
}

// LoadFile reads the CSV file at path.
func LoadFile(path string) ([]domain.DrawDay, *Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	days, stats, err := Read(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return days, stats, nil
}

// Read parses a header of Date plus race columns R1..Rn. Race columns are
// read in numeric order; other columns are ignored. Days come back sorted by
// date with duplicates dropped (first row wins). Days without any usable
// value are kept so that the stream builder can report them.
func Read(r io.Reader) ([]domain.DrawDay, *Stats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, ErrMissingDateColumn
	}
	if err != nil {
		return nil, nil, err
	}

	dateCol, raceCols := parseHeader(header)
	if dateCol < 0 {
		return nil, nil, ErrMissingDateColumn
	}

	var (
		days  []domain.DrawDay
		seen  = make(map[string]struct{})
		stats = &Stats{}
		line  = 1
	)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, err
		}
		if isBlank(record) {
			continue
		}
		stats.Rows++

		raw := cell(record, dateCol)
		date, err := ParseDate(raw)
		if err != nil {
			return nil, nil, &DateError{Line: line, Value: raw}
		}

		key := date.Format(domain.DateLayout)
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		var values []string
		for _, col := range raceCols {
			if v, ok := NormalizeValue(cell(record, col)); ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			stats.EmptyDays++
		}
		days = append(days, domain.DrawDay{Date: date, Values: values})
	}

	sort.SliceStable(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	stats.Days = len(days)
	return days, stats, nil
}

// ParseDate parses s with the first matching layout, at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// NormalizeValue trims a cell, strips a trailing ".0" and accepts only
// all-digit tokens.
func NormalizeValue(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	v = strings.TrimSuffix(v, ".0")
	if v == "" {
		return "", false
	}
	for _, c := range v {
		if c < '0' || c > '9' {
			return "", false
		}
	}
	return v, true
}

// parseHeader returns the Date column index (-1 if absent) and the race
// column indices ordered by race number.
func parseHeader(header []string) (int, []int) {
	type raceCol struct{ n, idx int }

	dateCol := -1
	var races []raceCol
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if strings.EqualFold(name, "date") && dateCol < 0 {
			dateCol = i
			continue
		}
		if len(name) > 1 && (name[0] == 'R' || name[0] == 'r') {
			if n, err := strconv.Atoi(name[1:]); err == nil && n > 0 {
				races = append(races, raceCol{n: n, idx: i})
			}
		}
	}

	sort.SliceStable(races, func(i, j int) bool { return races[i].n < races[j].n })
	cols := make([]int, len(races))
	for i, r := range races {
		cols[i] = r.idx
	}
	return dateCol, cols
}

func cell(record []string, idx int) string {
	if idx < len(record) {
		return record[idx]
	}
	return ""
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
