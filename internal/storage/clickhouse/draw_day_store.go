package clickhouse

import (
	"context"
	"fmt"
	"time"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/storage"
)

// DrawDayStore implements storage.DrawDayStore using ClickHouse.
// The table is a ReplacingMergeTree, so uniqueness is checked before insert
// and reads use FINAL.
type DrawDayStore struct {
	conn *Conn
}

// NewDrawDayStore creates a new DrawDayStore.
func NewDrawDayStore(conn *Conn) *DrawDayStore {
	return &DrawDayStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DrawDayStore = (*DrawDayStore)(nil)

// Insert adds a new day. Returns ErrDuplicateKey if draw_date exists.
func (s *DrawDayStore) Insert(ctx context.Context, d *domain.DrawDay) error {
	return s.InsertBulk(ctx, []*domain.DrawDay{d})
}

// InsertBulk adds multiple days. Fails entire batch on duplicate draw_date.
func (s *DrawDayStore) InsertBulk(ctx context.Context, days []*domain.DrawDay) error {
	if len(days) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(days))
	minDate, maxDate := time.Time{}, time.Time{}
	for _, d := range days {
		if d == nil || d.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		key := d.DateKey()
		if _, exists := seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
		if minDate.IsZero() || d.Date.Before(minDate) {
			minDate = d.Date
		}
		if d.Date.After(maxDate) {
			maxDate = d.Date
		}
	}

	// Check for duplicates against existing DB rows
	existing, err := s.GetByDateRange(ctx, minDate, maxDate)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	for _, d := range existing {
		if _, clash := seen[d.DateKey()]; clash {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO draw_days (draw_date, draw_values)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, d := range days {
		values := d.Values
		if values == nil {
			values = []string{}
		}
		if err := batch.Append(d.Date, values); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByDate retrieves one day. Returns ErrNotFound if not exists.
func (s *DrawDayStore) GetByDate(ctx context.Context, date time.Time) (*domain.DrawDay, error) {
	days, err := s.GetByDateRange(ctx, date, date)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, storage.ErrNotFound
	}
	return days[0], nil
}

// GetByDateRange retrieves days within [start, end] (inclusive), ordered by date ASC.
func (s *DrawDayStore) GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.DrawDay, error) {
	query := `
		SELECT draw_date, draw_values
		FROM draw_days FINAL
		WHERE draw_date >= ? AND draw_date <= ?
		ORDER BY draw_date ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by date range: %w", err)
	}
	defer rows.Close()

	return scanDrawDays(rows)
}

// GetAll retrieves every day, ordered by date ASC.
func (s *DrawDayStore) GetAll(ctx context.Context) ([]*domain.DrawDay, error) {
	query := `
		SELECT draw_date, draw_values
		FROM draw_days FINAL
		ORDER BY draw_date ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all: %w", err)
	}
	defer rows.Close()

	return scanDrawDays(rows)
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanDrawDays scans multiple rows into a slice.
func scanDrawDays(rows chRows) ([]*domain.DrawDay, error) {
	var days []*domain.DrawDay

	for rows.Next() {
		var d domain.DrawDay
		if err := rows.Scan(&d.Date, &d.Values); err != nil {
			return nil, fmt.Errorf("scan draw day: %w", err)
		}
		d.Date = d.Date.UTC()
		days = append(days, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return days, nil
}
