package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/storage"
)

// DrawDayStore implements storage.DrawDayStore using PostgreSQL.
type DrawDayStore struct {
	pool *Pool
}

// NewDrawDayStore creates a new DrawDayStore.
func NewDrawDayStore(pool *Pool) *DrawDayStore {
	return &DrawDayStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DrawDayStore = (*DrawDayStore)(nil)

const insertDrawDayQuery = `
	INSERT INTO draw_days (draw_date, draw_values) VALUES ($1, $2)
`

// Insert adds a new day. Returns ErrDuplicateKey if draw_date exists.
func (s *DrawDayStore) Insert(ctx context.Context, d *domain.DrawDay) error {
	if d == nil || d.Date.IsZero() {
		return storage.ErrInvalidInput
	}

	if _, err := s.pool.Exec(ctx, insertDrawDayQuery, d.Date, valuesOrEmpty(d.Values)); err != nil {
		return storageError("insert draw day", err)
	}
	return nil
}

// InsertBulk adds multiple days atomically. Fails entire batch on any duplicate.
func (s *DrawDayStore) InsertBulk(ctx context.Context, days []*domain.DrawDay) error {
	if len(days) == 0 {
		return nil
	}
	for _, d := range days {
		if d == nil || d.Date.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, d := range days {
		batch.Queue(insertDrawDayQuery, d.Date, valuesOrEmpty(d.Values))
	}

	results := tx.SendBatch(ctx, batch)
	for range days {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return storageError("insert draw day in bulk", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByDate retrieves one day. Returns ErrNotFound if not exists.
func (s *DrawDayStore) GetByDate(ctx context.Context, date time.Time) (*domain.DrawDay, error) {
	query := `
		SELECT draw_date, draw_values
		FROM draw_days
		WHERE draw_date = $1
	`

	var d domain.DrawDay
	err := s.pool.QueryRow(ctx, query, date).Scan(&d.Date, &d.Values)
	if err != nil {
		return nil, storageError("get draw day", err)
	}
	d.Date = d.Date.UTC()
	return &d, nil
}

// GetByDateRange retrieves days within [start, end] (inclusive), ordered by date ASC.
func (s *DrawDayStore) GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.DrawDay, error) {
	query := `
		SELECT draw_date, draw_values
		FROM draw_days
		WHERE draw_date >= $1 AND draw_date <= $2
		ORDER BY draw_date ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get draw days by date range: %w", err)
	}
	defer rows.Close()

	return scanDrawDays(rows)
}

// GetAll retrieves every day, ordered by date ASC.
func (s *DrawDayStore) GetAll(ctx context.Context) ([]*domain.DrawDay, error) {
	query := `
		SELECT draw_date, draw_values
		FROM draw_days
		ORDER BY draw_date ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all draw days: %w", err)
	}
	defer rows.Close()

	return scanDrawDays(rows)
}

// scanDrawDays collects (draw_date, draw_values) rows positionally.
func scanDrawDays(rows pgx.Rows) ([]*domain.DrawDay, error) {
	days, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByPos[domain.DrawDay])
	if err != nil {
		return nil, fmt.Errorf("scan draw day rows: %w", err)
	}
	for _, d := range days {
		d.Date = d.Date.UTC()
	}
	return days, nil
}

// valuesOrEmpty keeps NOT NULL satisfied for days without draws.
func valuesOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
