package storage

import (
	"context"
	"time"

	"drawgap-lab/internal/domain"
)

// DrawDayStore provides access to draw_days storage.
// Append-only: a stored day is never updated.
type DrawDayStore interface {
	// Insert adds a new day. Returns ErrDuplicateKey if the date exists.
	Insert(ctx context.Context, d *domain.DrawDay) error

	// InsertBulk adds multiple days atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, days []*domain.DrawDay) error

	// GetByDate retrieves one day. Returns ErrNotFound if not exists.
	GetByDate(ctx context.Context, date time.Time) (*domain.DrawDay, error)

	// GetByDateRange retrieves days within [start, end] (inclusive), ordered by date ASC.
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.DrawDay, error)

	// GetAll retrieves every day, ordered by date ASC.
	GetAll(ctx context.Context) ([]*domain.DrawDay, error)
}
