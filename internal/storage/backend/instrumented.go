package backend

import (
	"context"
	"errors"
	"time"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/observability"
	"drawgap-lab/internal/storage"
)

// InstrumentedStore records query latency and errors for a DrawDayStore.
type InstrumentedStore struct {
	next     storage.DrawDayStore
	database string
	metrics  *observability.Metrics
}

var _ storage.DrawDayStore = (*InstrumentedStore)(nil)

// Instrument wraps next. Returns next unchanged when m is nil.
func Instrument(next storage.DrawDayStore, database string, m *observability.Metrics) storage.DrawDayStore {
	if m == nil {
		return next
	}
	return &InstrumentedStore{next: next, database: database, metrics: m}
}

func (s *InstrumentedStore) observe(operation string, start time.Time, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		err = nil
	}
	s.metrics.RecordDBQuery(s.database, operation, time.Since(start).Seconds(), err)
}

// Insert adds a new day.
func (s *InstrumentedStore) Insert(ctx context.Context, d *domain.DrawDay) error {
	start := time.Now()
	err := s.next.Insert(ctx, d)
	s.observe("insert", start, err)
	return err
}

// InsertBulk adds multiple days atomically.
func (s *InstrumentedStore) InsertBulk(ctx context.Context, days []*domain.DrawDay) error {
	start := time.Now()
	err := s.next.InsertBulk(ctx, days)
	s.observe("insert_bulk", start, err)
	return err
}

// GetByDate retrieves one day.
func (s *InstrumentedStore) GetByDate(ctx context.Context, date time.Time) (*domain.DrawDay, error) {
	start := time.Now()
	d, err := s.next.GetByDate(ctx, date)
	s.observe("get_by_date", start, err)
	return d, err
}

// GetByDateRange retrieves days within [start, end].
func (s *InstrumentedStore) GetByDateRange(ctx context.Context, from, to time.Time) ([]*domain.DrawDay, error) {
	start := time.Now()
	days, err := s.next.GetByDateRange(ctx, from, to)
	s.observe("get_by_date_range", start, err)
	return days, err
}

// GetAll retrieves every day.
func (s *InstrumentedStore) GetAll(ctx context.Context) ([]*domain.DrawDay, error) {
	start := time.Now()
	days, err := s.next.GetAll(ctx)
	s.observe("get_all", start, err)
	return days, err
}
