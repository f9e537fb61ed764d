package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/storage"
)

// DrawDayStore is an in-memory implementation of storage.DrawDayStore.
type DrawDayStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DrawDay // keyed by YYYY-MM-DD
}

// NewDrawDayStore creates a new in-memory draw day store.
func NewDrawDayStore() *DrawDayStore {
	return &DrawDayStore{
		data: make(map[string]*domain.DrawDay),
	}
}

func dayKey(t time.Time) string {
	return t.Format(domain.DateLayout)
}

func cloneDay(d *domain.DrawDay) *domain.DrawDay {
	values := make([]string, len(d.Values))
	copy(values, d.Values)
	return &domain.DrawDay{Date: d.Date, Values: values}
}

// Insert adds a new day. Returns ErrDuplicateKey if exists.
func (s *DrawDayStore) Insert(_ context.Context, d *domain.DrawDay) error {
	if d == nil || d.Date.IsZero() {
		return storage.ErrInvalidInput
	}

	key := dayKey(d.Date)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[key] = cloneDay(d)
	return nil
}

// InsertBulk adds multiple days atomically. Fails entire batch on any duplicate.
func (s *DrawDayStore) InsertBulk(_ context.Context, days []*domain.DrawDay) error {
	if len(days) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(days))

	// First pass: check for duplicates (existing + intra-batch)
	for _, d := range days {
		if d == nil || d.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		key := dayKey(d.Date)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, d := range days {
		s.data[dayKey(d.Date)] = cloneDay(d)
	}

	return nil
}

// GetByDate retrieves one day. Returns ErrNotFound if not exists.
func (s *DrawDayStore) GetByDate(_ context.Context, date time.Time) (*domain.DrawDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.data[dayKey(date)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneDay(d), nil
}

// GetByDateRange retrieves days within [start, end] (inclusive), ordered by date ASC.
func (s *DrawDayStore) GetByDateRange(_ context.Context, start, end time.Time) ([]*domain.DrawDay, error) {
	from, to := dayKey(start), dayKey(end)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DrawDay
	for key, d := range s.data {
		if key >= from && key <= to {
			result = append(result, cloneDay(d))
		}
	}
	sortDays(result)
	return result, nil
}

// GetAll retrieves every day, ordered by date ASC.
func (s *DrawDayStore) GetAll(_ context.Context) ([]*domain.DrawDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.DrawDay, 0, len(s.data))
	for _, d := range s.data {
		result = append(result, cloneDay(d))
	}
	sortDays(result)
	return result, nil
}

func sortDays(days []*domain.DrawDay) {
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
}

var _ storage.DrawDayStore = (*DrawDayStore)(nil)
