package loader

import (
	"context"
	"fmt"

	"drawgap-lab/internal/domain"
	"drawgap-lab/internal/observability"
	"drawgap-lab/internal/storage"
)

// DefaultBatchSize is the number of days written per InsertBulk call.
const DefaultBatchSize = 500

// IngestOptions controls Ingest.
type IngestOptions struct {
	BatchSize    int  // days per InsertBulk, DefaultBatchSize when < 1
	SkipExisting bool // drop days whose date is already stored instead of failing
	DropEmpty    bool // drop days without values instead of storing them
	Metrics      *observability.Metrics
}

// IngestResult counts what Ingest did.
type IngestResult struct {
	Inserted int
	Existing int // already stored, skipped
	Empty    int // no values, dropped
}

// Ingest writes days to store in date order. Each batch is atomic; batches
// written before a failure stay stored.
func Ingest(ctx context.Context, store storage.DrawDayStore, days []domain.DrawDay, opts IngestOptions) (*IngestResult, error) {
	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	res := &IngestResult{}
	if len(days) == 0 {
		return res, nil
	}

	var existing map[string]bool
	if opts.SkipExisting {
		stored, err := store.GetByDateRange(ctx, days[0].Date, days[len(days)-1].Date)
		if err != nil {
			return nil, fmt.Errorf("read existing days: %w", err)
		}
		existing = make(map[string]bool, len(stored))
		for _, d := range stored {
			existing[d.Date.Format(domain.DateLayout)] = true
		}
	}

	pending := make([]*domain.DrawDay, 0, batchSize)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := store.InsertBulk(ctx, pending); err != nil {
			return fmt.Errorf("insert %d days from %s: %w",
				len(pending), pending[0].Date.Format(domain.DateLayout), err)
		}
		res.Inserted += len(pending)
		if opts.Metrics != nil {
			opts.Metrics.DrawDaysIngested.Add(float64(len(pending)))
		}
		pending = pending[:0]
		return nil
	}

	for i := range days {
		day := &days[i]
		if existing[day.Date.Format(domain.DateLayout)] {
			res.Existing++
			continue
		}
		if len(day.Values) == 0 && opts.DropEmpty {
			res.Empty++
			if opts.Metrics != nil {
				opts.Metrics.MalformedDaysSkipped.Inc()
			}
			continue
		}
		pending = append(pending, day)
		if len(pending) == batchSize {
			if err := flush(); err != nil {
				return res, err
			}
		}
	}
	if err := flush(); err != nil {
		return res, err
	}
	return res, nil
}
