// Package backend opens the configured DrawDayStore.
package backend

import (
	"context"
	"fmt"

	"drawgap-lab/internal/config"
	"drawgap-lab/internal/observability"
	"drawgap-lab/internal/storage"
	chstore "drawgap-lab/internal/storage/clickhouse"
	"drawgap-lab/internal/storage/memory"
	"drawgap-lab/internal/storage/migrations"
	pgstore "drawgap-lab/internal/storage/postgres"
)

// Options controls Open.
type Options struct {
	Migrate bool                   // apply embedded migrations before use
	Metrics *observability.Metrics // optional query instrumentation
}

// Open connects to the backend named in cfg. The returned close function
// releases the connection and is never nil.
func Open(ctx context.Context, cfg config.StorageConfig, opts Options) (storage.DrawDayStore, func(), error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return Instrument(memory.NewDrawDayStore(), config.BackendMemory, opts.Metrics), func() {}, nil

	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if opts.Migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		store := pgstore.NewDrawDayStore(pool)
		return Instrument(store, config.BackendPostgres, opts.Metrics), pool.Close, nil

	case config.BackendClickHouse:
		var (
			conn *chstore.Conn
			err  error
		)
		switch {
		case opts.Migrate:
			conn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN, cfg.ClickHouseDatabase)
		case cfg.ClickHouseDatabase != "":
			conn, err = chstore.NewConnWithDatabase(ctx, cfg.ClickHouseDSN, cfg.ClickHouseDatabase)
		default:
			conn, err = chstore.NewConn(ctx, cfg.ClickHouseDSN)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		store := chstore.NewDrawDayStore(conn)
		return Instrument(store, config.BackendClickHouse, opts.Metrics), func() { _ = conn.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
