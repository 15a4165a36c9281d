// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package sequence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vedantlahane/safarsathi/internal/config"
	"github.com/vedantlahane/safarsathi/internal/logging"
)

// Open builds the configured backend, wrapped in Instrument. conn is used by
// the duckdb backend and rdb by the redis backend. The returned cleanup
// releases whatever the backend opened and is never nil.
func Open(ctx context.Context, cfg *config.SequenceConfig, conn *sql.DB, rdb redis.UniversalClient) (Generator, func(), error) {
	noop := func() {}

	var (
		gen     Generator
		cleanup = noop
	)
	switch cfg.Backend {
	case "", config.SequenceMemory:
		gen = NewMemory()
	case config.SequenceDuckDB:
		d, err := NewDuckDB(ctx, conn)
		if err != nil {
			return nil, noop, err
		}
		gen = d
	case config.SequenceBadger:
		bdb, err := OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, noop, err
		}
		gen = NewBadger(bdb)
		cleanup = func() {
			if err := bdb.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing badger sequence store")
			}
		}
	case config.SequenceRedis:
		if rdb == nil {
			return nil, noop, fmt.Errorf("sequence backend redis needs redis.addr")
		}
		gen = NewRedis(rdb, cfg.RedisPrefix)
	case config.SequencePostgres:
		pg, err := NewPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		gen = pg
		cleanup = pg.Close
	default:
		return nil, noop, fmt.Errorf("unknown sequence backend %q", cfg.Backend)
	}

	backend := cfg.Backend
	if backend == "" {
		backend = config.SequenceMemory
	}
	logging.Info().Str("backend", backend).Msg("Sequence generator ready")
	return Instrument(backend, gen), cleanup, nil
}
