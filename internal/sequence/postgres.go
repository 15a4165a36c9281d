// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package sequence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS sequences (
	name  TEXT PRIMARY KEY,
	current_value BIGINT NOT NULL
)`

const postgresUpsert = `INSERT INTO sequences (name, current_value) VALUES ($1, 1)
ON CONFLICT (name) DO UPDATE SET current_value = sequences.current_value + 1
RETURNING current_value`

// Postgres relies on row locking in the upsert for atomicity.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects and creates the table if needed.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create sequences table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Next(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	var v int64
	if err := p.pool.QueryRow(ctx, postgresUpsert, name).Scan(&v); err != nil {
		return 0, fmt.Errorf("increment %q: %w", name, err)
	}
	return v, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}
