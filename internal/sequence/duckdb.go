// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package sequence

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// DuckDBSchema creates the counters table. database.InitSchema runs it too.
const DuckDBSchema = `CREATE TABLE IF NOT EXISTS sequences (
	name  VARCHAR PRIMARY KEY,
	current_value BIGINT NOT NULL
)`

const duckdbUpsert = `INSERT INTO sequences (name, current_value) VALUES (?, 1)
ON CONFLICT (name) DO UPDATE SET current_value = current_value + 1
RETURNING current_value`

// DuckDB keeps counters in the primary database. DuckDB's optimistic
// concurrency aborts concurrent updates of one row, so increments are
// serialised in-process.
type DuckDB struct {
	db *sql.DB
	mu sync.Mutex
}

// NewDuckDB creates the table if needed.
func NewDuckDB(ctx context.Context, db *sql.DB) (*DuckDB, error) {
	if _, err := db.ExecContext(ctx, DuckDBSchema); err != nil {
		return nil, fmt.Errorf("create sequences table: %w", err)
	}
	return &DuckDB{db: db}, nil
}

func (d *DuckDB) Next(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var v int64
	if err := d.db.QueryRowContext(ctx, duckdbUpsert, name).Scan(&v); err != nil {
		return 0, fmt.Errorf("increment %q: %w", name, err)
	}
	return v, nil
}
