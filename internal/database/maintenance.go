// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package database

import (
	"context"
	"fmt"
	"time"
)

// dataTables are the tables counted in backup metadata.
var dataTables = []string{"tourists", "risk_zones", "alerts", "notifications", "location_logs"}

// Checkpoint flushes the DuckDB WAL into the main file.
func (db *DB) Checkpoint(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { observe("checkpoint", "", start, err) }()

	if _, err = db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("failed to checkpoint: %w", err)
	}
	return nil
}

// TableCounts returns the row count of every data table.
func (db *DB) TableCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(dataTables))
	for _, table := range dataTables {
		var n int64
		// Table names come from the fixed list above.
		if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
