// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/vedantlahane/safarsathi/internal/sequence"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// Timestamps are written from Go in UTC; no column uses CURRENT_TIMESTAMP
// defaults, which would pull in the ICU extension.
var tableQueries = []string{
	`CREATE TABLE IF NOT EXISTS tourists (
		id           VARCHAR PRIMARY KEY,
		name         VARCHAR NOT NULL,
		phone        VARCHAR,
		lat          DOUBLE,
		lng          DOUBLE,
		last_seen    TIMESTAMP,
		safety_score DOUBLE NOT NULL,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS risk_zones (
		id            BIGINT PRIMARY KEY,
		name          VARCHAR NOT NULL,
		description   VARCHAR,
		center_lat    DOUBLE NOT NULL,
		center_lng    DOUBLE NOT NULL,
		radius_meters DOUBLE NOT NULL,
		risk_level    VARCHAR,
		active        BOOLEAN NOT NULL,
		updated_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id         BIGINT PRIMARY KEY,
		tourist_id VARCHAR,
		alert_type VARCHAR NOT NULL,
		status     VARCHAR NOT NULL,
		message    VARCHAR,
		lat        DOUBLE,
		lng        DOUBLE,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         BIGINT PRIMARY KEY,
		tourist_id VARCHAR NOT NULL,
		title      VARCHAR NOT NULL,
		message    VARCHAR NOT NULL,
		type       VARCHAR NOT NULL,
		source_tab VARCHAR NOT NULL,
		is_read    BOOLEAN NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE SEQUENCE IF NOT EXISTS location_log_id_seq START 1`,
	`CREATE TABLE IF NOT EXISTS location_logs (
		id           BIGINT PRIMARY KEY DEFAULT nextval('location_log_id_seq'),
		tourist_id   VARCHAR NOT NULL,
		lat          DOUBLE NOT NULL,
		lng          DOUBLE NOT NULL,
		accuracy     DOUBLE,
		speed        DOUBLE,
		heading      DOUBLE,
		safety_score DOUBLE NOT NULL,
		recorded_at  TIMESTAMP NOT NULL
	)`,
	sequence.DuckDBSchema,
}

// Columns rewritten by ON CONFLICT DO UPDATE (alerts.status, is_read) must
// stay unindexed; DuckDB rejects upserts that assign to indexed columns.
var indexQueries = []string{
	`CREATE INDEX IF NOT EXISTS idx_alerts_tourist ON alerts(tourist_id)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_created ON alerts(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_tourist ON notifications(tourist_id)`,
	`CREATE INDEX IF NOT EXISTS idx_location_logs_tourist_time ON location_logs(tourist_id, recorded_at)`,
}

// InitSchema creates every table and index. It is idempotent.
func (db *DB) InitSchema(ctx context.Context) error {
	for _, q := range tableQueries {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", q, err)
		}
	}
	for _, q := range indexQueries {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", q, err)
		}
	}
	return nil
}
