// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vedantlahane/safarsathi/internal/models"
)

// AppendLocationLog records a processed ping and sets entry.ID.
func (db *DB) AppendLocationLog(ctx context.Context, entry *models.LocationLog) (err error) {
	start := time.Now()
	defer func() { observe("insert", "location_logs", start, err) }()

	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO location_logs (tourist_id, lat, lng, accuracy, speed, heading, safety_score, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		entry.TouristID, entry.Lat, entry.Lng, nullFloat(entry.Accuracy), nullFloat(entry.Speed),
		nullFloat(entry.Heading), entry.SafetyScore, entry.RecordedAt.UTC(),
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to append location log for %s: %w", entry.TouristID, err)
	}
	return nil
}

// ListLocationLogs returns the most recent entries for a tourist, newest first.
func (db *DB) ListLocationLogs(ctx context.Context, touristID string, limit int) (out []models.LocationLog, err error) {
	start := time.Now()
	defer func() { observe("select", "location_logs", start, err) }()

	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, tourist_id, lat, lng, accuracy, speed, heading, safety_score, recorded_at
		FROM location_logs
		WHERE tourist_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?`, touristID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list location logs: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var (
			l                       models.LocationLog
			accuracy, speed, heading sql.NullFloat64
		)
		if err := rows.Scan(&l.ID, &l.TouristID, &l.Lat, &l.Lng, &accuracy, &speed, &heading,
			&l.SafetyScore, &l.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan location log: %w", err)
		}
		l.Accuracy, l.Speed, l.Heading = floatPtr(accuracy), floatPtr(speed), floatPtr(heading)
		l.RecordedAt = l.RecordedAt.UTC()
		out = append(out, l)
	}
	return out, rows.Err()
}
