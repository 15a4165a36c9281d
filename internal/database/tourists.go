// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vedantlahane/safarsathi/internal/geo"
	"github.com/vedantlahane/safarsathi/internal/models"
)

const touristColumns = `id, name, phone, lat, lng, last_seen, safety_score, created_at`

// GetTourist loads one tourist. A missing id wraps models.ErrNotFound.
func (db *DB) GetTourist(ctx context.Context, id string) (t *models.Tourist, err error) {
	start := time.Now()
	defer func() { observe("select", "tourists", start, err) }()

	row := db.conn.QueryRowContext(ctx, `SELECT `+touristColumns+` FROM tourists WHERE id = ?`, id)
	t, err = scanTourist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tourist %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tourist %s: %w", id, err)
	}
	return t, nil
}

// SaveTourist inserts or fully overwrites a tourist row.
func (db *DB) SaveTourist(ctx context.Context, t *models.Tourist) (err error) {
	start := time.Now()
	defer func() { observe("upsert", "tourists", start, err) }()

	var lat, lng sql.NullFloat64
	if t.Position != nil {
		lat = sql.NullFloat64{Float64: t.Position.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: t.Position.Lng, Valid: true}
	}
	created := t.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO tourists (`+touristColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			last_seen = EXCLUDED.last_seen,
			safety_score = EXCLUDED.safety_score`,
		t.ID, t.Name, t.Phone, lat, lng, nullTime(t.LastSeen), t.SafetyScore, created.UTC())
	if err != nil {
		return fmt.Errorf("failed to save tourist %s: %w", t.ID, err)
	}
	return nil
}

// ListTourists returns every tourist ordered by id.
func (db *DB) ListTourists(ctx context.Context) (out []models.Tourist, err error) {
	start := time.Now()
	defer func() { observe("select", "tourists", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `SELECT `+touristColumns+` FROM tourists ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tourists: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		t, scanErr := scanTourist(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan tourist: %w", scanErr)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTourist(r rowScanner) (*models.Tourist, error) {
	var (
		t        models.Tourist
		phone    sql.NullString
		lat, lng sql.NullFloat64
		lastSeen sql.NullTime
	)
	if err := r.Scan(&t.ID, &t.Name, &phone, &lat, &lng, &lastSeen, &t.SafetyScore, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Phone = phone.String
	if lat.Valid && lng.Valid {
		t.Position = &geo.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	if lastSeen.Valid {
		ls := lastSeen.Time.UTC()
		t.LastSeen = &ls
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}
