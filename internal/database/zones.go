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

	"github.com/vedantlahane/safarsathi/internal/models"
)

const zoneColumns = `id, name, description, center_lat, center_lng, radius_meters, risk_level, active, updated_at`

// ListActiveZones returns active zones ordered by id.
func (db *DB) ListActiveZones(ctx context.Context) ([]models.RiskZone, error) {
	return db.listZones(ctx, true)
}

// ListZones returns every zone, active or not.
func (db *DB) ListZones(ctx context.Context) ([]models.RiskZone, error) {
	return db.listZones(ctx, false)
}

func (db *DB) listZones(ctx context.Context, activeOnly bool) (out []models.RiskZone, err error) {
	start := time.Now()
	defer func() { observe("select", "risk_zones", start, err) }()

	q := `SELECT ` + zoneColumns + ` FROM risk_zones`
	if activeOnly {
		q += ` WHERE active`
	}
	q += ` ORDER BY id`

	rows, err := db.conn.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk zones: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		z, scanErr := scanZone(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan risk zone: %w", scanErr)
		}
		out = append(out, *z)
	}
	return out, rows.Err()
}

// GetZone loads one zone by id.
func (db *DB) GetZone(ctx context.Context, id int64) (z *models.RiskZone, err error) {
	start := time.Now()
	defer func() { observe("select", "risk_zones", start, err) }()

	z, err = scanZone(db.conn.QueryRowContext(ctx, `SELECT `+zoneColumns+` FROM risk_zones WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("risk zone %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get risk zone %d: %w", id, err)
	}
	return z, nil
}

// SaveZone inserts or overwrites a zone. UpdatedAt is stamped when zero.
func (db *DB) SaveZone(ctx context.Context, z *models.RiskZone) (err error) {
	start := time.Now()
	defer func() { observe("upsert", "risk_zones", start, err) }()

	if z.UpdatedAt.IsZero() {
		z.UpdatedAt = time.Now().UTC()
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO risk_zones (`+zoneColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			center_lat = EXCLUDED.center_lat,
			center_lng = EXCLUDED.center_lng,
			radius_meters = EXCLUDED.radius_meters,
			risk_level = EXCLUDED.risk_level,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at`,
		z.ID, z.Name, z.Description, z.Center.Lat, z.Center.Lng, z.RadiusMeters,
		string(z.RiskLevel), z.Active, z.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save risk zone %d: %w", z.ID, err)
	}
	return nil
}

func scanZone(r rowScanner) (*models.RiskZone, error) {
	var (
		z     models.RiskZone
		desc  sql.NullString
		level sql.NullString
	)
	if err := r.Scan(&z.ID, &z.Name, &desc, &z.Center.Lat, &z.Center.Lng, &z.RadiusMeters,
		&level, &z.Active, &z.UpdatedAt); err != nil {
		return nil, err
	}
	z.Description = desc.String
	z.RiskLevel = models.ParseRiskLevel(level.String)
	z.UpdatedAt = z.UpdatedAt.UTC()
	return &z, nil
}
