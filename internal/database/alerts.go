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
	"strings"
	"time"

	"github.com/vedantlahane/safarsathi/internal/geo"
	"github.com/vedantlahane/safarsathi/internal/models"
)

const alertColumns = `id, tourist_id, alert_type, status, message, lat, lng, created_at, updated_at`

// SaveAlert inserts a new alert or updates status, message and updated_at of
// an existing one. Type, tourist and position never change after creation.
func (db *DB) SaveAlert(ctx context.Context, a *models.Alert) (err error) {
	start := time.Now()
	defer func() { observe("upsert", "alerts", start, err) }()

	var lat, lng sql.NullFloat64
	if a.Position != nil {
		lat = sql.NullFloat64{Float64: a.Position.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: a.Position.Lng, Valid: true}
	}
	var tourist sql.NullString
	if a.TouristID != "" {
		tourist = sql.NullString{String: a.TouristID, Valid: true}
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO alerts (`+alertColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			message = EXCLUDED.message,
			updated_at = EXCLUDED.updated_at`,
		a.ID, tourist, string(a.Type), string(a.Status), a.Message, lat, lng,
		a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save alert %d: %w", a.ID, err)
	}
	return nil
}

// GetAlert loads one alert. A missing id wraps models.ErrNotFound.
func (db *DB) GetAlert(ctx context.Context, id int64) (a *models.Alert, err error) {
	start := time.Now()
	defer func() { observe("select", "alerts", start, err) }()

	a, err = scanAlert(db.conn.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("alert %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert %d: %w", id, err)
	}
	return a, nil
}

// ListAlerts returns alerts matching f, newest first. Ties on created_at are
// broken by id so the order is stable.
func (db *DB) ListAlerts(ctx context.Context, f models.AlertFilter) (out []*models.Alert, err error) {
	start := time.Now()
	defer func() { observe("select", "alerts", start, err) }()

	var (
		where []string
		args  []any
	)
	if f.TouristID != "" {
		where = append(where, "tourist_id = ?")
		args = append(args, f.TouristID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.ExcludeStatus != "" {
		where = append(where, "status <> ?")
		args = append(args, string(f.ExcludeStatus))
	}
	if f.Type != "" {
		where = append(where, "alert_type = ?")
		args = append(args, string(f.Type))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + alertColumns + ` FROM alerts`)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC")
	if f.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		a, scanErr := scanAlert(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", scanErr)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAlert(r rowScanner) (*models.Alert, error) {
	var (
		a        models.Alert
		tourist  sql.NullString
		message  sql.NullString
		typ, st  string
		lat, lng sql.NullFloat64
	)
	if err := r.Scan(&a.ID, &tourist, &typ, &st, &message, &lat, &lng, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.TouristID = tourist.String
	a.Type = models.AlertType(typ)
	a.Status = models.AlertStatus(st)
	a.Message = message.String
	if lat.Valid && lng.Valid {
		a.Position = &geo.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}
