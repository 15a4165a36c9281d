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

const notificationColumns = `id, tourist_id, title, message, type, source_tab, is_read, created_at`

// SaveNotification inserts a notification or updates its read flag.
func (db *DB) SaveNotification(ctx context.Context, n *models.Notification) (err error) {
	start := time.Now()
	defer func() { observe("upsert", "notifications", start, err) }()

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET is_read = EXCLUDED.is_read`,
		n.ID, n.TouristID, n.Title, n.Message, n.Type, n.SourceTab, n.Read, n.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save notification %d: %w", n.ID, err)
	}
	return nil
}

// GetNotification loads one notification. A missing id wraps models.ErrNotFound.
func (db *DB) GetNotification(ctx context.Context, id int64) (n *models.Notification, err error) {
	start := time.Now()
	defer func() { observe("select", "notifications", start, err) }()

	n, err = scanNotification(db.conn.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notification %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification %d: %w", id, err)
	}
	return n, nil
}

// ListNotifications returns a tourist's notifications newest first.
func (db *DB) ListNotifications(ctx context.Context, touristID string, unreadOnly bool) (out []*models.Notification, err error) {
	start := time.Now()
	defer func() { observe("select", "notifications", start, err) }()

	q := `SELECT ` + notificationColumns + ` FROM notifications WHERE tourist_id = ?`
	if unreadOnly {
		q += ` AND NOT is_read`
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.conn.QueryContext(ctx, q, touristID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		n, scanErr := scanNotification(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", scanErr)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ListUnread returns a tourist's unread notifications newest first.
func (db *DB) ListUnread(ctx context.Context, touristID string) ([]*models.Notification, error) {
	return db.ListNotifications(ctx, touristID, true)
}

func scanNotification(r rowScanner) (*models.Notification, error) {
	var n models.Notification
	if err := r.Scan(&n.ID, &n.TouristID, &n.Title, &n.Message, &n.Type, &n.SourceTab, &n.Read, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}
