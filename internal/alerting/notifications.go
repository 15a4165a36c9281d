// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/vedantlahane/safarsathi/internal/logging"
	"github.com/vedantlahane/safarsathi/internal/metrics"
	"github.com/vedantlahane/safarsathi/internal/models"
	"github.com/vedantlahane/safarsathi/internal/sequence"
)

const (
	defaultNotificationTitle   = "Alert"
	defaultNotificationMessage = "Safety alert received"
)

// Notifications manages per-tourist in-app notifications.
type Notifications struct {
	store NotificationStore
	seq   sequence.Generator
	now   func() time.Time
}

func NewNotifications(store NotificationStore, seq sequence.Generator) *Notifications {
	return &Notifications{store: store, seq: seq, now: time.Now}
}

// FromAlert creates the unread notification that mirrors alert.
func (n *Notifications) FromAlert(ctx context.Context, alert *models.Alert) (*models.Notification, error) {
	id, err := n.seq.Next(ctx, sequence.NotificationID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate notification id: %w", err)
	}

	title := string(alert.Type)
	if title == "" {
		title = defaultNotificationTitle
	}
	message := alert.Message
	if message == "" {
		message = defaultNotificationMessage
	}

	notif := &models.Notification{
		ID:        id,
		TouristID: alert.TouristID,
		Title:     title,
		Message:   message,
		Type:      models.NotificationTypeAlert,
		SourceTab: models.DefaultSourceTab,
		Read:      false,
		CreatedAt: n.now().UTC(),
	}
	if err := n.store.SaveNotification(ctx, notif); err != nil {
		return nil, err
	}
	metrics.RecordNotificationCreated()
	return notif, nil
}

// MarkRead flags one notification as read. Marking an already-read
// notification succeeds without writing.
func (n *Notifications) MarkRead(ctx context.Context, id int64) (*models.Notification, error) {
	notif, err := n.store.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if notif.Read {
		return notif, nil
	}
	notif.Read = true
	if err := n.store.SaveNotification(ctx, notif); err != nil {
		return nil, err
	}
	metrics.RecordNotificationsRead(1)
	return notif, nil
}

// MarkAllRead flags every unread notification of touristID and returns how
// many changed. A tourist with nothing unread is not an error.
func (n *Notifications) MarkAllRead(ctx context.Context, touristID string) (int, error) {
	unread, err := n.store.ListUnread(ctx, touristID)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, notif := range unread {
		notif.Read = true
		if err := n.store.SaveNotification(ctx, notif); err != nil {
			metrics.RecordNotificationsRead(updated)
			return updated, fmt.Errorf("failed to mark notification %d read: %w", notif.ID, err)
		}
		updated++
	}
	metrics.RecordNotificationsRead(updated)
	logging.Ctx(ctx).Debug().Str("tourist_id", touristID).Int("updated", updated).Msg("notifications marked read")
	return updated, nil
}

// List returns the tourist's notifications, newest first.
func (n *Notifications) List(ctx context.Context, touristID string) ([]*models.Notification, error) {
	return n.store.ListNotifications(ctx, touristID, false)
}
