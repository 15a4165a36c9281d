// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package alerting

import (
	"context"

	"github.com/vedantlahane/safarsathi/internal/models"
)

// TopicAlerts is the broadcast topic for new and updated alerts.
const TopicAlerts = "alerts"

// AlertStore persists alerts. GetAlert wraps models.ErrNotFound.
type AlertStore interface {
	SaveAlert(ctx context.Context, a *models.Alert) error
	GetAlert(ctx context.Context, id int64) (*models.Alert, error)
	ListAlerts(ctx context.Context, f models.AlertFilter) ([]*models.Alert, error)
}

// NotificationStore persists tourist notifications. GetNotification wraps
// models.ErrNotFound. Lists are newest first.
type NotificationStore interface {
	SaveNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id int64) (*models.Notification, error)
	ListUnread(ctx context.Context, touristID string) ([]*models.Notification, error)
	ListNotifications(ctx context.Context, touristID string, unreadOnly bool) ([]*models.Notification, error)
}

// Publisher broadcasts alerts to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, topic string, alert *models.Alert) error
}

// Notifier delivers alerts to an operator channel.
type Notifier interface {
	Send(ctx context.Context, alert *models.Alert) error

	// Name identifies the notifier in logs and metrics, e.g. "webhook".
	Name() string

	Enabled() bool
}
