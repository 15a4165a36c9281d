// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package api

import (
	"context"
	"time"

	"github.com/vedantlahane/safarsathi/internal/audit"
	"github.com/vedantlahane/safarsathi/internal/detection"
	"github.com/vedantlahane/safarsathi/internal/geo"
	"github.com/vedantlahane/safarsathi/internal/models"
	"github.com/vedantlahane/safarsathi/internal/websocket"
)

// LocationProcessor runs the detection pipeline for one ping.
type LocationProcessor interface {
	ProcessLocation(ctx context.Context, touristID string, ping *models.LocationPing) (*detection.ProcessResult, error)
}

// AlertService is the alert side of the API.
type AlertService interface {
	HandleSOS(ctx context.Context, touristID string, pos *geo.Point) (*models.Alert, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*models.Alert, error)
	Get(ctx context.Context, id int64) (*models.Alert, error)
	ListActive(ctx context.Context) ([]*models.Alert, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Alert, error)
	ListForTourist(ctx context.Context, touristID string) ([]*models.Alert, error)
}

// NotificationService is the tourist notification feed.
type NotificationService interface {
	MarkRead(ctx context.Context, id int64) (*models.Notification, error)
	MarkAllRead(ctx context.Context, touristID string) (int, error)
	List(ctx context.Context, touristID string) ([]*models.Notification, error)
}

// AuditTrail records state-changing actions and serves them back.
type AuditTrail interface {
	AlertRaised(ctx context.Context, src audit.Source, a *models.Alert)
	StatusChanged(ctx context.Context, src audit.Source, id int64, status models.AlertStatus, err error)
	NotificationRead(ctx context.Context, src audit.Source, touristID string, id int64)
	NotificationsReadAll(ctx context.Context, src audit.Source, touristID string, updated int)
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
}

// ReadinessChecker is a dependency probed by /health/ready.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// Handler serves the HTTP endpoints.
type Handler struct {
	locations     LocationProcessor
	alerts        AlertService
	notifications NotificationService
	hub           *websocket.Hub
	audit         AuditTrail
	checks        map[string]ReadinessChecker
	wsOrigins     []string
	startTime     time.Time
}

// HandlerOption configures optional Handler dependencies.
type HandlerOption func(*Handler)

// WithHub enables the /ws endpoint.
func WithHub(hub *websocket.Hub) HandlerOption {
	return func(h *Handler) { h.hub = hub }
}

// WithAudit records actions to trail and enables /audit.
func WithAudit(trail AuditTrail) HandlerOption {
	return func(h *Handler) { h.audit = trail }
}

// WithReadinessCheck adds a named dependency to /health/ready.
func WithReadinessCheck(name string, c ReadinessChecker) HandlerOption {
	return func(h *Handler) { h.checks[name] = c }
}

// WithWebSocketOrigins sets the origins accepted on /ws. "*" accepts any.
func WithWebSocketOrigins(origins []string) HandlerOption {
	return func(h *Handler) { h.wsOrigins = origins }
}

// NewHandler creates the handler set.
func NewHandler(locations LocationProcessor, alerts AlertService, notifications NotificationService, opts ...HandlerOption) *Handler {
	h := &Handler{
		locations:     locations,
		alerts:        alerts,
		notifications: notifications,
		checks:        make(map[string]ReadinessChecker),
		startTime:     time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}
