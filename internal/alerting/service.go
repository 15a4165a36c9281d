// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package alerting

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/vedantlahane/safarsathi/internal/geo"
	"github.com/vedantlahane/safarsathi/internal/logging"
	"github.com/vedantlahane/safarsathi/internal/metrics"
	"github.com/vedantlahane/safarsathi/internal/models"
	"github.com/vedantlahane/safarsathi/internal/sequence"
)

// DefaultNotifierTimeout bounds one background notifier delivery.
const DefaultNotifierTimeout = 30 * time.Second

// Service creates alerts and manages their lifecycle.
type Service struct {
	alerts        AlertStore
	notifications *Notifications
	seq           sequence.Generator
	publisher     Publisher

	mu        sync.RWMutex
	notifiers []Notifier

	notifierTimeout time.Duration
	inflight        sync.WaitGroup
	now             func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the broadcast publisher. Without one, alerts are only
// persisted.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithNotifier registers an operator notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifiers = append(s.notifiers, n) }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		if s.notifications != nil {
			s.notifications.now = now
		}
	}
}

// WithNotifierTimeout bounds each background notifier delivery.
func WithNotifierTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.notifierTimeout = d
		}
	}
}

// NewService wires the alert pipeline.
func NewService(alerts AlertStore, notifications *Notifications, seq sequence.Generator, opts ...Option) *Service {
	s := &Service{
		alerts:          alerts,
		notifications:   notifications,
		seq:             seq,
		notifierTimeout: DefaultNotifierTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notifications exposes the notification manager used by the service.
func (s *Service) Notifications() *Notifications {
	return s.notifications
}

// RegisterNotifier adds an operator notifier after construction.
func (s *Service) RegisterNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifiers = append(s.notifiers, n)
	logging.Info().Str("notifier", n.Name()).Msg("registered notifier")
}

// CreateAlert assigns an id, persists the alert, creates the tourist
// notification, broadcasts and dispatches notifiers. Only identity,
// persistence and notification failures are returned.
func (s *Service) CreateAlert(ctx context.Context, draft models.AlertDraft) (*models.Alert, error) {
	id, err := s.seq.Next(ctx, sequence.AlertID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate alert id: %w", err)
	}

	now := s.now().UTC()
	status := draft.Status
	if status == "" {
		status = models.StatusOpen
	}
	alert := &models.Alert{
		ID:        id,
		TouristID: draft.TouristID,
		Type:      draft.Type,
		Status:    status,
		Message:   draft.Message,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if draft.Position != nil {
		p := *draft.Position
		alert.Position = &p
	}

	if err := s.alerts.SaveAlert(ctx, alert); err != nil {
		return nil, err
	}
	metrics.RecordAlertCreated(string(alert.Type))

	if alert.TouristID != "" {
		if _, err := s.notifications.FromAlert(ctx, alert); err != nil {
			return nil, fmt.Errorf("alert %d saved but notification failed: %w", alert.ID, err)
		}
	}

	s.broadcast(ctx, alert)
	s.notify(ctx, alert)

	logging.Ctx(ctx).Info().
		Int64("alert_id", alert.ID).
		Str("alert_type", string(alert.Type)).
		Str("priority", string(alert.Priority())).
		Msg("alert created")
	return alert, nil
}

// UpdateStatus sets a new status on an existing alert and re-broadcasts it.
// Any transition between the three statuses is allowed.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*models.Alert, error) {
	st, ok := models.ParseAlertStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown alert status %q: %w", status, models.ErrInvalidInput)
	}

	alert, err := s.alerts.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	alert.Status = st
	alert.UpdatedAt = s.now().UTC()
	if err := s.alerts.SaveAlert(ctx, alert); err != nil {
		return nil, err
	}
	metrics.RecordAlertStatusChange(string(st))

	s.broadcast(ctx, alert)
	return alert, nil
}

// HandleSOS raises a critical SOS alert. pos may be nil when the device has
// no fix.
func (s *Service) HandleSOS(ctx context.Context, touristID string, pos *geo.Point) (*models.Alert, error) {
	lat, lng := "unknown", "unknown"
	if pos != nil {
		lat = strconv.FormatFloat(pos.Lat, 'f', -1, 64)
		lng = strconv.FormatFloat(pos.Lng, 'f', -1, 64)
	}
	return s.CreateAlert(ctx, models.AlertDraft{
		TouristID: touristID,
		Type:      models.AlertSOS,
		Message:   fmt.Sprintf("TOURIST IN IMMEDIATE DANGER. LAST LOC: %s, %s", lat, lng),
		Position:  pos,
	})
}

// Get loads one alert.
func (s *Service) Get(ctx context.Context, id int64) (*models.Alert, error) {
	return s.alerts.GetAlert(ctx, id)
}

// ListActive returns OPEN alerts, newest first.
func (s *Service) ListActive(ctx context.Context) ([]*models.Alert, error) {
	return s.alerts.ListAlerts(ctx, models.AlertFilter{Status: models.StatusOpen})
}

// ListRecent returns the newest alerts; limit <= 0 returns all of them.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*models.Alert, error) {
	if limit < 0 {
		limit = 0
	}
	return s.alerts.ListAlerts(ctx, models.AlertFilter{Limit: limit})
}

// ListForTourist returns every alert of one tourist, newest first.
func (s *Service) ListForTourist(ctx context.Context, touristID string) ([]*models.Alert, error) {
	return s.alerts.ListAlerts(ctx, models.AlertFilter{TouristID: touristID})
}

func (s *Service) broadcast(ctx context.Context, alert *models.Alert) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, TopicAlerts, alert); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("alert_id", alert.ID).Msg("alert broadcast failed")
	}
}

// notify sends the alert to every enabled notifier in its own goroutine.
// Deliveries outlive the caller's context but not notifierTimeout.
func (s *Service) notify(ctx context.Context, alert *models.Alert) {
	s.mu.RLock()
	notifiers := make([]Notifier, 0, len(s.notifiers))
	for _, n := range s.notifiers {
		if n.Enabled() {
			notifiers = append(notifiers, n)
		}
	}
	s.mu.RUnlock()

	if len(notifiers) == 0 {
		return
	}

	snapshot := *alert
	base := context.WithoutCancel(ctx)
	for _, notifier := range notifiers {
		s.inflight.Add(1)
		go func(n Notifier) {
			defer s.inflight.Done()
			sendCtx, cancel := context.WithTimeout(base, s.notifierTimeout)
			defer cancel()

			err := n.Send(sendCtx, &snapshot)
			metrics.RecordNotifierDelivery(n.Name(), err)
			if err != nil {
				logging.Ctx(ctx).Error().Err(err).Str("notifier", n.Name()).Int64("alert_id", snapshot.ID).Msg("failed to send alert")
			}
		}(notifier)
	}
}

// Wait blocks until background notifier deliveries finish or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
