// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package audit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vedantlahane/safarsathi/internal/logging"
	"github.com/vedantlahane/safarsathi/internal/metrics"
	"github.com/vedantlahane/safarsathi/internal/models"
)

// Config holds configuration for the audit logger.
type Config struct {
	Enabled         bool
	BufferSize      int
	RetentionDays   int
	CleanupInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		BufferSize:      1000,
		RetentionDays:   90,
		CleanupInterval: 24 * time.Hour,
	}
}

const writeTimeout = 5 * time.Second

// Logger buffers events and writes them to a Store from one goroutine.
// A nil *Logger is valid and records nothing.
type Logger struct {
	config    Config
	store     Store
	events    chan *Event
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	now       func() time.Time
}

// NewLogger starts the writer goroutine. Call Close (or run Serve under a
// supervisor) to drain and stop it.
func NewLogger(store Store, config Config) *Logger {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.RetentionDays <= 0 {
		config.RetentionDays = DefaultConfig().RetentionDays
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}

	l := &Logger{
		config: config,
		store:  store,
		events: make(chan *Event, config.BufferSize),
		stopCh: make(chan struct{}),
		now:    time.Now,
	}
	l.wg.Add(1)
	go l.writer()
	return l
}

func (l *Logger) writer() {
	defer l.wg.Done()
	for {
		select {
		case <-l.stopCh:
			for {
				select {
				case event := <-l.events:
					l.write(event)
				default:
					return
				}
			}
		case event := <-l.events:
			l.write(event)
		}
	}
}

func (l *Logger) write(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		metrics.RecordAuditEvent("error")
		logging.Error().Err(err).Str("event_id", event.ID).Str("type", string(event.Type)).Msg("Failed to save audit event")
		return
	}
	metrics.RecordAuditEvent("ok")
}

// Log queues an event. ID, Timestamp and RequestID are filled in when empty.
// It never blocks; a full buffer drops the event.
func (l *Logger) Log(ctx context.Context, event *Event) {
	if l == nil || !l.config.Enabled || event == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = logging.RequestIDFromContext(ctx)
	}

	select {
	case l.events <- event:
	default:
		metrics.RecordAuditEvent("dropped")
		logging.Warn().Str("event_id", event.ID).Str("type", string(event.Type)).Msg("Audit event buffer full, dropping event")
	}
}

// Query reads events from the store.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Cleanup deletes events past the retention window.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	cutoff := l.now().AddDate(0, 0, -l.config.RetentionDays)
	count, err := l.store.Delete(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logging.Info().Int64("count", count).Time("older_than", cutoff).Msg("Cleaned up old audit events")
	}
	return count, nil
}

// Serve runs retention cleanup until ctx ends, then drains the buffer.
func (l *Logger) Serve(ctx context.Context) error {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-ticker.C:
			if _, err := l.Cleanup(ctx); err != nil {
				logging.Error().Err(err).Msg("Audit cleanup error")
			}
		}
	}
}

func (l *Logger) String() string {
	return "audit-logger"
}

// Close stops the writer after flushing queued events. Safe to call twice.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.stopOnce.Do(func() { close(l.stopCh) })
	l.wg.Wait()
}

// SourceFromRequest builds a Source. RemoteAddr is expected to have been
// rewritten by the RealIP middleware already.
func SourceFromRequest(r *http.Request) Source {
	return Source{IPAddress: r.RemoteAddr, UserAgent: r.UserAgent()}
}

func outcomeOf(err error) Outcome {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}

// AlertRaised records an SOS raised through the API.
func (l *Logger) AlertRaised(ctx context.Context, src Source, a *models.Alert) {
	if a == nil {
		return
	}
	l.Log(ctx, &Event{
		Type:        EventAlertRaised,
		Outcome:     OutcomeSuccess,
		Actor:       Actor{ID: a.TouristID, Type: ActorTourist},
		Target:      &Target{ID: strconv.FormatInt(a.ID, 10), Type: TargetAlert},
		Source:      src,
		Action:      "raise_sos",
		Description: fmt.Sprintf("%s alert %d raised", a.Type, a.ID),
		Metadata:    mustJSON(map[string]any{"alertType": a.Type, "hasLocation": a.Position != nil}),
	})
}

// StatusChanged records an attempted status transition. err is the service
// error, if any.
func (l *Logger) StatusChanged(ctx context.Context, src Source, id int64, status models.AlertStatus, err error) {
	desc := fmt.Sprintf("alert %d set to %s", id, status)
	meta := map[string]any{"status": status}
	if err != nil {
		desc = fmt.Sprintf("alert %d could not be set to %s", id, status)
		meta["error"] = err.Error()
	}
	l.Log(ctx, &Event{
		Type:        EventAlertStatusChanged,
		Outcome:     outcomeOf(err),
		Actor:       Actor{ID: src.IPAddress, Type: ActorOperator},
		Target:      &Target{ID: strconv.FormatInt(id, 10), Type: TargetAlert},
		Source:      src,
		Action:      "update_status",
		Description: desc,
		Metadata:    mustJSON(meta),
	})
}

// NotificationRead records one notification acknowledged by a tourist.
func (l *Logger) NotificationRead(ctx context.Context, src Source, touristID string, id int64) {
	l.Log(ctx, &Event{
		Type:        EventNotificationRead,
		Outcome:     OutcomeSuccess,
		Actor:       Actor{ID: touristID, Type: ActorTourist},
		Target:      &Target{ID: strconv.FormatInt(id, 10), Type: TargetNotification},
		Source:      src,
		Action:      "mark_read",
		Description: fmt.Sprintf("notification %d marked read", id),
	})
}

// NotificationsReadAll records a tourist clearing their notifications.
func (l *Logger) NotificationsReadAll(ctx context.Context, src Source, touristID string, updated int) {
	l.Log(ctx, &Event{
		Type:        EventNotificationsReadAll,
		Outcome:     OutcomeSuccess,
		Actor:       Actor{ID: touristID, Type: ActorTourist},
		Target:      &Target{ID: touristID, Type: TargetTourist},
		Source:      src,
		Action:      "mark_all_read",
		Description: fmt.Sprintf("%d notifications marked read", updated),
		Metadata:    mustJSON(map[string]int{"updated": updated}),
	})
}
