// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/vedantlahane/safarsathi/internal/detection"
	"github.com/vedantlahane/safarsathi/internal/geo"
	"github.com/vedantlahane/safarsathi/internal/models"
)

type mockLocations struct {
	mu    sync.Mutex
	calls []string
	pings []*models.LocationPing
	err   error
}

func (m *mockLocations) ProcessLocation(_ context.Context, touristID string, ping *models.LocationPing) (*detection.ProcessResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, touristID)
	m.pings = append(m.pings, ping)
	if m.err != nil {
		return nil, m.err
	}
	return &detection.ProcessResult{TouristID: touristID, SafetyScore: 100}, nil
}

type mockAlerts struct {
	mu       sync.Mutex
	alerts   map[int64]*models.Alert
	sosCalls int
	sosPos   *geo.Point
	limit    int
	err      error
}

func newMockAlerts(alerts ...*models.Alert) *mockAlerts {
	m := &mockAlerts{alerts: make(map[int64]*models.Alert), limit: -1}
	for _, a := range alerts {
		m.alerts[a.ID] = a
	}
	return m
}

func (m *mockAlerts) HandleSOS(_ context.Context, touristID string, pos *geo.Point) (*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.sosCalls++
	m.sosPos = pos
	a := &models.Alert{
		ID:        int64(100 + m.sosCalls),
		TouristID: touristID,
		Type:      models.AlertSOS,
		Status:    models.StatusOpen,
		Message:   "TOURIST IN IMMEDIATE DANGER",
		Position:  pos,
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	a.UpdatedAt = a.CreatedAt
	m.alerts[a.ID] = a
	return a, nil
}

func (m *mockAlerts) UpdateStatus(_ context.Context, id int64, status string) (*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := models.ParseAlertStatus(status)
	if !ok {
		return nil, models.ErrInvalidInput
	}
	a, ok := m.alerts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	a.Status = st
	return a, nil
}

func (m *mockAlerts) Get(_ context.Context, id int64) (*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.alerts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return a, nil
}

func (m *mockAlerts) ListActive(_ context.Context) ([]*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Alert
	for _, a := range m.alerts {
		if a.Status == models.StatusOpen {
			out = append(out, a)
		}
	}
	return out, m.err
}

func (m *mockAlerts) ListRecent(_ context.Context, limit int) ([]*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limit = limit
	out := make([]*models.Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		out = append(out, a)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, m.err
}

func (m *mockAlerts) ListForTourist(_ context.Context, touristID string) ([]*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Alert
	for _, a := range m.alerts {
		if a.TouristID == touristID {
			out = append(out, a)
		}
	}
	return out, m.err
}

type mockNotifications struct {
	mu     sync.Mutex
	items  map[int64]*models.Notification
	marked []int64
}

func newMockNotifications(items ...*models.Notification) *mockNotifications {
	m := &mockNotifications{items: make(map[int64]*models.Notification)}
	for _, n := range items {
		m.items[n.ID] = n
	}
	return m
}

func (m *mockNotifications) MarkRead(_ context.Context, id int64) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	n.Read = true
	m.marked = append(m.marked, id)
	return n, nil
}

func (m *mockNotifications) MarkAllRead(_ context.Context, touristID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.items {
		if n.TouristID == touristID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (m *mockNotifications) List(_ context.Context, touristID string) ([]*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Notification
	for _, n := range m.items {
		if n.TouristID == touristID {
			out = append(out, n)
		}
	}
	return out, nil
}

type mockChecker struct{ err error }

func (m mockChecker) Ping(context.Context) error { return m.err }

var errStoreDown = errors.New("store down")

// testRouter wires the mocks behind the real route tree with rate limiting
// disabled.
func testRouter(h *Handler) http.Handler {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	return NewRouter(h, NewChiMiddleware(cfg)).Setup()
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return env
}
