// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package detection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vedantlahane/safarsathi/internal/geo"
	"github.com/vedantlahane/safarsathi/internal/models"
)

// mockTouristStore implements TouristStore for testing
type mockTouristStore struct {
	mu       sync.Mutex
	tourists map[string]*models.Tourist
	saves    int
	saveErr  error
	calls    int
	// failCall makes only the n-th SaveTourist call fail with saveErr.
	failCall int
}

func newMockTouristStore(ts ...*models.Tourist) *mockTouristStore {
	m := &mockTouristStore{tourists: make(map[string]*models.Tourist)}
	for _, t := range ts {
		m.tourists[t.ID] = t.Clone()
	}
	return m
}

func (m *mockTouristStore) GetTourist(_ context.Context, id string) (*models.Tourist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tourists[id]
	if !ok {
		return nil, fmt.Errorf("tourist %s: %w", id, models.ErrNotFound)
	}
	return t.Clone(), nil
}

func (m *mockTouristStore) SaveTourist(_ context.Context, t *models.Tourist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.saveErr != nil && (m.failCall == 0 || m.failCall == m.calls) {
		return m.saveErr
	}
	m.saves++
	m.tourists[t.ID] = t.Clone()
	return nil
}

func (m *mockTouristStore) get(id string) *models.Tourist {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tourists[id].Clone()
}

// mockZoneStore implements RiskZoneStore for testing
type mockZoneStore struct {
	mu    sync.Mutex
	zones []models.RiskZone
	err   error
}

func (m *mockZoneStore) ListActiveZones(context.Context) ([]models.RiskZone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []models.RiskZone
	for _, z := range m.zones {
		if z.Active {
			out = append(out, z)
		}
	}
	return out, nil
}

func (m *mockZoneStore) set(zones ...models.RiskZone) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zones = zones
}

// mockAlertCreator implements AlertCreator for testing
type mockAlertCreator struct {
	mu     sync.Mutex
	nextID int64
	alerts []*models.Alert
	err    error
}

func (m *mockAlertCreator) CreateAlert(_ context.Context, d models.AlertDraft) (*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	a := &models.Alert{
		ID:        m.nextID,
		TouristID: d.TouristID,
		Type:      d.Type,
		Status:    models.StatusOpen,
		Message:   d.Message,
		Position:  d.Position,
	}
	m.alerts = append(m.alerts, a)
	return a, nil
}

func (m *mockAlertCreator) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockAlertCreator) byType(t models.AlertType) []*models.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Alert
	for _, a := range m.alerts {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// mockLogStore implements LocationLogStore for testing
type mockLogStore struct {
	mu      sync.Mutex
	entries []*models.LocationLog
}

func (m *mockLogStore) AppendLocationLog(_ context.Context, e *models.LocationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// fixedDeviation reports a constant offset.
type fixedDeviation struct {
	km  float64
	err error
}

func (f fixedDeviation) DeviationKm(context.Context, string, *geo.Point) (float64, error) {
	return f.km, f.err
}

// panicRule simulates a broken detector.
type panicRule struct{}

func (panicRule) Type() RuleType { return "panic" }
func (panicRule) Evaluate(context.Context, *Evaluation) ([]models.AlertDraft, error) {
	panic("detector exploded")
}
func (panicRule) Enabled() bool   { return true }
func (panicRule) SetEnabled(bool) {}

var errBoom = errors.New("boom")

// manualClock is a settable time source.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func ping(lat, lng float64) *models.LocationPing {
	return &models.LocationPing{Lat: &lat, Lng: &lng}
}

// Guwahati riverfront, used as the centre of most test zones.
var zoneCenter = geo.Point{Lat: 26.1667, Lng: 91.7086}

func zone(id int64, level models.RiskLevel, radius float64) models.RiskZone {
	return models.RiskZone{
		ID:           id,
		Name:         fmt.Sprintf("zone-%d", id),
		Center:       zoneCenter,
		RadiusMeters: radius,
		RiskLevel:    level,
		Active:       true,
	}
}
