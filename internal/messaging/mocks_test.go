// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package messaging

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/vedantlahane/safarsathi/internal/detection"
	"github.com/vedantlahane/safarsathi/internal/logging"
	"github.com/vedantlahane/safarsathi/internal/models"
)

//nolint:gochecknoinits // quiet logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

type mockBroadcaster struct {
	mu       sync.Mutex
	received [][]byte
	err      error
	notify   chan struct{}
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{notify: make(chan struct{}, 64)}
}

func (m *mockBroadcaster) BroadcastRaw(data []byte) error {
	m.mu.Lock()
	m.received = append(m.received, append([]byte(nil), data...))
	err := m.err
	m.mu.Unlock()
	select {
	case m.notify <- struct{}{}:
	default:
	}
	return err
}

func (m *mockBroadcaster) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.received)
}

func (m *mockBroadcaster) wait(timeout time.Duration) bool {
	select {
	case <-m.notify:
		return true
	case <-time.After(timeout):
		return false
	}
}

type processCall struct {
	touristID string
	ping      models.LocationPing
	hasCorrID bool
}

type mockProcessor struct {
	mu    sync.Mutex
	calls []processCall
	err   error
}

func (m *mockProcessor) ProcessLocation(ctx context.Context, touristID string, ping *models.LocationPing) (*detection.ProcessResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, processCall{
		touristID: touristID,
		ping:      *ping,
		hasCorrID: logging.CorrelationIDFromContext(ctx) != "",
	})
	if m.err != nil {
		return nil, m.err
	}
	return &detection.ProcessResult{TouristID: touristID, SafetyScore: 100}, nil
}

func (m *mockProcessor) snapshot() []processCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]processCall(nil), m.calls...)
}

var errProcessing = errors.New("engine unavailable")

func testAlert(id int64, touristID string) *models.Alert {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &models.Alert{
		ID:        id,
		TouristID: touristID,
		Type:      models.AlertSOS,
		Status:    models.StatusOpen,
		Message:   "SOS Alert triggered at location: 26.1, 91.7",
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}
