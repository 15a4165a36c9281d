// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package alerting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vedantlahane/safarsathi/internal/models"
)

type mockAlertStore struct {
	mu      sync.Mutex
	alerts  map[int64]*models.Alert
	saveErr error
	saves   int
}

func newMockAlertStore() *mockAlertStore {
	return &mockAlertStore{alerts: make(map[int64]*models.Alert)}
}

func (m *mockAlertStore) SaveAlert(_ context.Context, a *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	c := *a
	m.alerts[a.ID] = &c
	return nil
}

func (m *mockAlertStore) GetAlert(_ context.Context, id int64) (*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, fmt.Errorf("alert %d: %w", id, models.ErrNotFound)
	}
	c := *a
	return &c, nil
}

func (m *mockAlertStore) ListAlerts(_ context.Context, f models.AlertFilter) ([]*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Alert
	for _, a := range m.alerts {
		if f.TouristID != "" && a.TouristID != f.TouristID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.ExcludeStatus != "" && a.Status == f.ExcludeStatus {
			continue
		}
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

type mockNotificationStore struct {
	mu      sync.Mutex
	items   map[int64]*models.Notification
	saveErr error
	saves   int
}

func newMockNotificationStore() *mockNotificationStore {
	return &mockNotificationStore{items: make(map[int64]*models.Notification)}
}

func (m *mockNotificationStore) SaveNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	c := *n
	m.items[n.ID] = &c
	return nil
}

func (m *mockNotificationStore) GetNotification(_ context.Context, id int64) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("notification %d: %w", id, models.ErrNotFound)
	}
	c := *n
	return &c, nil
}

func (m *mockNotificationStore) ListUnread(ctx context.Context, touristID string) ([]*models.Notification, error) {
	return m.ListNotifications(ctx, touristID, true)
}

func (m *mockNotificationStore) ListNotifications(_ context.Context, touristID string, unreadOnly bool) ([]*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Notification
	for _, n := range m.items {
		if n.TouristID != touristID || (unreadOnly && n.Read) {
			continue
		}
		c := *n
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockNotificationStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type publishedAlert struct {
	topic string
	alert models.Alert
}

type mockPublisher struct {
	mu        sync.Mutex
	published []publishedAlert
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, topic string, a *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedAlert{topic: topic, alert: *a})
	return m.err
}

func (m *mockPublisher) all() []publishedAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]publishedAlert, len(m.published))
	copy(out, m.published)
	return out
}

type mockNotifier struct {
	mu      sync.Mutex
	name    string
	enabled bool
	sent    []int64
	err     error
}

func (m *mockNotifier) Name() string  { return m.name }
func (m *mockNotifier) Enabled() bool { return m.enabled }

func (m *mockNotifier) Send(_ context.Context, a *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, a.ID)
	return m.err
}

func (m *mockNotifier) sentIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.sent...)
}

// failingSequence fails for one counter name.
type failingSequence struct {
	next     func(ctx context.Context, name string) (int64, error)
	failName string
}

func (f *failingSequence) Next(ctx context.Context, name string) (int64, error) {
	if name == f.failName {
		return 0, errors.New("sequence unavailable")
	}
	return f.next(ctx, name)
}
