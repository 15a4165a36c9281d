// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package alerting

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vedantlahane/safarsathi/internal/metrics"
	"github.com/vedantlahane/safarsathi/internal/models"
)

// MultiPublisher fans one alert out to several named publishers (local
// WebSocket hub, NATS, RabbitMQ). Every publisher is attempted; failures
// are counted per publisher and joined.
type MultiPublisher struct {
	mu      sync.RWMutex
	entries []namedPublisher
}

type namedPublisher struct {
	name string
	pub  Publisher
}

// NewMultiPublisher returns an empty fan-out. Publish on it is a no-op
// until Add is called.
func NewMultiPublisher() *MultiPublisher {
	return &MultiPublisher{}
}

// Add registers p under name.
func (m *MultiPublisher) Add(name string, p Publisher) {
	if p == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, namedPublisher{name: name, pub: p})
}

// Names lists the registered publishers in registration order.
func (m *MultiPublisher) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.name
	}
	return out
}

func (m *MultiPublisher) Publish(ctx context.Context, topic string, alert *models.Alert) error {
	m.mu.RLock()
	entries := make([]namedPublisher, len(m.entries))
	copy(entries, m.entries)
	m.mu.RUnlock()

	var errs []error
	for _, e := range entries {
		err := e.pub.Publish(ctx, topic, alert)
		metrics.RecordBroadcast(e.name, err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
		}
	}
	return errors.Join(errs...)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, topic string, alert *models.Alert) error

func (f PublisherFunc) Publish(ctx context.Context, topic string, alert *models.Alert) error {
	return f(ctx, topic, alert)
}
