// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package detection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vedantlahane/safarsathi/internal/models"
)

// InactivityRule fires when a tourist's last update is older than the threshold.
type InactivityRule struct {
	threshold time.Duration
	order     InactivityOrder
	enabled   bool
	mu        sync.RWMutex
}

// NewInactivityRule creates an enabled inactivity rule.
func NewInactivityRule(threshold time.Duration, order InactivityOrder) *InactivityRule {
	if threshold <= 0 {
		threshold = DefaultInactivityThreshold
	}
	return &InactivityRule{threshold: threshold, order: order, enabled: true}
}

func (r *InactivityRule) Type() RuleType { return RuleInactivity }

// Evaluate compares Now with the last-seen value selected by the order.
func (r *InactivityRule) Evaluate(_ context.Context, ev *Evaluation) ([]models.AlertDraft, error) {
	r.mu.RLock()
	threshold, order := r.threshold, r.order
	r.mu.RUnlock()

	src := ev.Before
	if order == InactivityPostUpdate {
		src = ev.After
	}
	if src == nil || src.LastSeen == nil {
		return nil, nil
	}

	idle := ev.Now.Sub(*src.LastSeen)
	if idle <= threshold {
		return nil, nil
	}

	return []models.AlertDraft{{
		TouristID: ev.TouristID,
		Type:      models.AlertInactivity,
		Message:   fmt.Sprintf("Tourist has not sent a location update in %d minutes.", int64(idle/time.Minute)),
		Position:  ev.Position(),
	}}, nil
}

// Threshold returns the configured inactivity window.
func (r *InactivityRule) Threshold() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.threshold
}

func (r *InactivityRule) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

func (r *InactivityRule) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}
