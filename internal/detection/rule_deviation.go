// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package detection

import (
	"context"
	"fmt"
	"sync"

	"github.com/vedantlahane/safarsathi/internal/geo"
	"github.com/vedantlahane/safarsathi/internal/models"
)

// StubDeviation is the placeholder route model: every position is on route.
type StubDeviation struct{}

func (StubDeviation) DeviationKm(context.Context, string, *geo.Point) (float64, error) {
	return 0, nil
}

// DeviationRule fires when the calculator reports an offset above the threshold.
type DeviationRule struct {
	calc        DeviationCalculator
	thresholdKm float64
	enabled     bool
	mu          sync.RWMutex
}

// NewDeviationRule creates an enabled deviation rule. A nil calculator
// defaults to StubDeviation.
func NewDeviationRule(calc DeviationCalculator, thresholdKm float64) *DeviationRule {
	if calc == nil {
		calc = StubDeviation{}
	}
	if thresholdKm <= 0 {
		thresholdKm = DefaultDeviationKm
	}
	return &DeviationRule{calc: calc, thresholdKm: thresholdKm, enabled: true}
}

func (r *DeviationRule) Type() RuleType { return RuleDeviation }

func (r *DeviationRule) Evaluate(ctx context.Context, ev *Evaluation) ([]models.AlertDraft, error) {
	pos := ev.Position()
	if pos == nil {
		return nil, nil
	}

	r.mu.RLock()
	calc, threshold := r.calc, r.thresholdKm
	r.mu.RUnlock()

	km, err := calc.DeviationKm(ctx, ev.TouristID, pos)
	if err != nil {
		return nil, fmt.Errorf("compute deviation: %w", err)
	}
	if km <= threshold {
		return nil, nil
	}

	return []models.AlertDraft{{
		TouristID: ev.TouristID,
		Type:      models.AlertDeviation,
		Message:   fmt.Sprintf("Route deviation detected: %.2f km off planned route.", km),
		Position:  pos,
	}}, nil
}

// SetCalculator swaps the route model at runtime.
func (r *DeviationRule) SetCalculator(calc DeviationCalculator) {
	if calc == nil {
		calc = StubDeviation{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calc = calc
}

func (r *DeviationRule) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

func (r *DeviationRule) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}
