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

	"github.com/vedantlahane/safarsathi/internal/logging"
	"github.com/vedantlahane/safarsathi/internal/metrics"
	"github.com/vedantlahane/safarsathi/internal/models"
)

// Engine runs the detection rules for every location ping.
type Engine struct {
	tourists TouristStore
	alerts   AlertCreator
	logs     LocationLogStore

	inactivity *InactivityRule
	deviation  *DeviationRule
	geofence   *GeoFenceRule
	rules      []Rule

	locks *stripedLock
	now   func() time.Time

	mu      sync.RWMutex
	enabled bool
}

// Option customises an Engine.
type Option func(*Engine)

// WithDeviationCalculator replaces the stub route model.
func WithDeviationCalculator(calc DeviationCalculator) Option {
	return func(e *Engine) { e.deviation.SetCalculator(calc) }
}

// WithLocationLog records every processed ping.
func WithLocationLog(store LocationLogStore) Option {
	return func(e *Engine) { e.logs = store }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine wires the three rules in their fixed evaluation order:
// inactivity, deviation, geofence.
func NewEngine(cfg EngineConfig, tourists TouristStore, zones RiskZoneStore, alerts AlertCreator, opts ...Option) *Engine {
	cfg.applyDefaults()

	e := &Engine{
		tourists:   tourists,
		alerts:     alerts,
		inactivity: NewInactivityRule(cfg.InactivityThreshold, cfg.InactivityOrder),
		deviation:  NewDeviationRule(nil, cfg.DeviationKm),
		geofence:   NewGeoFenceRule(zones, NewMembershipTracker(cfg.MembershipShards)),
		locks:      newStripedLock(cfg.LockStripes),
		now:        time.Now,
		enabled:    true,
	}
	e.inactivity.SetEnabled(cfg.InactivityEnabled)
	e.deviation.SetEnabled(cfg.DeviationEnabled)
	e.geofence.SetEnabled(cfg.GeoFenceEnabled)
	e.rules = []Rule{e.inactivity, e.deviation, e.geofence}

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessLocation applies one ping for a tourist.
//
// The position and last-seen time are saved before any rule runs, so a
// failing rule never loses the update. Errors wrap models.ErrInvalidInput or
// models.ErrNotFound where applicable.
func (e *Engine) ProcessLocation(ctx context.Context, touristID string, ping *models.LocationPing) (*ProcessResult, error) {
	start := time.Now()
	res, err := e.processLocation(ctx, touristID, ping)

	outcome := "ok"
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		outcome = "invalid"
	case errors.Is(err, models.ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	metrics.RecordPing(outcome, time.Since(start))
	return res, err
}

func (e *Engine) processLocation(ctx context.Context, touristID string, ping *models.LocationPing) (*ProcessResult, error) {
	if touristID == "" {
		return nil, fmt.Errorf("tourist id is required: %w", models.ErrInvalidInput)
	}
	pos := ping.Point()
	if pos == nil {
		return nil, fmt.Errorf("lat and lng are required: %w", models.ErrInvalidInput)
	}
	if !pos.Valid() {
		return nil, fmt.Errorf("coordinates out of range: %w", models.ErrInvalidInput)
	}

	ctx = logging.ContextWithTouristID(ctx, touristID)
	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithCorrelationID(ctx, logging.NewCorrelationID())
	}

	unlock := e.locks.lock(touristID)
	defer unlock()

	tourist, err := e.tourists.GetTourist(ctx, touristID)
	if err != nil {
		return nil, fmt.Errorf("load tourist %s: %w", touristID, err)
	}

	now := e.now()
	before := tourist.Clone()
	tourist.Position = pos
	tourist.LastSeen = &now
	if err := e.tourists.SaveTourist(ctx, tourist); err != nil {
		return nil, fmt.Errorf("save tourist position: %w", err)
	}

	ev := &Evaluation{
		TouristID: touristID,
		Now:       now,
		Before:    before,
		After:     tourist.Clone(),
		Score:     ClampScore(tourist.SafetyScore),
	}

	tracker := e.geofence.Tracker()
	membership := tracker.Zones(touristID)
	baseScore := ev.Score

	var drafts []models.AlertDraft
	if e.Enabled() {
		drafts = e.runRules(ctx, ev)
	}

	var errs []error
	if ev.Score != tourist.SafetyScore {
		if err := e.saveScore(ctx, tourist, ev.Score); err != nil {
			// Nothing was penalised, so the entries must be seen again.
			tracker.Restore(touristID, membership)
			ev.EnteredZones = nil
			drafts = withoutZoneDrafts(drafts)
			logging.Ctx(ctx).Error().Err(err).Msg("Failed to save safety score")
			errs = append(errs, fmt.Errorf("save safety score: %w", err))
		}
	}

	entered := make(map[int64]models.RiskZone, len(ev.EnteredZones))
	for _, z := range ev.EnteredZones {
		entered[z.ID] = z
	}

	result := &ProcessResult{TouristID: touristID}
	var alerted []models.RiskZone
	zoneFailed := false
	for _, d := range drafts {
		alert, err := e.alerts.CreateAlert(ctx, d)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("alert_type", string(d.Type)).Msg("Failed to create alert")
			errs = append(errs, fmt.Errorf("create %s alert: %w", d.Type, err))
			if d.Type == models.AlertRiskZone {
				tracker.Remove(touristID, d.ZoneID)
				zoneFailed = true
			}
			continue
		}
		result.Alerts = append(result.Alerts, alert)
		if z, ok := entered[d.ZoneID]; ok && d.Type == models.AlertRiskZone {
			alerted = append(alerted, z)
		}
	}

	// Only entries that produced an alert keep their penalty.
	if zoneFailed {
		if score := ApplyEntries(baseScore, alerted); score != tourist.SafetyScore {
			if err := e.saveScore(ctx, tourist, score); err != nil {
				logging.Ctx(ctx).Error().Err(err).Msg("Failed to restore safety score")
				errs = append(errs, fmt.Errorf("restore safety score: %w", err))
			}
		}
	} else {
		alerted = ev.EnteredZones
	}

	e.appendLog(ctx, tourist, ping)

	result.SafetyScore = tourist.SafetyScore
	for _, z := range alerted {
		result.EnteredZones = append(result.EnteredZones, z.ID)
	}
	return result, errors.Join(errs...)
}

// saveScore persists score, leaving t unchanged when the write fails.
func (e *Engine) saveScore(ctx context.Context, t *models.Tourist, score float64) error {
	prev := t.SafetyScore
	t.SafetyScore = score
	if err := e.tourists.SaveTourist(ctx, t); err != nil {
		t.SafetyScore = prev
		return err
	}
	return nil
}

func withoutZoneDrafts(drafts []models.AlertDraft) []models.AlertDraft {
	out := drafts[:0]
	for _, d := range drafts {
		if d.Type != models.AlertRiskZone {
			out = append(out, d)
		}
	}
	return out
}

// runRules evaluates every enabled rule in order. A failing or panicking rule
// is logged and skipped.
func (e *Engine) runRules(ctx context.Context, ev *Evaluation) []models.AlertDraft {
	var drafts []models.AlertDraft
	for _, rule := range e.rules {
		if !rule.Enabled() {
			continue
		}
		out, err := e.runRule(ctx, rule, ev)
		if err != nil {
			metrics.RecordRuleEvaluation(string(rule.Type()), "error")
			logging.Ctx(ctx).Error().Err(err).Str("rule", string(rule.Type())).Msg("Detection rule failed")
			continue
		}
		if len(out) == 0 {
			metrics.RecordRuleEvaluation(string(rule.Type()), "clear")
			continue
		}
		metrics.RecordRuleEvaluation(string(rule.Type()), "triggered")
		drafts = append(drafts, out...)
	}
	for _, z := range ev.EnteredZones {
		metrics.RecordZoneEntry(string(z.RiskLevel))
	}
	return drafts
}

func (e *Engine) runRule(ctx context.Context, rule Rule, ev *Evaluation) (out []models.AlertDraft, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule %s panicked: %v", rule.Type(), r)
		}
	}()
	return rule.Evaluate(ctx, ev)
}

func (e *Engine) appendLog(ctx context.Context, t *models.Tourist, ping *models.LocationPing) {
	if e.logs == nil {
		return
	}
	entry := &models.LocationLog{
		TouristID:   t.ID,
		Lat:         t.Position.Lat,
		Lng:         t.Position.Lng,
		Accuracy:    ping.Accuracy,
		Speed:       ping.Speed,
		Heading:     ping.Heading,
		SafetyScore: t.SafetyScore,
		RecordedAt:  *t.LastSeen,
	}
	if err := e.logs.AppendLocationLog(ctx, entry); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to append location log")
	}
}

// Rule returns the rule of the given type.
func (e *Engine) Rule(t RuleType) (Rule, bool) {
	for _, r := range e.rules {
		if r.Type() == t {
			return r, true
		}
	}
	return nil, false
}

// Rules returns the rules in evaluation order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Tracker exposes zone membership.
func (e *Engine) Tracker() *MembershipTracker {
	return e.geofence.Tracker()
}

// SetEnabled turns all rule evaluation on or off. Positions are still recorded.
func (e *Engine) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

func (e *Engine) Enabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.enabled
}
