// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package detection

import (
	"context"
	"fmt"
	"sync"

	"github.com/vedantlahane/safarsathi/internal/models"
)

// GeoFenceRule raises one RISK_ZONE alert per zone entry and lowers the
// tourist's safety score by the zone's penalty.
type GeoFenceRule struct {
	zones   RiskZoneStore
	tracker *MembershipTracker
	enabled bool
	mu      sync.RWMutex
}

// NewGeoFenceRule creates an enabled geofence rule.
func NewGeoFenceRule(zones RiskZoneStore, tracker *MembershipTracker) *GeoFenceRule {
	if tracker == nil {
		tracker = NewMembershipTracker(DefaultMembershipShards)
	}
	return &GeoFenceRule{zones: zones, tracker: tracker, enabled: true}
}

func (r *GeoFenceRule) Type() RuleType { return RuleGeoFence }

// Evaluate diffs the tourist's zone membership. Without a position the rule
// does nothing, membership included.
func (r *GeoFenceRule) Evaluate(ctx context.Context, ev *Evaluation) ([]models.AlertDraft, error) {
	pos := ev.Position()
	if pos == nil {
		return nil, nil
	}

	active, err := r.zones.ListActiveZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active zones: %w", err)
	}

	enteredIDs := r.tracker.Update(ev.TouristID, pos, active)
	if len(enteredIDs) == 0 {
		return nil, nil
	}

	byID := make(map[int64]models.RiskZone, len(active))
	for _, z := range active {
		byID[z.ID] = z
	}

	entered := make([]models.RiskZone, 0, len(enteredIDs))
	drafts := make([]models.AlertDraft, 0, len(enteredIDs))
	for _, id := range enteredIDs {
		zone := byID[id]
		entered = append(entered, zone)
		drafts = append(drafts, models.AlertDraft{
			TouristID: ev.TouristID,
			Type:      models.AlertRiskZone,
			Message:   fmt.Sprintf("Tourist entered risk zone '%s' [%s]", zone.Name, zone.LevelLabel()),
			Position:  pos,
			ZoneID:    zone.ID,
		})
	}
	ev.EnteredZones = append(ev.EnteredZones, entered...)
	ev.Score = ApplyEntries(ev.Score, entered)

	return drafts, nil
}

// Tracker exposes the membership state.
func (r *GeoFenceRule) Tracker() *MembershipTracker {
	return r.tracker
}

func (r *GeoFenceRule) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

func (r *GeoFenceRule) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}
