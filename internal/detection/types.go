// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package detection

import (
	"context"
	"time"

	"github.com/vedantlahane/safarsathi/internal/geo"
	"github.com/vedantlahane/safarsathi/internal/models"
)

// RuleType identifies a detection rule.
type RuleType string

const (
	RuleInactivity RuleType = "inactivity"
	RuleDeviation  RuleType = "deviation"
	RuleGeoFence   RuleType = "geofence"
)

// InactivityOrder selects which last-seen value the inactivity rule inspects.
type InactivityOrder string

const (
	// InactivityPreUpdate inspects the last-seen time stored before this ping.
	InactivityPreUpdate InactivityOrder = "pre_update"

	// InactivityPostUpdate inspects the value written by this ping, so the
	// rule can only fire if the clock moved backwards.
	InactivityPostUpdate InactivityOrder = "post_update"
)

// Rule is one detector run against every ping.
type Rule interface {
	Type() RuleType

	// Evaluate returns zero or more alert drafts. It may adjust ev.Score.
	Evaluate(ctx context.Context, ev *Evaluation) ([]models.AlertDraft, error)

	Enabled() bool
	SetEnabled(enabled bool)
}

// Evaluation is the per-ping state shared by the rules of one run.
type Evaluation struct {
	TouristID string
	Now       time.Time

	// Before is the tourist as loaded, After carries the new position and
	// last-seen time. Both are private copies.
	Before *models.Tourist
	After  *models.Tourist

	// Score starts at the stored safety score and is what gets persisted.
	Score float64

	// EnteredZones is filled by the geofence rule.
	EnteredZones []models.RiskZone
}

// Position is the position reported by this ping.
func (ev *Evaluation) Position() *geo.Point {
	if ev.After == nil {
		return nil
	}
	return ev.After.Position
}

// TouristStore loads and saves tourists. GetTourist wraps models.ErrNotFound.
type TouristStore interface {
	GetTourist(ctx context.Context, id string) (*models.Tourist, error)
	SaveTourist(ctx context.Context, t *models.Tourist) error
}

// RiskZoneStore lists the zones taking part in geofencing.
type RiskZoneStore interface {
	ListActiveZones(ctx context.Context) ([]models.RiskZone, error)
}

// AlertCreator turns drafts into persisted, fanned-out alerts.
type AlertCreator interface {
	CreateAlert(ctx context.Context, draft models.AlertDraft) (*models.Alert, error)
}

// LocationLogStore records processed pings.
type LocationLogStore interface {
	AppendLocationLog(ctx context.Context, entry *models.LocationLog) error
}

// DeviationCalculator reports how far a tourist is from the planned route.
type DeviationCalculator interface {
	DeviationKm(ctx context.Context, touristID string, pos *geo.Point) (float64, error)
}

// ProcessResult summarises one processed ping.
type ProcessResult struct {
	TouristID    string
	Alerts       []*models.Alert
	SafetyScore  float64
	EnteredZones []int64
}
