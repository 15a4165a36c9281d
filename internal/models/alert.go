// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package models

import (
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/vedantlahane/safarsathi/internal/geo"
)

// AlertType identifies which detector raised an alert.
type AlertType string

const (
	AlertSOS        AlertType = "SOS"
	AlertInactivity AlertType = "INACTIVITY"
	AlertDeviation  AlertType = "DEVIATION"
	AlertRiskZone   AlertType = "RISK_ZONE"
)

// AlertTypes lists every type the pipeline emits.
var AlertTypes = []AlertType{AlertSOS, AlertInactivity, AlertDeviation, AlertRiskZone}

// AlertStatus is the operator workflow state. Any transition is allowed.
type AlertStatus string

const (
	StatusOpen         AlertStatus = "OPEN"
	StatusAcknowledged AlertStatus = "ACKNOWLEDGED"
	StatusResolved     AlertStatus = "RESOLVED"
)

// ParseAlertStatus accepts any case and rejects names outside the enum.
func ParseAlertStatus(s string) (AlertStatus, bool) {
	switch st := AlertStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusOpen, StatusAcknowledged, StatusResolved:
		return st, true
	}
	return "", false
}

// Priority is derived from AlertType and never stored.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityInfo     Priority = "info"
)

// PriorityFor maps an alert type to its priority.
func PriorityFor(t AlertType) Priority {
	switch t {
	case AlertSOS:
		return PriorityCritical
	case AlertRiskZone, AlertDeviation, AlertInactivity:
		return PriorityHigh
	default:
		return PriorityInfo
	}
}

// Alert is a safety event. Alerts are append-only; only Status and
// UpdatedAt change after creation.
type Alert struct {
	ID        int64
	TouristID string
	Type      AlertType
	Status    AlertStatus
	Message   string
	Position  *geo.Point
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Priority derives the priority for this alert.
func (a *Alert) Priority() Priority {
	return PriorityFor(a.Type)
}

// alertWire is the flat JSON shape used on every outward channel.
type alertWire struct {
	ID        int64       `json:"id"`
	TouristID string      `json:"touristId"`
	AlertType AlertType   `json:"alertType"`
	Priority  Priority    `json:"priority"`
	Status    AlertStatus `json:"status"`
	Message   string      `json:"message"`
	Lat       *float64    `json:"lat"`
	Lng       *float64    `json:"lng"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// MarshalJSON flattens the position and injects the derived priority.
func (a Alert) MarshalJSON() ([]byte, error) {
	w := alertWire{
		ID:        a.ID,
		TouristID: a.TouristID,
		AlertType: a.Type,
		Priority:  PriorityFor(a.Type),
		Status:    a.Status,
		Message:   a.Message,
		CreatedAt: a.CreatedAt.UTC(),
		UpdatedAt: a.UpdatedAt.UTC(),
	}
	if a.Position != nil {
		lat, lng := a.Position.Lat, a.Position.Lng
		w.Lat, w.Lng = &lat, &lng
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the wire shape. A supplied priority is ignored.
func (a *Alert) UnmarshalJSON(data []byte) error {
	var w alertWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*a = Alert{
		ID:        w.ID,
		TouristID: w.TouristID,
		Type:      w.AlertType,
		Status:    w.Status,
		Message:   w.Message,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
	if w.Lat != nil && w.Lng != nil {
		a.Position = &geo.Point{Lat: *w.Lat, Lng: *w.Lng}
	}
	return nil
}

// AlertDraft is what a detector or the SOS path hands to the alert service.
type AlertDraft struct {
	TouristID string
	Type      AlertType
	Message   string
	Position  *geo.Point
	Status    AlertStatus
	// ZoneID is the entered zone of a RISK_ZONE draft.
	ZoneID int64
}

// AlertFilter narrows alert listings. Zero values mean no restriction.
type AlertFilter struct {
	TouristID string
	Status    AlertStatus
	// ExcludeStatus drops alerts in this status, e.g. RESOLVED for "active" views.
	ExcludeStatus AlertStatus
	Type          AlertType
	Limit         int
}
