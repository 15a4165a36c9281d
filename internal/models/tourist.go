// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package models

import (
	"strings"
	"time"

	"github.com/vedantlahane/safarsathi/internal/geo"
)

// Safety score bounds.
const (
	MinSafetyScore     = 0.0
	MaxSafetyScore     = 100.0
	DefaultSafetyScore = MaxSafetyScore
)

// Tourist is the subset of the tourist record the pipeline reads and writes.
// Position and LastSeen stay nil until the first ping.
type Tourist struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone,omitempty"`
	Position    *geo.Point `json:"position,omitempty"`
	LastSeen    *time.Time `json:"lastSeen,omitempty"`
	SafetyScore float64    `json:"safetyScore"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Clone returns a deep copy so callers can snapshot state before mutation.
func (t *Tourist) Clone() *Tourist {
	if t == nil {
		return nil
	}
	c := *t
	if t.Position != nil {
		p := *t.Position
		c.Position = &p
	}
	if t.LastSeen != nil {
		ls := *t.LastSeen
		c.LastSeen = &ls
	}
	return &c
}

// RiskLevel grades a zone. The empty value means unspecified.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// ParseRiskLevel normalises case; unknown names map to the unspecified level.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case RiskLow:
		return RiskLow
	case RiskMedium:
		return RiskMedium
	case RiskHigh:
		return RiskHigh
	}
	return ""
}

// RiskZone is a circular geofence.
type RiskZone struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Center       geo.Point `json:"center"`
	RadiusMeters float64   `json:"radiusMeters"`
	RiskLevel    RiskLevel `json:"riskLevel"`
	Active       bool      `json:"active"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Contains reports whether p is inside the zone, boundary included.
func (z *RiskZone) Contains(p *geo.Point) bool {
	return geo.WithinRadius(p, &z.Center, z.RadiusMeters)
}

// LevelLabel renders the level for alert text, "UNSPECIFIED" when empty.
func (z *RiskZone) LevelLabel() string {
	if z.RiskLevel == "" {
		return "UNSPECIFIED"
	}
	return string(z.RiskLevel)
}
