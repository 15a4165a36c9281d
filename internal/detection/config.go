// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package detection

import "time"

// Defaults for EngineConfig.
const (
	DefaultInactivityThreshold = 30 * time.Minute
	DefaultDeviationKm         = 5.0
	DefaultMembershipShards    = 64
	DefaultLockStripes         = 256
)

// EngineConfig tunes the detection engine.
type EngineConfig struct {
	InactivityThreshold time.Duration
	InactivityOrder     InactivityOrder
	DeviationKm         float64
	MembershipShards    int
	LockStripes         int

	InactivityEnabled bool
	DeviationEnabled  bool
	GeoFenceEnabled   bool
}

// DefaultEngineConfig enables every rule with the standard thresholds.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		InactivityThreshold: DefaultInactivityThreshold,
		InactivityOrder:     InactivityPreUpdate,
		DeviationKm:         DefaultDeviationKm,
		MembershipShards:    DefaultMembershipShards,
		LockStripes:         DefaultLockStripes,
		InactivityEnabled:   true,
		DeviationEnabled:    true,
		GeoFenceEnabled:     true,
	}
}

func (c *EngineConfig) applyDefaults() {
	if c.InactivityThreshold <= 0 {
		c.InactivityThreshold = DefaultInactivityThreshold
	}
	if c.InactivityOrder != InactivityPostUpdate {
		c.InactivityOrder = InactivityPreUpdate
	}
	if c.DeviationKm <= 0 {
		c.DeviationKm = DefaultDeviationKm
	}
	if c.MembershipShards <= 0 {
		c.MembershipShards = DefaultMembershipShards
	}
	if c.LockStripes <= 0 {
		c.LockStripes = DefaultLockStripes
	}
}
