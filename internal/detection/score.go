// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package detection

import (
	"math"

	"github.com/vedantlahane/safarsathi/internal/models"
)

// Penalties subtracted from the safety score on zone entry.
const (
	PenaltyLow         = 5.0
	PenaltyMedium      = 10.0
	PenaltyHigh        = 18.0
	PenaltyUnspecified = 8.0
)

// PenaltyFor returns the score penalty for entering a zone of the given level.
func PenaltyFor(level models.RiskLevel) float64 {
	switch level {
	case models.RiskLow:
		return PenaltyLow
	case models.RiskMedium:
		return PenaltyMedium
	case models.RiskHigh:
		return PenaltyHigh
	default:
		return PenaltyUnspecified
	}
}

// ClampScore bounds s to [0, 100]. NaN collapses to 0.
func ClampScore(s float64) float64 {
	if math.IsNaN(s) {
		return models.MinSafetyScore
	}
	return math.Max(models.MinSafetyScore, math.Min(models.MaxSafetyScore, s))
}

// ApplyEntries subtracts the penalty of every entered zone, clamping after
// each step.
func ApplyEntries(score float64, entered []models.RiskZone) float64 {
	s := ClampScore(score)
	for i := range entered {
		s = ClampScore(s - PenaltyFor(entered[i].RiskLevel))
	}
	return ClampScore(s)
}
