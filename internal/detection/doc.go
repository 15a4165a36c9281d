// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

// Package detection evaluates every location ping against the safety rules.
//
// The Engine loads the tourist, records the new position and last-seen time,
// then runs three independent rules:
//
//   - InactivityRule: the previous update is older than the threshold
//   - DeviationRule: the injected DeviationCalculator reports a large offset
//   - GeoFenceRule: the tourist entered one or more active risk zones
//
// GeoFenceRule keeps per-tourist zone membership in a MembershipTracker so a
// tourist lingering inside a zone is alerted only once, on entry. Each entry
// lowers the safety score by the zone's penalty (see PenaltyFor).
//
// Pings for the same tourist are serialised by a striped lock; pings for
// different tourists proceed in parallel. A rule that errors or panics is
// logged and skipped while the others still run.
package detection
