// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

// Package metrics declares the Prometheus collectors for the service.
//
// Collectors are registered with the default registry through promauto and
// exposed by the HTTP layer on /metrics. Callers use the Record* helpers so
// label values stay consistent:
//
//	metrics.RecordPing("ok", time.Since(start))
//	metrics.RecordAlertCreated("RISK_ZONE")
//	metrics.RecordBroadcast("websocket", err)
//
// Label values are always drawn from small fixed sets (outcomes, rule names,
// alert types, backends); never put ids or error strings in a label.
package metrics
