// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

// Package audit records who did what to an alert.
//
// Every state-changing API action (an SOS raised, an alert status changed,
// notifications acknowledged) produces an Event. Events are written off the
// request path:
//
//	Logger.Log() -> buffered chan -> writer goroutine -> Store
//
// A full buffer drops the event and counts it in
// safarsathi_audit_events_total{outcome="dropped"}; the caller never blocks.
//
// # Stores
//
//   - DuckDBStore: the audit_events table next to the alert tables
//   - MemoryStore: bounded ring for development and tests
//
// # Retention
//
// Logger implements suture.Service. Serve deletes events older than
// Config.RetentionDays every Config.CleanupInterval and, once its context
// ends, drains the buffer.
package audit
