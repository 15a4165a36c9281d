// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

/*
Package database is the DuckDB persistence layer.

DB owns the connection and schema; the typed stores on top of it implement
the store interfaces consumed by the detection and alerting packages:

  - tourists: position, last-seen time and safety score
  - risk_zones: geofences, read through ListActiveZones
  - alerts: append-only alert log, status updated in place
  - notifications: in-app notifications per tourist
  - location_logs: one row per processed ping
  - sequences: counters for the duckdb sequence backend

Lookups that find nothing return an error wrapping models.ErrNotFound.
Every query is timed into the duckdb_query_duration_seconds histogram.
*/
package database
