// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

/*
Package models defines the domain types shared by the detection pipeline,
the alerting services, the stores and the HTTP layer.

Domain types:
  - Tourist: live position, last-seen time and safety score
  - RiskZone: circular geofence with a risk level
  - Alert: a safety event; priority is derived from its type on every read
  - Notification: in-app record created for the tourist when an alert fires
  - LocationPing, SOSRequest: inbound payloads
  - LocationLog: one row per processed ping

API types:
  - APIResponse, Metadata, APIError: the envelope every HTTP handler returns

Errors:
  - ErrNotFound, ErrInvalidInput: sentinels wrapped by stores and services
*/
package models
