// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

// Package middleware holds the HTTP middleware shared by every route:
// request ids wired into the logging context, access logging, and
// Prometheus request metrics keyed by chi route pattern.
//
// All middleware has the chi signature func(http.Handler) http.Handler.
// Wrapped response writers come from chi's WrapResponseWriter so the
// WebSocket upgrade can still hijack the connection.
package middleware
