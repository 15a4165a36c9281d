// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

// Package logging is the process-wide zerolog facade.
//
// Call Init once from main, then log through the package functions:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("tourist_id", id).Msg("location processed")
//	logging.Ctx(ctx).Warn().Err(err).Msg("broadcast failed")
//
// Ctx picks up correlation_id, request_id and tourist_id from the context.
// NewSlogLogger and NewWatermillLogger bridge the same logger into libraries
// that expect log/slog (suture) or watermill.LoggerAdapter (NATS).
//
// Always finish an event chain with Msg or Send; an unterminated chain is
// never written.
package logging
