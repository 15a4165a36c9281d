// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
	touristIDKey     contextKey = "tourist_id"
)

// NewCorrelationID returns a short id used to tie together the log lines of one ping.
func NewCorrelationID() string {
	return uuid.New().String()[:8]
}

// NewRequestID returns a full UUID for HTTP requests.
func NewRequestID() string {
	return uuid.New().String()
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithTouristID tags every Ctx log line with the tourist being processed.
func ContextWithTouristID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, touristIDKey, id)
}

func TouristIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(touristIDKey).(string)
	return id
}

// Ctx returns the global logger enriched with correlation_id, request_id and
// tourist_id when the context carries them.
//
//	logging.Ctx(ctx).Warn().Err(err).Msg("broadcast failed")
func Ctx(ctx context.Context) *zerolog.Logger {
	lc := Logger().With()
	if id := CorrelationIDFromContext(ctx); id != "" {
		lc = lc.Str("correlation_id", id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}
	if id := TouristIDFromContext(ctx); id != "" {
		lc = lc.Str("tourist_id", id)
	}
	l := lc.Logger()
	return &l
}
