// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

// Package sequence issues monotonically increasing ids from named counters.
//
// Every backend guarantees that concurrent Next calls for the same name
// never return the same value. Gaps are allowed (a failed insert after Next
// burns the id); duplicates are not. A counter starts at 0, so the first
// value returned for a name is 1.
//
// Backends:
//   - Memory: in-process map, for tests and ephemeral runs
//   - Badger: embedded key-value store, durable single-node default
//   - DuckDB: sequences table in the primary database
//   - Redis: INCR, shared between instances
//   - Postgres: upsert-returning on an external database
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vedantlahane/safarsathi/internal/metrics"
)

// Well-known counter names.
const (
	AlertID        = "alertId"
	NotificationID = "notificationId"
)

// ErrEmptyName is returned for a blank counter name.
var ErrEmptyName = errors.New("sequence name is required")

// Generator hands out ids.
type Generator interface {
	Next(ctx context.Context, name string) (int64, error)
}

// Instrumented wraps a Generator with latency and error metrics.
type Instrumented struct {
	backend string
	next    Generator
}

// Instrument wraps g so every call is recorded under backend.
func Instrument(backend string, g Generator) *Instrumented {
	return &Instrumented{backend: backend, next: g}
}

func (i *Instrumented) Next(ctx context.Context, name string) (int64, error) {
	start := time.Now()
	v, err := i.next.Next(ctx, name)
	metrics.RecordSequence(i.backend, time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("%s sequence %q: %w", i.backend, name, err)
	}
	return v, nil
}

// Unwrap returns the wrapped generator.
func (i *Instrumented) Unwrap() Generator {
	return i.next
}
