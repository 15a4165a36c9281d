// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/vedantlahane/safarsathi/internal/logging"
)

// ShutdownFunc releases a component that was started outside the tree.
type ShutdownFunc func(ctx context.Context) error

// ShutdownService holds a running component until the tree stops, then
// shuts it down. It is used for the embedded NATS server, the outbound
// publishers and the alert service's notifier goroutines, all of which are
// started in main before the tree runs.
//
// When alive is set, the service polls it and fails once the component
// reports it has stopped, so suture logs the loss.
type ShutdownService struct {
	name            string
	shutdown        ShutdownFunc
	alive           func() bool
	pollInterval    time.Duration
	shutdownTimeout time.Duration
}

// ShutdownOption configures a ShutdownService.
type ShutdownOption func(*ShutdownService)

// WithLiveness polls alive every interval.
func WithLiveness(alive func() bool, interval time.Duration) ShutdownOption {
	return func(s *ShutdownService) {
		s.alive = alive
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// WithShutdownTimeout bounds the shutdown call. Default 10s.
func WithShutdownTimeout(d time.Duration) ShutdownOption {
	return func(s *ShutdownService) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// NewShutdownService creates the service.
func NewShutdownService(name string, shutdown ShutdownFunc, opts ...ShutdownOption) *ShutdownService {
	s := &ShutdownService{
		name:            name,
		shutdown:        shutdown,
		pollInterval:    5 * time.Second,
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve blocks until ctx ends and then calls the shutdown func with a fresh
// timeout context.
func (s *ShutdownService) Serve(ctx context.Context) error {
	var tick <-chan time.Time
	if s.alive != nil {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.shutdown(shutdownCtx); err != nil {
				logging.Warn().Str("service", s.name).Err(err).Msg("shutdown incomplete")
				return fmt.Errorf("%s shutdown: %w", s.name, err)
			}
			return ctx.Err()
		case <-tick:
			if !s.alive() {
				return fmt.Errorf("%s stopped unexpectedly", s.name)
			}
		}
	}
}

func (s *ShutdownService) String() string {
	return s.name
}
