// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package cache

import (
	"context"
	"time"

	"github.com/vedantlahane/safarsathi/internal/logging"
)

// ZoneRefresher periodically reloads a ZoneCache. It implements
// suture.Service.
type ZoneRefresher struct {
	cache    *ZoneCache
	interval time.Duration
}

// NewZoneRefresher reloads every interval; pick something shorter than the
// cache TTL so readers never see an expired entry.
func NewZoneRefresher(c *ZoneCache, interval time.Duration) *ZoneRefresher {
	if interval <= 0 {
		interval = c.ttl * 3 / 4
	}
	return &ZoneRefresher{cache: c, interval: interval}
}

// Serve warms the cache immediately, then on every tick until ctx ends.
// Load failures are logged; the service keeps running.
func (r *ZoneRefresher) Serve(ctx context.Context) error {
	r.refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.refresh(ctx)
			r.cache.local.Cleanup()
		}
	}
}

func (r *ZoneRefresher) refresh(ctx context.Context) {
	n, err := r.cache.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logging.Warn().Err(err).Msg("zone cache refresh failed")
		}
		return
	}
	logging.Debug().Int("zones", n).Msg("zone cache refreshed")
}

func (r *ZoneRefresher) String() string {
	return "zone-cache-refresher"
}
