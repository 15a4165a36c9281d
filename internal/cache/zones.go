// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vedantlahane/safarsathi/internal/logging"
	"github.com/vedantlahane/safarsathi/internal/metrics"
	"github.com/vedantlahane/safarsathi/internal/models"
)

// DefaultZoneTTL is how long the active zone list is trusted.
const DefaultZoneTTL = 60 * time.Second

const activeZonesKey = "zones:active"

// ZoneSource is the backing store for active zones.
type ZoneSource interface {
	ListActiveZones(ctx context.Context) ([]models.RiskZone, error)
}

// SharedZoneLayer is an optional second-level cache, normally Redis.
type SharedZoneLayer interface {
	Load(ctx context.Context) ([]models.RiskZone, bool, error)
	Store(ctx context.Context, zones []models.RiskZone, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// ZoneCache is a read-through cache for the active zone list. It satisfies
// the detection engine's zone store interface.
type ZoneCache struct {
	source ZoneSource
	shared SharedZoneLayer
	local  *Cache[[]models.RiskZone]
	ttl    time.Duration
	group  singleflight.Group
}

// ZoneCacheOption configures a ZoneCache.
type ZoneCacheOption func(*ZoneCache)

// WithSharedLayer adds a second-level cache between memory and the source.
func WithSharedLayer(l SharedZoneLayer) ZoneCacheOption {
	return func(z *ZoneCache) { z.shared = l }
}

// NewZoneCache wraps source. ttl <= 0 means DefaultZoneTTL.
func NewZoneCache(source ZoneSource, ttl time.Duration, opts ...ZoneCacheOption) *ZoneCache {
	if ttl <= 0 {
		ttl = DefaultZoneTTL
	}
	z := &ZoneCache{
		source: source,
		local:  New[[]models.RiskZone](ttl),
		ttl:    ttl,
	}
	for _, opt := range opts {
		opt(z)
	}
	return z
}

// ListActiveZones serves from memory, then the shared layer, then the
// source. Concurrent misses share one load. Callers must not modify the
// returned slice.
func (z *ZoneCache) ListActiveZones(ctx context.Context) ([]models.RiskZone, error) {
	if zones, ok := z.local.Get(activeZonesKey); ok {
		metrics.RecordZoneCache("memory")
		return zones, nil
	}

	v, err, _ := z.group.Do(activeZonesKey, func() (interface{}, error) {
		return z.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.RiskZone), nil
}

func (z *ZoneCache) load(ctx context.Context) ([]models.RiskZone, error) {
	if z.shared != nil {
		zones, ok, err := z.shared.Load(ctx)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("shared zone cache unavailable, falling back to database")
		}
		if ok {
			metrics.RecordZoneCache("redis")
			z.local.Set(activeZonesKey, zones)
			return zones, nil
		}
	}

	metrics.RecordZoneCache("")
	return z.fetch(ctx)
}

// fetch reads the source and fills both layers.
func (z *ZoneCache) fetch(ctx context.Context) ([]models.RiskZone, error) {
	zones, err := z.source.ListActiveZones(ctx)
	if err != nil {
		return nil, err
	}
	z.local.Set(activeZonesKey, zones)
	if z.shared != nil {
		if err := z.shared.Store(ctx, zones, z.ttl); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("failed to populate shared zone cache")
		}
	}
	return zones, nil
}

// Refresh reloads from the source regardless of cached state.
func (z *ZoneCache) Refresh(ctx context.Context) (int, error) {
	zones, err := z.fetch(ctx)
	if err != nil {
		return 0, err
	}
	return len(zones), nil
}

// Invalidate drops both cache layers; the next read goes to the source.
func (z *ZoneCache) Invalidate(ctx context.Context) {
	z.local.Clear()
	if z.shared != nil {
		if err := z.shared.Invalidate(ctx); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("failed to invalidate shared zone cache")
		}
	}
}

// Stats reports the in-memory layer's counters.
func (z *ZoneCache) Stats() Stats {
	return z.local.Stats()
}
