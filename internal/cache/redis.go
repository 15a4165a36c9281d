// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/vedantlahane/safarsathi/internal/models"
)

// DefaultRedisZoneKey holds the JSON-encoded active zone list.
const DefaultRedisZoneKey = "safarsathi:zones:active"

// RedisZoneLayer shares the active zone list between instances.
type RedisZoneLayer struct {
	client redis.UniversalClient
	key    string
}

// NewRedisZoneLayer stores the list under key, or DefaultRedisZoneKey.
func NewRedisZoneLayer(client redis.UniversalClient, key string) *RedisZoneLayer {
	if key == "" {
		key = DefaultRedisZoneKey
	}
	return &RedisZoneLayer{client: client, key: key}
}

// Load returns the cached list. ok is false when the key is absent.
func (r *RedisZoneLayer) Load(ctx context.Context) (zones []models.RiskZone, ok bool, err error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	if err := json.Unmarshal(raw, &zones); err != nil {
		return nil, false, fmt.Errorf("decode cached zones: %w", err)
	}
	return zones, true, nil
}

// Store writes the list with a TTL.
func (r *RedisZoneLayer) Store(ctx context.Context, zones []models.RiskZone, ttl time.Duration) error {
	raw, err := json.Marshal(zones)
	if err != nil {
		return fmt.Errorf("encode zones: %w", err)
	}
	if err := r.client.Set(ctx, r.key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

// Invalidate removes the shared copy.
func (r *RedisZoneLayer) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
