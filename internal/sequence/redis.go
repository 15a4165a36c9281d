// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package sequence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis increments "<prefix><name>" with INCR, which is atomic server-side.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis uses prefix "safarsathi:seq:" when prefix is empty.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "safarsathi:seq:"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Next(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	v, err := r.client.Incr(ctx, r.prefix+name).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %q: %w", name, err)
	}
	return v, nil
}
