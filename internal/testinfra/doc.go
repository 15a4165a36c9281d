// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

// Package testinfra provides shared test infrastructure.
//
// MockWebhookServer is always available and captures operator webhook
// deliveries for assertions.
//
// Behind the integration build tag, the package starts throwaway Redis and
// PostgreSQL containers through testcontainers-go so the shared sequence
// backends can be exercised against real servers:
//
//	//go:build integration
//
//	func TestRedisGenerator(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    rc, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, rc.Container)
//	    client := redis.NewClient(&redis.Options{Addr: rc.Addr})
//	}
//
// Run with: go test -tags integration ./...
package testinfra
