// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vedantlahane/safarsathi/internal/geo"
	"github.com/vedantlahane/safarsathi/internal/models"
)

type mockZoneSource struct {
	mu    sync.Mutex
	zones []models.RiskZone
	err   error
	calls atomic.Int32
	delay time.Duration
}

func (m *mockZoneSource) ListActiveZones(ctx context.Context) ([]models.RiskZone, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.RiskZone, len(m.zones))
	copy(out, m.zones)
	return out, nil
}

func (m *mockZoneSource) set(zones []models.RiskZone, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zones = zones
	m.err = err
}

type mockSharedLayer struct {
	mu          sync.Mutex
	zones       []models.RiskZone
	present     bool
	loadErr     error
	stores      int
	invalidated int
}

func (m *mockSharedLayer) Load(ctx context.Context) ([]models.RiskZone, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, false, m.loadErr
	}
	return m.zones, m.present, nil
}

func (m *mockSharedLayer) Store(ctx context.Context, zones []models.RiskZone, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zones = zones
	m.present = true
	m.stores++
	return nil
}

func (m *mockSharedLayer) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zones = nil
	m.present = false
	m.invalidated++
	return nil
}

func testZones(names ...string) []models.RiskZone {
	out := make([]models.RiskZone, 0, len(names))
	for i, n := range names {
		out = append(out, models.RiskZone{
			ID:           int64(i + 1),
			Name:         n,
			Center:       geo.Point{Lat: 26.5775, Lng: 93.1711},
			RadiusMeters: 1000,
			RiskLevel:    models.RiskHigh,
			Active:       true,
		})
	}
	return out
}

func TestZoneCache_ReadThrough(t *testing.T) {
	t.Parallel()

	src := &mockZoneSource{zones: testZones("Kaziranga")}
	zc := NewZoneCache(src, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		zones, err := zc.ListActiveZones(ctx)
		if err != nil {
			t.Fatalf("ListActiveZones: %v", err)
		}
		if len(zones) != 1 || zones[0].Name != "Kaziranga" {
			t.Fatalf("zones = %+v", zones)
		}
	}
	if got := src.calls.Load(); got != 1 {
		t.Errorf("source calls = %d, want 1", got)
	}
}

func TestZoneCache_SourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("db down")
	src := &mockZoneSource{err: boom}
	zc := NewZoneCache(src, time.Minute)

	if _, err := zc.ListActiveZones(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}

	// A failed load must not be cached.
	src.set(testZones("Majuli"), nil)
	zones, err := zc.ListActiveZones(context.Background())
	if err != nil || len(zones) != 1 {
		t.Fatalf("after recovery: zones=%v err=%v", zones, err)
	}
}

func TestZoneCache_SharedLayerHit(t *testing.T) {
	t.Parallel()

	src := &mockZoneSource{zones: testZones("from-db")}
	shared := &mockSharedLayer{zones: testZones("from-redis"), present: true}
	zc := NewZoneCache(src, time.Minute, WithSharedLayer(shared))

	zones, err := zc.ListActiveZones(context.Background())
	if err != nil {
		t.Fatalf("ListActiveZones: %v", err)
	}
	if zones[0].Name != "from-redis" {
		t.Errorf("zone = %q, want from-redis", zones[0].Name)
	}
	if got := src.calls.Load(); got != 0 {
		t.Errorf("source calls = %d, want 0", got)
	}
}

func TestZoneCache_SharedLayerMissPopulates(t *testing.T) {
	t.Parallel()

	src := &mockZoneSource{zones: testZones("from-db")}
	shared := &mockSharedLayer{}
	zc := NewZoneCache(src, time.Minute, WithSharedLayer(shared))

	if _, err := zc.ListActiveZones(context.Background()); err != nil {
		t.Fatalf("ListActiveZones: %v", err)
	}
	if shared.stores != 1 || !shared.present {
		t.Errorf("shared layer not populated: %+v", shared)
	}
}

func TestZoneCache_SharedLayerErrorFallsBack(t *testing.T) {
	t.Parallel()

	src := &mockZoneSource{zones: testZones("from-db")}
	shared := &mockSharedLayer{loadErr: errors.New("redis timeout")}
	zc := NewZoneCache(src, time.Minute, WithSharedLayer(shared))

	zones, err := zc.ListActiveZones(context.Background())
	if err != nil {
		t.Fatalf("ListActiveZones: %v", err)
	}
	if zones[0].Name != "from-db" {
		t.Errorf("zone = %q, want from-db", zones[0].Name)
	}
}

func TestZoneCache_RefreshAndInvalidate(t *testing.T) {
	t.Parallel()

	src := &mockZoneSource{zones: testZones("a")}
	shared := &mockSharedLayer{}
	zc := NewZoneCache(src, time.Hour, WithSharedLayer(shared))
	ctx := context.Background()

	if _, err := zc.ListActiveZones(ctx); err != nil {
		t.Fatal(err)
	}

	src.set(testZones("a", "b"), nil)
	n, err := zc.Refresh(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Refresh = %d, %v; want 2, nil", n, err)
	}
	zones, _ := zc.ListActiveZones(ctx)
	if len(zones) != 2 {
		t.Errorf("after refresh got %d zones, want 2", len(zones))
	}

	src.set(testZones("c"), nil)
	zc.Invalidate(ctx)
	if shared.invalidated != 1 {
		t.Errorf("shared invalidations = %d, want 1", shared.invalidated)
	}
	zones, _ = zc.ListActiveZones(ctx)
	if len(zones) != 1 || zones[0].Name != "c" {
		t.Errorf("after invalidate zones = %+v", zones)
	}
}

func TestZoneCache_ConcurrentMissesShareLoad(t *testing.T) {
	t.Parallel()

	src := &mockZoneSource{zones: testZones("a"), delay: 50 * time.Millisecond}
	zc := NewZoneCache(src, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := zc.ListActiveZones(context.Background()); err != nil {
				t.Errorf("ListActiveZones: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := src.calls.Load(); got > 2 {
		t.Errorf("source calls = %d, expected concurrent misses to share a load", got)
	}
}

func TestZoneRefresher_Serve(t *testing.T) {
	t.Parallel()

	src := &mockZoneSource{zones: testZones("a")}
	zc := NewZoneCache(src, time.Minute)
	r := NewZoneRefresher(zc, 10*time.Millisecond)

	if r.String() != "zone-cache-refresher" {
		t.Errorf("String() = %q", r.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for src.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v, want context.Canceled", err)
	}
	if got := src.calls.Load(); got < 3 {
		t.Errorf("source calls = %d, want at least 3", got)
	}
}

func TestZoneRefresher_DefaultInterval(t *testing.T) {
	t.Parallel()

	zc := NewZoneCache(&mockZoneSource{}, 60*time.Second)
	r := NewZoneRefresher(zc, 0)
	if r.interval != 45*time.Second {
		t.Errorf("interval = %v, want 45s", r.interval)
	}
}
