// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package detection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vedantlahane/safarsathi/internal/models"
)

type engineFixture struct {
	engine   *Engine
	tourists *mockTouristStore
	zones    *mockZoneStore
	alerts   *mockAlertCreator
	logs     *mockLogStore
	clock    *manualClock
}

func newEngineFixture(t *testing.T, cfg EngineConfig, opts ...Option) *engineFixture {
	t.Helper()

	f := &engineFixture{
		tourists: newMockTouristStore(&models.Tourist{ID: "T1", Name: "Asha", SafetyScore: 100}),
		zones:    &mockZoneStore{},
		alerts:   &mockAlertCreator{},
		logs:     &mockLogStore{},
		clock:    &manualClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)},
	}
	opts = append([]Option{WithClock(f.clock.Now), WithLocationLog(f.logs)}, opts...)
	f.engine = NewEngine(cfg, f.tourists, f.zones, f.alerts, opts...)
	return f
}

func TestProcessLocationHighZoneEntry(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t, DefaultEngineConfig())
	f.zones.set(zone(1, models.RiskHigh, 400))

	res, err := f.engine.ProcessLocation(context.Background(), "T1", ping(26.1668, 91.7090))
	if err != nil {
		t.Fatalf("ProcessLocation: %v", err)
	}

	zoneAlerts := f.alerts.byType(models.AlertRiskZone)
	if len(zoneAlerts) != 1 {
		t.Fatalf("got %d RISK_ZONE alerts, want 1", len(zoneAlerts))
	}
	if want := "Tourist entered risk zone 'zone-1' [HIGH]"; zoneAlerts[0].Message != want {
		t.Errorf("message = %q, want %q", zoneAlerts[0].Message, want)
	}
	if res.SafetyScore != 82 {
		t.Errorf("result score = %v, want 82", res.SafetyScore)
	}
	if got := f.tourists.get("T1").SafetyScore; got != 82 {
		t.Errorf("stored score = %v, want 82", got)
	}
	if len(res.EnteredZones) != 1 || res.EnteredZones[0] != 1 {
		t.Errorf("EnteredZones = %v", res.EnteredZones)
	}
}

func TestProcessLocationContinuousPresenceAlertsOnce(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t, DefaultEngineConfig())
	f.zones.set(zone(1, models.RiskMedium, 400))

	for i := 0; i < 6; i++ {
		f.clock.Advance(time.Minute)
		if _, err := f.engine.ProcessLocation(context.Background(), "T1", ping(26.1668, 91.7090)); err != nil {
			t.Fatalf("ping %d: %v", i, err)
		}
	}

	if n := len(f.alerts.byType(models.AlertRiskZone)); n != 1 {
		t.Errorf("got %d RISK_ZONE alerts, want 1", n)
	}
	if got := f.tourists.get("T1").SafetyScore; got != 90 {
		t.Errorf("score = %v, want 90", got)
	}
}

func TestProcessLocationNoActiveZonesClearsMembership(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t, DefaultEngineConfig())
	f.zones.set(zone(1, models.RiskLow, 400))
	ctx := context.Background()

	if _, err := f.engine.ProcessLocation(ctx, "T1", ping(26.1668, 91.7090)); err != nil {
		t.Fatal(err)
	}
	f.zones.set()
	if _, err := f.engine.ProcessLocation(ctx, "T1", ping(26.1668, 91.7090)); err != nil {
		t.Fatal(err)
	}
	if zs := f.engine.Tracker().Zones("T1"); len(zs) != 0 {
		t.Errorf("membership = %v, want cleared", zs)
	}
	if n := len(f.alerts.byType(models.AlertRiskZone)); n != 1 {
		t.Errorf("got %d RISK_ZONE alerts, want 1", n)
	}
}

func TestProcessLocationUpdatesPositionAndLog(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t, DefaultEngineConfig())
	acc := 12.5
	p := ping(27.33, 88.61)
	p.Accuracy = &acc

	if _, err := f.engine.ProcessLocation(context.Background(), "T1", p); err != nil {
		t.Fatal(err)
	}

	got := f.tourists.get("T1")
	if got.Position == nil || got.Position.Lat != 27.33 || got.Position.Lng != 88.61 {
		t.Errorf("Position = %+v", got.Position)
	}
	if got.LastSeen == nil || !got.LastSeen.Equal(f.clock.Now()) {
		t.Errorf("LastSeen = %v, want %v", got.LastSeen, f.clock.Now())
	}
	if len(f.logs.entries) != 1 || f.logs.entries[0].Accuracy == nil || *f.logs.entries[0].Accuracy != acc {
		t.Errorf("location log entries = %+v", f.logs.entries)
	}
}

func TestProcessLocationErrors(t *testing.T) {
	t.Parallel()

	lat := 26.0
	tests := []struct {
		name    string
		tourist string
		ping    *models.LocationPing
		want    error
	}{
		{"unknown tourist", "nobody", ping(26, 91), models.ErrNotFound},
		{"missing lng", "T1", &models.LocationPing{Lat: &lat}, models.ErrInvalidInput},
		{"nil ping", "T1", nil, models.ErrInvalidInput},
		{"latitude out of range", "T1", ping(95, 91), models.ErrInvalidInput},
		{"empty tourist id", "", ping(26, 91), models.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newEngineFixture(t, DefaultEngineConfig())
			_, err := f.engine.ProcessLocation(context.Background(), tt.tourist, tt.ping)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if f.tourists.saves != 0 {
				t.Errorf("tourist saved %d times on a rejected ping", f.tourists.saves)
			}
		})
	}
}

func TestInactivityOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		order     InactivityOrder
		wantAlert bool
	}{
		{InactivityPreUpdate, true},
		{InactivityPostUpdate, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			t.Parallel()
			cfg := DefaultEngineConfig()
			cfg.InactivityOrder = tt.order
			f := newEngineFixture(t, cfg)
			ctx := context.Background()

			if _, err := f.engine.ProcessLocation(ctx, "T1", ping(27.0, 88.0)); err != nil {
				t.Fatal(err)
			}
			f.clock.Advance(45 * time.Minute)
			if _, err := f.engine.ProcessLocation(ctx, "T1", ping(27.0, 88.0)); err != nil {
				t.Fatal(err)
			}

			got := f.alerts.byType(models.AlertInactivity)
			if (len(got) == 1) != tt.wantAlert {
				t.Fatalf("inactivity alerts = %d, wantAlert %v", len(got), tt.wantAlert)
			}
			if tt.wantAlert && got[0].Message != "Tourist has not sent a location update in 45 minutes." {
				t.Errorf("message = %q", got[0].Message)
			}
		})
	}
}

func TestInactivityFirstPingNeverFires(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t, DefaultEngineConfig())
	if _, err := f.engine.ProcessLocation(context.Background(), "T1", ping(27.0, 88.0)); err != nil {
		t.Fatal(err)
	}
	if n := len(f.alerts.byType(models.AlertInactivity)); n != 0 {
		t.Errorf("got %d inactivity alerts on first ping", n)
	}
}

func TestDeviationRuleThreshold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		km   float64
		want int
	}{
		{0, 0},
		{5.0, 0},
		{7.256, 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.2f", tt.km), func(t *testing.T) {
			t.Parallel()
			f := newEngineFixture(t, DefaultEngineConfig(), WithDeviationCalculator(fixedDeviation{km: tt.km}))
			if _, err := f.engine.ProcessLocation(context.Background(), "T1", ping(27.0, 88.0)); err != nil {
				t.Fatal(err)
			}
			got := f.alerts.byType(models.AlertDeviation)
			if len(got) != tt.want {
				t.Fatalf("deviation alerts = %d, want %d", len(got), tt.want)
			}
			if tt.want == 1 && got[0].Message != "Route deviation detected: 7.26 km off planned route." {
				t.Errorf("message = %q", got[0].Message)
			}
		})
	}
}

func TestRuleFailureIsolation(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t, DefaultEngineConfig(), WithDeviationCalculator(fixedDeviation{err: errBoom}))
	f.engine.rules = append([]Rule{panicRule{}}, f.engine.rules...)
	f.zones.set(zone(1, models.RiskLow, 400))

	res, err := f.engine.ProcessLocation(context.Background(), "T1", ping(26.1668, 91.7090))
	if err != nil {
		t.Fatalf("ProcessLocation: %v", err)
	}
	if len(res.Alerts) != 1 || res.Alerts[0].Type != models.AlertRiskZone {
		t.Errorf("alerts = %+v, want one RISK_ZONE", res.Alerts)
	}
}

func TestZoneStoreFailureKeepsPosition(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t, DefaultEngineConfig())
	f.zones.err = errBoom

	if _, err := f.engine.ProcessLocation(context.Background(), "T1", ping(26.1668, 91.7090)); err != nil {
		t.Fatalf("ProcessLocation: %v", err)
	}
	if f.tourists.get("T1").Position == nil {
		t.Error("position should be saved even when geofencing fails")
	}
}

func TestAlertCreationFailureSurfaces(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t, DefaultEngineConfig())
	f.zones.set(zone(1, models.RiskHigh, 400))
	f.alerts.err = errBoom

	_, err := f.engine.ProcessLocation(context.Background(), "T1", ping(26.1668, 91.7090))
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want errBoom", err)
	}
	if !strings.Contains(err.Error(), "RISK_ZONE") {
		t.Errorf("error should name the alert type: %v", err)
	}
}

func TestScoreSaveFailureKeepsEntryPending(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t, DefaultEngineConfig())
	f.zones.set(zone(1, models.RiskHigh, 400))
	// Call 1 saves the position, call 2 the penalised score.
	f.tourists.saveErr = errBoom
	f.tourists.failCall = 2

	res, err := f.engine.ProcessLocation(context.Background(), "T1", ping(26.1668, 91.7090))
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want errBoom", err)
	}
	if res == nil || len(res.Alerts) != 0 || res.SafetyScore != 100 {
		t.Errorf("result = %+v, want no alerts and score 100", res)
	}
	if got := f.engine.geofence.Tracker().Zones("T1"); len(got) != 0 {
		t.Errorf("membership = %v, want none after a failed score write", got)
	}

	res, err = f.engine.ProcessLocation(context.Background(), "T1", ping(26.1668, 91.7090))
	if err != nil {
		t.Fatalf("second ProcessLocation: %v", err)
	}
	if n := len(f.alerts.byType(models.AlertRiskZone)); n != 1 {
		t.Errorf("RISK_ZONE alerts = %d, want 1", n)
	}
	if got := f.tourists.get("T1").SafetyScore; got != 82 || res.SafetyScore != 82 {
		t.Errorf("score = %v (result %v), want 82", got, res.SafetyScore)
	}
}

func TestAlertFailureRetriesZoneEntry(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t, DefaultEngineConfig())
	f.zones.set(zone(1, models.RiskHigh, 400))
	f.alerts.setErr(errBoom)

	res, err := f.engine.ProcessLocation(context.Background(), "T1", ping(26.1668, 91.7090))
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want errBoom", err)
	}
	if got := f.tourists.get("T1").SafetyScore; got != 100 {
		t.Errorf("stored score = %v, want the penalty refunded", got)
	}
	if len(res.EnteredZones) != 0 {
		t.Errorf("EnteredZones = %v, want none", res.EnteredZones)
	}
	if got := f.engine.geofence.Tracker().Zones("T1"); len(got) != 0 {
		t.Errorf("membership = %v, want the zone dropped", got)
	}

	f.alerts.setErr(nil)
	res, err = f.engine.ProcessLocation(context.Background(), "T1", ping(26.1668, 91.7090))
	if err != nil {
		t.Fatalf("second ProcessLocation: %v", err)
	}
	if len(res.Alerts) != 1 || res.Alerts[0].Type != models.AlertRiskZone {
		t.Errorf("alerts = %+v, want one RISK_ZONE", res.Alerts)
	}
	if got := f.tourists.get("T1").SafetyScore; got != 82 {
		t.Errorf("stored score = %v, want 82", got)
	}
}

func TestDisabledRules(t *testing.T) {
	t.Parallel()

	cfg := DefaultEngineConfig()
	cfg.GeoFenceEnabled = false
	f := newEngineFixture(t, cfg)
	f.zones.set(zone(1, models.RiskHigh, 400))

	if _, err := f.engine.ProcessLocation(context.Background(), "T1", ping(26.1668, 91.7090)); err != nil {
		t.Fatal(err)
	}
	if n := len(f.alerts.byType(models.AlertRiskZone)); n != 0 {
		t.Errorf("disabled geofence produced %d alerts", n)
	}

	r, ok := f.engine.Rule(RuleGeoFence)
	if !ok || r.Enabled() {
		t.Error("Rule(geofence) should exist and be disabled")
	}
}

func TestProcessLocationConcurrentSameTourist(t *testing.T) {
	t.Parallel()

	f := newEngineFixture(t, DefaultEngineConfig())
	f.zones.set(zone(1, models.RiskHigh, 400))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.engine.ProcessLocation(context.Background(), "T1", ping(26.1668, 91.7090)); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if n := len(f.alerts.byType(models.AlertRiskZone)); n != 1 {
		t.Errorf("got %d RISK_ZONE alerts, want 1", n)
	}
	if got := f.tourists.get("T1").SafetyScore; got != 82 {
		t.Errorf("score = %v, want 82", got)
	}
}
