// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/vedantlahane/safarsathi/internal/audit"
	"github.com/vedantlahane/safarsathi/internal/config"
	"github.com/vedantlahane/safarsathi/internal/database"
	"github.com/vedantlahane/safarsathi/internal/models"
)

func testApp(t *testing.T) (*app, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "safarsathi.duckdb")},
		Sequence: config.SequenceConfig{Backend: config.SequenceDuckDB},
		Backup:   config.BackupConfig{Dir: filepath.Join(t.TempDir(), "backups"), MinCount: 1, MaxCount: 1},
	}
	return &app{
		loadConfig: func() (*config.Config, error) { return cfg, nil },
		openDB:     database.New,
		timeout:    10 * time.Second,
	}, cfg
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(a)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seedAlerts(t *testing.T, cfg *config.Config, alerts ...*models.Alert) {
	t.Helper()
	db, err := database.New(&cfg.Database)
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	defer db.Close()
	for _, a := range alerts {
		if err := db.SaveAlert(context.Background(), a); err != nil {
			t.Fatalf("SaveAlert: %v", err)
		}
	}
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	a, cfg := testApp(t)
	out, err := run(t, a, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, cfg.Database.Path) {
		t.Errorf("output %q should name the database path", out)
	}
	// Running again is harmless.
	if _, err := run(t, a, "migrate"); err != nil {
		t.Errorf("second migrate: %v", err)
	}
}

func TestSequenceNext(t *testing.T) {
	t.Parallel()

	a, _ := testApp(t)
	for want := 1; want <= 3; want++ {
		out, err := run(t, a, "sequence", "next", "alertId")
		if err != nil {
			t.Fatalf("sequence next: %v", err)
		}
		if got := strings.TrimSpace(out); got != strconv.Itoa(want) {
			t.Errorf("next = %q, want %d", got, want)
		}
	}

	if _, err := run(t, a, "sequence", "next"); err == nil {
		t.Error("missing name should fail")
	}
}

func TestAlertsList(t *testing.T) {
	t.Parallel()

	a, cfg := testApp(t)
	ts := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	resolved := &models.Alert{ID: 2, TouristID: "T2", Type: models.AlertInactivity, Status: models.StatusResolved, Message: "no ping", CreatedAt: ts.Add(time.Minute), UpdatedAt: ts.Add(time.Minute)}
	seedAlerts(t, cfg,
		&models.Alert{ID: 1, TouristID: "T1", Type: models.AlertSOS, Status: models.StatusOpen, Message: "TOURIST IN IMMEDIATE DANGER", CreatedAt: ts, UpdatedAt: ts},
		resolved,
	)

	out, err := run(t, a, "alerts", "list")
	if err != nil {
		t.Fatalf("alerts list: %v", err)
	}
	for _, want := range []string{"PRIORITY", "critical", "T1", "T2", "RESOLVED"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, a, "alerts", "list", "--active", "--json")
	if err != nil {
		t.Fatalf("alerts list --active: %v", err)
	}
	var got []map[string]interface{}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(got) != 1 || got[0]["touristId"] != "T1" {
		t.Errorf("active alerts = %v", got)
	}

	if _, err := run(t, a, "alerts", "list", "--limit", "-1"); err == nil {
		t.Error("negative limit should fail")
	}
}

func TestAuditList(t *testing.T) {
	t.Parallel()

	a, cfg := testApp(t)
	db, err := database.New(&cfg.Database)
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	store := audit.NewDuckDBStore(db.Conn())
	if err := store.CreateTable(context.Background()); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	ts := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	for _, e := range []*audit.Event{
		{ID: "a1", Timestamp: ts, Type: audit.EventAlertRaised, Outcome: audit.OutcomeSuccess,
			Actor: audit.Actor{ID: "T1", Type: audit.ActorTourist}, Target: &audit.Target{ID: "1", Type: audit.TargetAlert},
			Source: audit.Source{IPAddress: "10.0.0.1"}, Action: "raise_sos", Description: "SOS alert 1 raised"},
		{ID: "a2", Timestamp: ts.Add(time.Minute), Type: audit.EventAlertStatusChanged, Outcome: audit.OutcomeSuccess,
			Actor: audit.Actor{ID: "10.0.0.9", Type: audit.ActorOperator}, Target: &audit.Target{ID: "1", Type: audit.TargetAlert},
			Source: audit.Source{IPAddress: "10.0.0.9"}, Action: "update_status", Description: "alert 1 set to RESOLVED"},
	} {
		if err := store.Save(context.Background(), e); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	db.Close()

	out, err := run(t, a, "audit", "list")
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	for _, want := range []string{"OUTCOME", "alert.raised", "operator:10.0.0.9", "alert:1"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, a, "audit", "list", "--type", "alert.status_changed", "--json")
	if err != nil {
		t.Fatalf("audit list --type: %v", err)
	}
	var events []audit.Event
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(events) != 1 || events[0].ID != "a2" {
		t.Errorf("events = %+v", events)
	}

	if _, err := run(t, a, "audit", "list", "--type", "auth.success"); err == nil {
		t.Error("unknown event type should fail")
	}
}

func TestBackup(t *testing.T) {
	t.Parallel()

	a, cfg := testApp(t)
	seedAlerts(t, cfg, &models.Alert{
		ID: 1, TouristID: "T1", Type: models.AlertSOS, Status: models.StatusOpen,
		Message: "SOS", CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	})

	var ids []string
	for _, note := range []string{"first", "second"} {
		out, err := run(t, a, "backup", "create", "--notes", note)
		if err != nil {
			t.Fatalf("backup create: %v", err)
		}
		ids = append(ids, strings.Fields(out)[0])
	}

	out, err := run(t, a, "backup", "list")
	if err != nil {
		t.Fatalf("backup list: %v", err)
	}
	for _, want := range []string{"ALERTS", ids[0], ids[1], "second"} {
		if !strings.Contains(out, want) {
			t.Errorf("list missing %q:\n%s", want, out)
		}
	}

	if out, err := run(t, a, "backup", "verify", ids[0]); err != nil || !strings.Contains(out, "ok") {
		t.Errorf("backup verify = %q, %v", out, err)
	}
	if _, err := run(t, a, "backup", "verify", "nope"); err == nil {
		t.Error("verify of an unknown id should fail")
	}

	target := filepath.Join(t.TempDir(), "restored.duckdb")
	if _, err := run(t, a, "backup", "restore", ids[1], "--to", target); err != nil {
		t.Fatalf("backup restore: %v", err)
	}
	restored, err := database.New(&config.DatabaseConfig{Path: target})
	if err != nil {
		t.Fatalf("open restored database: %v", err)
	}
	counts, err := restored.TableCounts(context.Background())
	restored.Close()
	if err != nil || counts["alerts"] != 1 {
		t.Errorf("restored counts = %v, %v", counts, err)
	}
	if _, err := run(t, a, "backup", "restore", ids[1]); err == nil {
		t.Error("restore without --to should fail")
	}

	// MaxCount 1 keeps only the newest.
	out, err = run(t, a, "backup", "prune")
	if err != nil {
		t.Fatalf("backup prune: %v", err)
	}
	if !strings.Contains(out, "deleted") {
		t.Errorf("prune output = %q", out)
	}
	out, _ = run(t, a, "backup", "list")
	if strings.Count(out, "\n") != 2 {
		t.Errorf("after prune:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("line one\nline two is long", 12); got != "line one ..." {
		t.Errorf("truncate = %q", got)
	}
}
