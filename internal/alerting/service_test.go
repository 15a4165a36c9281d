// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package alerting

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vedantlahane/safarsathi/internal/geo"
	"github.com/vedantlahane/safarsathi/internal/models"
	"github.com/vedantlahane/safarsathi/internal/sequence"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type harness struct {
	svc    *Service
	alerts *mockAlertStore
	notifs *mockNotificationStore
	pub    *mockPublisher
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		alerts: newMockAlertStore(),
		notifs: newMockNotificationStore(),
		pub:    &mockPublisher{},
	}
	seq := sequence.NewMemory()
	all := append([]Option{WithPublisher(h.pub), WithClock(func() time.Time { return fixedNow })}, opts...)
	h.svc = NewService(h.alerts, NewNotifications(h.notifs, seq), seq, all...)
	return h
}

func TestCreateAlert(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	alert, err := h.svc.CreateAlert(ctx, models.AlertDraft{
		TouristID: "T1",
		Type:      models.AlertRiskZone,
		Message:   "Tourist entered risk zone 'Riverbank' [HIGH]",
		Position:  &geo.Point{Lat: 26.1, Lng: 91.7},
	})
	if err != nil {
		t.Fatalf("CreateAlert: %v", err)
	}

	if alert.ID != 1 {
		t.Errorf("ID = %d, want 1", alert.ID)
	}
	if alert.Status != models.StatusOpen {
		t.Errorf("Status = %s, want OPEN", alert.Status)
	}
	if !alert.CreatedAt.Equal(fixedNow) || !alert.UpdatedAt.Equal(fixedNow) {
		t.Errorf("timestamps = %v / %v", alert.CreatedAt, alert.UpdatedAt)
	}
	if alert.Priority() != models.PriorityHigh {
		t.Errorf("Priority = %s, want high", alert.Priority())
	}

	if _, err := h.alerts.GetAlert(ctx, alert.ID); err != nil {
		t.Errorf("alert not persisted: %v", err)
	}

	notifs, _ := h.notifs.ListNotifications(ctx, "T1", false)
	if len(notifs) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifs))
	}
	n := notifs[0]
	if n.Title != "RISK_ZONE" || n.Message != alert.Message || n.Type != "alert" || n.SourceTab != "home" || n.Read {
		t.Errorf("notification = %+v", n)
	}

	pubs := h.pub.all()
	if len(pubs) != 1 || pubs[0].topic != TopicAlerts || pubs[0].alert.ID != alert.ID {
		t.Errorf("published = %+v", pubs)
	}
}

func TestCreateAlertKeepsExplicitStatus(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	alert, err := h.svc.CreateAlert(context.Background(), models.AlertDraft{
		TouristID: "T1", Type: models.AlertDeviation, Status: models.StatusAcknowledged,
	})
	if err != nil {
		t.Fatalf("CreateAlert: %v", err)
	}
	if alert.Status != models.StatusAcknowledged {
		t.Errorf("Status = %s, want ACKNOWLEDGED", alert.Status)
	}
}

func TestCreateAlertWithoutTouristSkipsNotification(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	if _, err := h.svc.CreateAlert(context.Background(), models.AlertDraft{Type: models.AlertSOS}); err != nil {
		t.Fatalf("CreateAlert: %v", err)
	}
	if h.notifs.count() != 0 {
		t.Errorf("notifications = %d, want 0", h.notifs.count())
	}
	if len(h.pub.all()) != 1 {
		t.Error("alert should still be broadcast")
	}
}

func TestCreateAlertNotificationDefaults(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.svc.CreateAlert(ctx, models.AlertDraft{TouristID: "T9"}); err != nil {
		t.Fatalf("CreateAlert: %v", err)
	}
	notifs, _ := h.notifs.ListNotifications(ctx, "T9", false)
	if len(notifs) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifs))
	}
	if notifs[0].Title != "Alert" || notifs[0].Message != "Safety alert received" {
		t.Errorf("defaults not applied: %+v", notifs[0])
	}
}

func TestCreateAlertBroadcastFailureIsSwallowed(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.pub.err = errors.New("hub closed")

	alert, err := h.svc.CreateAlert(context.Background(), models.AlertDraft{TouristID: "T1", Type: models.AlertSOS})
	if err != nil {
		t.Fatalf("broadcast failure must not fail CreateAlert: %v", err)
	}
	if _, err := h.alerts.GetAlert(context.Background(), alert.ID); err != nil {
		t.Errorf("alert not persisted: %v", err)
	}
}

func TestCreateAlertStoreFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.alerts.saveErr = errors.New("disk full")

	if _, err := h.svc.CreateAlert(context.Background(), models.AlertDraft{TouristID: "T1", Type: models.AlertSOS}); err == nil {
		t.Fatal("expected error")
	}
	if len(h.pub.all()) != 0 {
		t.Error("unsaved alert must not be broadcast")
	}
	if h.notifs.count() != 0 {
		t.Error("unsaved alert must not create a notification")
	}
}

func TestCreateAlertSequenceFailure(t *testing.T) {
	t.Parallel()
	mem := sequence.NewMemory()
	alerts := newMockAlertStore()
	svc := NewService(alerts, NewNotifications(newMockNotificationStore(), mem),
		&failingSequence{next: mem.Next, failName: sequence.AlertID})

	if _, err := svc.CreateAlert(context.Background(), models.AlertDraft{TouristID: "T1"}); err == nil {
		t.Fatal("expected error")
	}
	if alerts.saves != 0 {
		t.Error("nothing should be saved without an id")
	}
}

func TestCreateAlertUniqueIDsUnderConcurrency(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := h.svc.CreateAlert(context.Background(), models.AlertDraft{TouristID: "T1", Type: models.AlertInactivity})
			if err != nil {
				t.Errorf("CreateAlert: %v", err)
				return
			}
			ids <- a.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate alert id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Errorf("unique ids = %d, want %d", len(seen), n)
	}
}

func TestNotifiersDispatched(t *testing.T) {
	t.Parallel()
	on := &mockNotifier{name: "on", enabled: true}
	off := &mockNotifier{name: "off", enabled: false}
	failing := &mockNotifier{name: "failing", enabled: true, err: errors.New("502")}
	h := newHarness(t, WithNotifier(on), WithNotifier(off))
	h.svc.RegisterNotifier(failing)

	ctx, cancel := context.WithCancel(context.Background())
	alert, err := h.svc.CreateAlert(ctx, models.AlertDraft{TouristID: "T1", Type: models.AlertSOS})
	if err != nil {
		t.Fatalf("CreateAlert: %v", err)
	}
	// Deliveries must survive the caller's context.
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	if err := h.svc.Wait(waitCtx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if got := on.sentIDs(); len(got) != 1 || got[0] != alert.ID {
		t.Errorf("enabled notifier got %v", got)
	}
	if got := off.sentIDs(); len(got) != 0 {
		t.Errorf("disabled notifier got %v", got)
	}
	if got := failing.sentIDs(); len(got) != 1 {
		t.Errorf("failing notifier got %v", got)
	}
}

func TestUpdateStatus(t *testing.T) {
	t.Parallel()
	later := fixedNow.Add(time.Hour)
	clock := fixedNow
	h := newHarness(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	alert, err := h.svc.CreateAlert(ctx, models.AlertDraft{TouristID: "T1", Type: models.AlertSOS})
	if err != nil {
		t.Fatalf("CreateAlert: %v", err)
	}
	clock = later

	tests := []struct {
		name   string
		status string
		want   models.AlertStatus
	}{
		{"acknowledge", "ACKNOWLEDGED", models.StatusAcknowledged},
		{"resolve lowercase", "resolved", models.StatusResolved},
		{"reopen", "OPEN", models.StatusOpen},
	}
	for _, tt := range tests {
		updated, err := h.svc.UpdateStatus(ctx, alert.ID, tt.status)
		if err != nil {
			t.Fatalf("%s: UpdateStatus: %v", tt.name, err)
		}
		if updated.Status != tt.want {
			t.Errorf("%s: Status = %s, want %s", tt.name, updated.Status, tt.want)
		}
		if !updated.UpdatedAt.Equal(later) || !updated.CreatedAt.Equal(fixedNow) {
			t.Errorf("%s: timestamps = %v / %v", tt.name, updated.CreatedAt, updated.UpdatedAt)
		}
	}

	// One broadcast on create plus one per update.
	if got := len(h.pub.all()); got != 1+len(tests) {
		t.Errorf("broadcasts = %d, want %d", got, 1+len(tests))
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.svc.UpdateStatus(ctx, 404, "RESOLVED"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown id err = %v, want ErrNotFound", err)
	}

	alert, _ := h.svc.CreateAlert(ctx, models.AlertDraft{TouristID: "T1", Type: models.AlertSOS})
	if _, err := h.svc.UpdateStatus(ctx, alert.ID, "ESCALATED"); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("bad status err = %v, want ErrInvalidInput", err)
	}
	stored, _ := h.alerts.GetAlert(ctx, alert.ID)
	if stored.Status != models.StatusOpen {
		t.Errorf("rejected update changed status to %s", stored.Status)
	}
}

func TestHandleSOS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pos  *geo.Point
		want string
	}{
		{"with position", &geo.Point{Lat: 26.1445, Lng: 91.7362}, "TOURIST IN IMMEDIATE DANGER. LAST LOC: 26.1445, 91.7362"},
		{"without position", nil, "TOURIST IN IMMEDIATE DANGER. LAST LOC: unknown, unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			alert, err := h.svc.HandleSOS(context.Background(), "T1", tt.pos)
			if err != nil {
				t.Fatalf("HandleSOS: %v", err)
			}
			if alert.Type != models.AlertSOS || alert.Priority() != models.PriorityCritical {
				t.Errorf("type/priority = %s/%s", alert.Type, alert.Priority())
			}
			if alert.Message != tt.want {
				t.Errorf("Message = %q, want %q", alert.Message, tt.want)
			}
			if (alert.Position == nil) != (tt.pos == nil) {
				t.Errorf("Position = %v", alert.Position)
			}
		})
	}
}

func TestQueries(t *testing.T) {
	t.Parallel()
	clock := fixedNow
	h := newHarness(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	create := func(tourist string, typ models.AlertType) *models.Alert {
		t.Helper()
		clock = clock.Add(time.Minute)
		a, err := h.svc.CreateAlert(ctx, models.AlertDraft{TouristID: tourist, Type: typ})
		if err != nil {
			t.Fatalf("CreateAlert: %v", err)
		}
		return a
	}
	a1 := create("T1", models.AlertRiskZone)
	a2 := create("T2", models.AlertSOS)
	a3 := create("T1", models.AlertInactivity)
	if _, err := h.svc.UpdateStatus(ctx, a2.ID, "RESOLVED"); err != nil {
		t.Fatal(err)
	}

	active, _ := h.svc.ListActive(ctx)
	if len(active) != 2 || active[0].ID != a3.ID || active[1].ID != a1.ID {
		t.Errorf("ListActive = %v", ids(active))
	}

	recent, _ := h.svc.ListRecent(ctx, 2)
	if len(recent) != 2 || recent[0].ID != a3.ID {
		t.Errorf("ListRecent(2) = %v", ids(recent))
	}
	all, _ := h.svc.ListRecent(ctx, 0)
	if len(all) != 3 {
		t.Errorf("ListRecent(0) = %v, want all 3", ids(all))
	}

	mine, _ := h.svc.ListForTourist(ctx, "T1")
	if len(mine) != 2 || mine[0].ID != a3.ID || mine[1].ID != a1.ID {
		t.Errorf("ListForTourist = %v", ids(mine))
	}

	got, err := h.svc.Get(ctx, a1.ID)
	if err != nil || got.ID != a1.ID {
		t.Errorf("Get = %v, %v", got, err)
	}
}

func ids(alerts []*models.Alert) string {
	parts := make([]string, len(alerts))
	for i, a := range alerts {
		parts[i] = strconv.FormatInt(a.ID, 10)
	}
	return strings.Join(parts, ",")
}
