// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package alerting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vedantlahane/safarsathi/internal/models"
	"github.com/vedantlahane/safarsathi/internal/sequence"
)

func seedNotifications(t *testing.T, store *mockNotificationStore, touristID string, read ...bool) {
	t.Helper()
	for i, r := range read {
		n := &models.Notification{
			ID: int64(i + 1), TouristID: touristID, Title: "t", Message: "m",
			Type: models.NotificationTypeAlert, SourceTab: models.DefaultSourceTab,
			Read: r, CreatedAt: fixedNow.Add(time.Duration(i) * time.Minute),
		}
		if err := store.SaveNotification(context.Background(), n); err != nil {
			t.Fatal(err)
		}
	}
}

func TestMarkRead(t *testing.T) {
	t.Parallel()
	store := newMockNotificationStore()
	seedNotifications(t, store, "T1", false, true)
	n := NewNotifications(store, sequence.NewMemory())
	ctx := context.Background()

	got, err := n.MarkRead(ctx, 1)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !got.Read {
		t.Error("notification should be read")
	}

	savesBefore := store.saves
	if _, err := n.MarkRead(ctx, 2); err != nil {
		t.Fatalf("MarkRead on read notification: %v", err)
	}
	if store.saves != savesBefore {
		t.Error("already-read notification should not be rewritten")
	}

	if _, err := n.MarkRead(ctx, 99); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("MarkRead(99) err = %v, want ErrNotFound", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	t.Parallel()
	store := newMockNotificationStore()
	seedNotifications(t, store, "T1", false, true, false)
	n := NewNotifications(store, sequence.NewMemory())
	ctx := context.Background()

	updated, err := n.MarkAllRead(ctx, "T1")
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}
	unread, _ := store.ListUnread(ctx, "T1")
	if len(unread) != 0 {
		t.Errorf("unread = %d, want 0", len(unread))
	}

	updated, err = n.MarkAllRead(ctx, "T1")
	if err != nil || updated != 0 {
		t.Errorf("second MarkAllRead = %d, %v; want 0, nil", updated, err)
	}
	updated, err = n.MarkAllRead(ctx, "nobody")
	if err != nil || updated != 0 {
		t.Errorf("MarkAllRead(nobody) = %d, %v; want 0, nil", updated, err)
	}
}

func TestMarkAllReadStoreFailure(t *testing.T) {
	t.Parallel()
	store := newMockNotificationStore()
	seedNotifications(t, store, "T1", false)
	store.saveErr = errors.New("locked")
	n := NewNotifications(store, sequence.NewMemory())

	if _, err := n.MarkAllRead(context.Background(), "T1"); err == nil {
		t.Fatal("expected error")
	}
}

func TestListNewestFirst(t *testing.T) {
	t.Parallel()
	store := newMockNotificationStore()
	seedNotifications(t, store, "T1", false, true, false)
	n := NewNotifications(store, sequence.NewMemory())

	list, err := n.List(context.Background(), "T1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].ID != 3 || list[2].ID != 1 {
		t.Errorf("List order wrong: %+v", list)
	}
}

func TestFromAlertUsesNotificationCounter(t *testing.T) {
	t.Parallel()
	seq := sequence.NewMemory()
	// Alert ids and notification ids are independent counters.
	for i := 0; i < 3; i++ {
		if _, err := seq.Next(context.Background(), sequence.AlertID); err != nil {
			t.Fatal(err)
		}
	}
	n := NewNotifications(newMockNotificationStore(), seq)

	notif, err := n.FromAlert(context.Background(), &models.Alert{ID: 3, TouristID: "T1", Type: models.AlertSOS, Message: "help"})
	if err != nil {
		t.Fatalf("FromAlert: %v", err)
	}
	if notif.ID != 1 {
		t.Errorf("notification ID = %d, want 1", notif.ID)
	}
	if notif.Title != "SOS" || notif.Message != "help" {
		t.Errorf("notification = %+v", notif)
	}
}
