// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package backup

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type fakeDB struct {
	mu          sync.Mutex
	path        string
	checkpoints int
	countErr    error
}

func (f *fakeDB) Path() string { return f.path }

func (f *fakeDB) Checkpoint(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkpoints++
	return nil
}

func (f *fakeDB) TableCounts(context.Context) (map[string]int64, error) {
	if f.countErr != nil {
		return nil, f.countErr
	}
	return map[string]int64{"alerts": 4, "tourists": 2}, nil
}

// newFixture writes a fake database file (and optionally a WAL) and returns
// a manager backing it up into its own directory.
func newFixture(t *testing.T, withWAL bool) (*Manager, *fakeDB, []byte) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "safarsathi.duckdb")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		t.Fatal(err)
	}
	// Incompressible, so the database dominates the archive bytes.
	content := make([]byte, 64<<10)
	rand.New(rand.NewSource(1)).Read(content)
	if err := os.WriteFile(dbPath, content, 0o640); err != nil {
		t.Fatal(err)
	}
	if withWAL {
		if err := os.WriteFile(dbPath+".wal", []byte("wal-tail"), 0o640); err != nil {
			t.Fatal(err)
		}
	}

	db := &fakeDB{path: dbPath}
	m, err := NewManager(filepath.Join(dir, "backups"), db)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m, db, content
}

func TestCreateListVerifyRestore(t *testing.T) {
	t.Parallel()

	m, db, content := newFixture(t, true)
	ctx := context.Background()

	b, err := m.Create(ctx, "before zone import")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if db.checkpoints != 1 {
		t.Errorf("checkpoints = %d, want 1", db.checkpoints)
	}
	if len(b.Files) != 2 || b.Checksum == "" || b.FileSize == 0 {
		t.Errorf("backup = %+v", b)
	}
	if b.Counts["alerts"] != 4 {
		t.Errorf("counts = %v", b.Counts)
	}

	list, err := m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != b.ID || list[0].Notes != "before zone import" {
		t.Fatalf("List = %+v", list)
	}

	if err := m.Verify(b.ID); err != nil {
		t.Errorf("Verify: %v", err)
	}

	target := filepath.Join(t.TempDir(), "restored", "safarsathi.duckdb")
	if err := m.Restore(b.ID, target); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Error("restored database differs from the original")
	}
	if wal, err := os.ReadFile(target + ".wal"); err != nil || string(wal) != "wal-tail" {
		t.Errorf("restored WAL = %q, %v", wal, err)
	}

	if err := m.Restore(b.ID, target); err == nil {
		t.Error("Restore over an existing file should fail")
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	t.Parallel()

	m, _, _ := newFixture(t, false)
	b, err := m.Create(context.Background(), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	data, err := os.ReadFile(b.FilePath)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)/2] ^= 0xff
	if err := os.WriteFile(b.FilePath, data, 0o640); err != nil {
		t.Fatal(err)
	}

	if err := m.Verify(b.ID); err == nil {
		t.Error("Verify should fail on a modified archive")
	}
	target := filepath.Join(t.TempDir(), "restored.duckdb")
	if err := m.Restore(b.ID, target); err == nil {
		t.Error("Restore should fail on a corrupt archive")
	}
	if _, err := os.Stat(target); err == nil {
		t.Error("a failed restore must not leave a partial file behind")
	}
}

func TestCreateErrors(t *testing.T) {
	t.Parallel()

	m, err := NewManager(t.TempDir(), &fakeDB{path: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Create(context.Background(), ""); err == nil {
		t.Error("in-memory database should not be backed up")
	}

	readOnly, err := NewManager(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := readOnly.Create(context.Background(), ""); err == nil {
		t.Error("Create without a database should fail")
	}

	if _, err := NewManager("", nil); err == nil {
		t.Error("empty directory should be rejected")
	}
}

func TestCreateWithoutCounts(t *testing.T) {
	t.Parallel()

	m, db, _ := newFixture(t, false)
	db.countErr = errors.New("table missing")
	b, err := m.Create(context.Background(), "")
	if err != nil {
		t.Fatalf("Create should tolerate count errors: %v", err)
	}
	if b.Counts != nil {
		t.Errorf("counts = %v, want nil", b.Counts)
	}
}

func TestGetAndDelete(t *testing.T) {
	t.Parallel()

	m, _, _ := newFixture(t, false)
	if _, err := m.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) err = %v, want ErrNotFound", err)
	}

	b, err := m.Create(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(b.FilePath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("archive still present: %v", err)
	}
	if list, _ := m.List(); len(list) != 0 {
		t.Errorf("List after delete = %d backups", len(list))
	}
}

func TestSelectForDeletion(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	// Newest first, one per day.
	var backups []*Backup
	for i := 0; i < 10; i++ {
		backups = append(backups, &Backup{ID: string(rune('a' + i)), CreatedAt: now.AddDate(0, 0, -i)})
	}

	tests := []struct {
		name   string
		policy RetentionPolicy
		want   string
	}{
		{"no rules keeps everything", RetentionPolicy{}, ""},
		{"max count", RetentionPolicy{MaxCount: 7}, "hij"},
		{"max age", RetentionPolicy{MaxAgeDays: 5}, "ghij"},
		{"min count beats age", RetentionPolicy{MinCount: 8, MaxAgeDays: 2}, "ij"},
		{"min count plus max count", RetentionPolicy{MinCount: 2, MaxCount: 3}, "defghij"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			for _, b := range selectForDeletion(backups, tt.policy, now) {
				got += b.ID
			}
			if got != tt.want {
				t.Errorf("deleted %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrune(t *testing.T) {
	t.Parallel()

	m, _, _ := newFixture(t, false)
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		m.now = func() time.Time { return at }
		if _, err := m.Create(context.Background(), ""); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	deleted, err := m.Prune(RetentionPolicy{MaxCount: 2})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("pruned %d, want 2", len(deleted))
	}
	left, _ := m.List()
	if len(left) != 2 || !left[0].CreatedAt.Equal(base.Add(3*time.Hour)) {
		t.Errorf("remaining = %+v", left)
	}
}
