// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vedantlahane/safarsathi/internal/logging"
)

const (
	archivePrefix = "backup-"
	archiveSuffix = ".tar.gz"
	sidecarSuffix = ".json"
	fileMode      = 0o640
)

// Manager creates and maintains archives in one directory.
type Manager struct {
	dir string
	db  Database
	now func() time.Time
}

// NewManager creates dir if needed. db may be nil for read-only use
// (List, Verify, Restore, Prune).
func NewManager(dir string, db Database) (*Manager, error) {
	if dir == "" {
		return nil, fmt.Errorf("backup directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory %s: %w", dir, err)
	}
	return &Manager{dir: dir, db: db, now: time.Now}, nil
}

// Dir is the backup directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Create checkpoints the database and writes a new archive.
func (m *Manager) Create(ctx context.Context, notes string) (*Backup, error) {
	if m.db == nil {
		return nil, fmt.Errorf("no database attached")
	}
	dbPath := m.db.Path()
	if dbPath == "" || dbPath == ":memory:" {
		return nil, fmt.Errorf("an in-memory database cannot be backed up")
	}

	start := m.now().UTC()
	b := &Backup{
		ID:        uuid.NewString()[:8],
		CreatedAt: start,
		Notes:     notes,
	}
	b.FilePath = filepath.Join(m.dir, archivePrefix+start.Format("20060102T150405Z")+"-"+b.ID+archiveSuffix)

	if err := m.db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Checkpoint failed, backup may miss uncommitted data")
	}
	if counts, err := m.db.TableCounts(ctx); err == nil {
		b.Counts = counts
	} else {
		logging.Warn().Err(err).Msg("Failed to count rows for backup metadata")
	}

	if err := writeArchive(ctx, b, dbPath); err != nil {
		removeQuietly(b.FilePath)
		return nil, err
	}

	sum, size, err := checksumFile(b.FilePath)
	if err != nil {
		removeQuietly(b.FilePath)
		return nil, err
	}
	b.Checksum, b.FileSize = sum, size
	b.Duration = time.Since(start)

	if err := writeSidecar(b); err != nil {
		removeQuietly(b.FilePath)
		return nil, err
	}

	logging.Info().
		Str("backup_id", b.ID).
		Str("path", b.FilePath).
		Int64("size", b.FileSize).
		Dur("duration", b.Duration).
		Msg("Backup created")
	return b, nil
}

// List returns every backup in the directory, newest first.
func (m *Manager) List() ([]*Backup, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var out []*Backup
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, archivePrefix) || !strings.HasSuffix(name, archiveSuffix+sidecarSuffix) {
			continue
		}
		b, err := readSidecar(filepath.Join(m.dir, name))
		if err != nil {
			logging.Warn().Err(err).Str("file", name).Msg("Skipping unreadable backup metadata")
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Get finds a backup by id.
func (m *Manager) Get(id string) (*Backup, error) {
	all, err := m.List()
	if err != nil {
		return nil, err
	}
	for _, b := range all {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
}

// Verify recomputes the archive checksum and compares every entry against
// the recorded file checksums.
func (m *Manager) Verify(id string) error {
	b, err := m.Get(id)
	if err != nil {
		return err
	}
	sum, _, err := checksumFile(b.FilePath)
	if err != nil {
		return err
	}
	if sum != b.Checksum {
		return fmt.Errorf("archive checksum mismatch for %s", id)
	}
	return walkArchive(b, func(string, io.Reader) error { return nil })
}

// Delete removes a backup and its sidecar.
func (m *Manager) Delete(id string) error {
	b, err := m.Get(id)
	if err != nil {
		return err
	}
	return deleteFiles(b)
}

func deleteFiles(b *Backup) error {
	if err := os.Remove(b.FilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete backup %s: %w", b.ID, err)
	}
	if err := os.Remove(b.FilePath + sidecarSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete backup metadata %s: %w", b.ID, err)
	}
	return nil
}

func writeSidecar(b *Backup) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode backup metadata: %w", err)
	}
	if err := os.WriteFile(b.FilePath+sidecarSuffix, data, fileMode); err != nil {
		return fmt.Errorf("failed to write backup metadata: %w", err)
	}
	return nil
}

func readSidecar(path string) (*Backup, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is inside the backup directory
	if err != nil {
		return nil, err
	}
	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func checksumFile(path string) (string, int64, error) {
	f, err := os.Open(path) //nolint:gosec // path is inside the backup directory
	if err != nil {
		return "", 0, err
	}
	defer f.Close() //nolint:errcheck // read only

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Debug().Err(err).Str("path", path).Msg("cleanup failed")
	}
}
