// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/vedantlahane/safarsathi/internal/logging"
)

const (
	dbEntry       = "database/safarsathi.duckdb"
	walEntry      = "database/safarsathi.duckdb.wal"
	metadataEntry = "backup-metadata.json"
)

// archiveWriters closes file, gzip and tar writers in reverse order.
type archiveWriters struct {
	tw      *tar.Writer
	closers []io.Closer
}

func (aw *archiveWriters) Close() error {
	var firstErr error
	for i := len(aw.closers) - 1; i >= 0; i-- {
		if err := aw.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func openArchiveWriters(path string) (*archiveWriters, error) {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, fileMode) //nolint:gosec // path is built by the manager
	if err != nil {
		return nil, fmt.Errorf("failed to create backup file: %w", err)
	}
	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)
	return &archiveWriters{tw: tw, closers: []io.Closer{out, gz, tw}}, nil
}

func writeArchive(ctx context.Context, b *Backup, dbPath string) (err error) {
	aw, err := openArchiveWriters(b.FilePath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := aw.Close(); err == nil {
			err = closeErr
		}
	}()

	if err := addFile(ctx, aw.tw, b, dbPath, dbEntry); err != nil {
		return fmt.Errorf("failed to add database file: %w", err)
	}
	walPath := dbPath + ".wal"
	if _, statErr := os.Stat(walPath); statErr == nil {
		if err := addFile(ctx, aw.tw, b, walPath, walEntry); err != nil {
			return fmt.Errorf("failed to add WAL file: %w", err)
		}
	}

	meta, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode backup metadata: %w", err)
	}
	if err := aw.tw.WriteHeader(&tar.Header{
		Name:    metadataEntry,
		Mode:    fileMode,
		Size:    int64(len(meta)),
		ModTime: b.CreatedAt,
	}); err != nil {
		return err
	}
	_, err = aw.tw.Write(meta)
	return err
}

func addFile(ctx context.Context, tw *tar.Writer, b *Backup, src, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(src) //nolint:gosec // src is the configured database path
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // read only

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:    name,
		Mode:    fileMode,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}); err != nil {
		return err
	}

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tw, h), f); err != nil {
		return fmt.Errorf("failed to copy %s to archive: %w", src, err)
	}
	b.Files = append(b.Files, File{Path: name, Size: info.Size(), Checksum: hex.EncodeToString(h.Sum(nil))})
	return nil
}

// walkArchive streams every recorded file of b to fn and checks its
// checksum. Entries not recorded in b.Files are rejected.
func walkArchive(b *Backup, fn func(name string, r io.Reader) error) error {
	f, err := os.Open(b.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close() //nolint:errcheck // read only

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("backup %s is not a gzip archive: %w", b.ID, err)
	}
	defer gz.Close() //nolint:errcheck // read only

	want := make(map[string]string, len(b.Files))
	for _, file := range b.Files {
		want[file.Path] = file.Checksum
	}

	tr := tar.NewReader(gz)
	seen := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("backup %s is corrupt: %w", b.ID, err)
		}
		if hdr.Name == metadataEntry {
			continue
		}
		sum, ok := want[hdr.Name]
		if !ok {
			return fmt.Errorf("backup %s has unexpected entry %q", b.ID, hdr.Name)
		}

		h := sha256.New()
		r := io.TeeReader(tr, h)
		if err := fn(hdr.Name, r); err != nil {
			return err
		}
		if _, err := io.Copy(io.Discard, r); err != nil {
			return fmt.Errorf("backup %s is corrupt: %w", b.ID, err)
		}
		if hex.EncodeToString(h.Sum(nil)) != sum {
			return fmt.Errorf("checksum mismatch for %s in backup %s", hdr.Name, b.ID)
		}
		seen++
	}
	if seen != len(b.Files) {
		return fmt.Errorf("backup %s is missing %d file(s)", b.ID, len(b.Files)-seen)
	}
	return nil
}

// Restore extracts the database of backup id to target (and target.wal).
// target must not exist.
func (m *Manager) Restore(id, target string) error {
	b, err := m.Get(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("restore target %s already exists", target)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("failed to create restore directory: %w", err)
	}

	start := time.Now()
	var written []string
	err = walkArchive(b, func(name string, r io.Reader) error {
		dest := target
		if name == walEntry {
			dest = target + ".wal"
		}
		out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, fileMode) //nolint:gosec // operator supplied target
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", dest, err)
		}
		written = append(written, dest)
		if _, err := io.Copy(out, r); err != nil {
			out.Close() //nolint:errcheck,gosec // already failing
			return fmt.Errorf("failed to write %s: %w", dest, err)
		}
		return out.Close()
	})
	if err != nil {
		for _, path := range written {
			removeQuietly(path)
		}
		return err
	}

	logging.Info().
		Str("backup_id", b.ID).
		Str("target", target).
		Dur("duration", time.Since(start)).
		Msg("Backup restored")
	return nil
}
