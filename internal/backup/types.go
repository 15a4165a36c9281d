// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package backup

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for an unknown backup id.
var ErrNotFound = errors.New("backup not found")

// Database is what the manager needs from the store being backed up.
type Database interface {
	// Path is the DuckDB file, or ":memory:".
	Path() string
	Checkpoint(ctx context.Context) error
	TableCounts(ctx context.Context) (map[string]int64, error)
}

// Backup describes one archive.
type Backup struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"createdAt"`
	Duration  time.Duration    `json:"durationNs"`
	FilePath  string           `json:"filePath"`
	FileSize  int64            `json:"fileSize"`
	Checksum  string           `json:"checksum"`
	Notes     string           `json:"notes,omitempty"`
	Files     []File           `json:"files"`
	Counts    map[string]int64 `json:"counts,omitempty"`
}

// File is one entry of the archive.
type File struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// RetentionPolicy decides which backups Prune keeps. Zero fields disable
// their rule.
type RetentionPolicy struct {
	// MinCount newest backups are always kept.
	MinCount int
	// MaxCount caps the number of backups kept.
	MaxCount int
	// MaxAgeDays removes older backups beyond MinCount.
	MaxAgeDays int
}
