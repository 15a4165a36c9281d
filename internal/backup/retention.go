// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package backup

import (
	"time"

	"github.com/vedantlahane/safarsathi/internal/logging"
)

// Prune deletes the backups policy does not keep and returns them.
func (m *Manager) Prune(policy RetentionPolicy) ([]*Backup, error) {
	all, err := m.List()
	if err != nil {
		return nil, err
	}

	var deleted []*Backup
	for _, b := range selectForDeletion(all, policy, m.now()) {
		if err := deleteFiles(b); err != nil {
			return deleted, err
		}
		deleted = append(deleted, b)
		logging.Info().Str("backup_id", b.ID).Time("created_at", b.CreatedAt).Msg("Backup pruned")
	}
	return deleted, nil
}

// selectForDeletion expects backups newest first. The MinCount newest are
// always kept; after that a backup goes once it is older than MaxAgeDays or
// MaxCount backups are already kept.
func selectForDeletion(backups []*Backup, policy RetentionPolicy, now time.Time) []*Backup {
	var cutoff time.Time
	if policy.MaxAgeDays > 0 {
		cutoff = now.AddDate(0, 0, -policy.MaxAgeDays)
	}

	var toDelete []*Backup
	kept := 0
	for i, b := range backups {
		if i < policy.MinCount {
			kept++
			continue
		}
		tooOld := !cutoff.IsZero() && b.CreatedAt.Before(cutoff)
		tooMany := policy.MaxCount > 0 && kept >= policy.MaxCount
		if tooOld || tooMany {
			toDelete = append(toDelete, b)
			continue
		}
		kept++
	}
	return toDelete
}
