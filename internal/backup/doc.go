// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

/*
Package backup snapshots the DuckDB file that holds tourists, zones, alerts,
notifications and the audit trail.

Archive layout:

	backup-20260601T120000Z-1a2b3c4d.tar.gz
	├── database/safarsathi.duckdb
	├── database/safarsathi.duckdb.wal   (if present after checkpoint)
	└── backup-metadata.json

Each archive has a sidecar <archive>.json holding the same Backup record, so
List does not have to open every archive. Archive and per-file SHA-256
checksums let Verify and Restore detect corruption.

Restore writes the database to a new path and refuses to overwrite an
existing file; swapping it in is an offline operator step.

The manager is driven from safarctl:

	safarctl backup create --notes "before zone import"
	safarctl backup list
	safarctl backup prune --keep 7 --max-age-days 30
	safarctl backup restore <id> --to /data/restored.duckdb
*/
package backup
