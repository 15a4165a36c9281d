// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/vedantlahane/safarsathi/internal/logging"
)

// DuckDBStore persists events in the audit_events table.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore wraps an open connection. Call CreateTable once before use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

var auditSchema = []string{
	`CREATE TABLE IF NOT EXISTS audit_events (
		id                VARCHAR PRIMARY KEY,
		timestamp         TIMESTAMP NOT NULL,
		type              VARCHAR NOT NULL,
		outcome           VARCHAR NOT NULL,
		actor_id          VARCHAR NOT NULL,
		actor_type        VARCHAR NOT NULL,
		target_id         VARCHAR,
		target_type       VARCHAR,
		source_ip         VARCHAR NOT NULL,
		source_user_agent VARCHAR,
		action            VARCHAR NOT NULL,
		description       VARCHAR NOT NULL,
		metadata          VARCHAR,
		request_id        VARCHAR
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_target ON audit_events(target_type, target_id)`,
}

// CreateTable creates the audit_events table and its indexes if missing.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	for _, stmt := range auditSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create audit schema: %w", err)
		}
	}
	logging.Debug().Msg("Audit events table created/verified")
	return nil
}

const auditColumns = `id, timestamp, type, outcome, actor_id, actor_type, target_id, target_type,
	source_ip, source_user_agent, action, description, metadata, request_id`

func (s *DuckDBStore) Save(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	var targetID, targetType sql.NullString
	if event.Target != nil {
		targetID = sql.NullString{String: event.Target.ID, Valid: true}
		targetType = sql.NullString{String: event.Target.Type, Valid: true}
	}
	var metadata sql.NullString
	if len(event.Metadata) > 0 {
		metadata = sql.NullString{String: string(event.Metadata), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (`+auditColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp.UTC(), string(event.Type), string(event.Outcome),
		event.Actor.ID, event.Actor.Type, targetID, targetType,
		event.Source.IPAddress, event.Source.UserAgent,
		event.Action, event.Description, metadata, event.RequestID)
	if err != nil {
		return fmt.Errorf("failed to save audit event: %w", err)
	}
	return nil
}

func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	var (
		where []string
		args  []any
	)
	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		where = append(where, "type IN ("+strings.Join(placeholders, ",")+")")
	}
	if filter.ActorID != "" {
		where = append(where, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	if filter.TargetType != "" {
		where = append(where, "target_type = ?")
		args = append(args, filter.TargetType)
	}
	if filter.TargetID != "" {
		where = append(where, "target_id = ?")
		args = append(args, filter.TargetID)
	}
	if filter.Since != nil {
		where = append(where, "timestamp >= ?")
		args = append(args, filter.Since.UTC())
	}

	query := `SELECT ` + auditColumns + ` FROM audit_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, id LIMIT ?"
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e                    Event
			typ, outcome         string
			targetID, targetType sql.NullString
			userAgent, metadata  sql.NullString
			requestID            sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &typ, &outcome, &e.Actor.ID, &e.Actor.Type,
			&targetID, &targetType, &e.Source.IPAddress, &userAgent,
			&e.Action, &e.Description, &metadata, &requestID); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.Type = EventType(typ)
		e.Outcome = Outcome(outcome)
		e.Timestamp = e.Timestamp.UTC()
		if targetID.Valid || targetType.Valid {
			e.Target = &Target{ID: targetID.String, Type: targetType.String}
		}
		e.Source.UserAgent = userAgent.String
		if metadata.Valid {
			e.Metadata = json.RawMessage(metadata.String)
		}
		e.RequestID = requestID.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM audit_events WHERE timestamp < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit events: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}
	return count, nil
}
