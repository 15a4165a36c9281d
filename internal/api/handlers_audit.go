// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/vedantlahane/safarsathi/internal/audit"
	"github.com/vedantlahane/safarsathi/internal/models"
)

const maxAuditLimit = 1000

// ListAuditEvents handles GET /api/v1/audit.
//
// Query parameters: type (comma separated), actor, target_type, target_id
// and limit (default 100, at most 1000).
func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeUnavailable, "Audit trail is disabled", nil, nil)
		return
	}

	q := r.URL.Query()
	filter := audit.QueryFilter{
		ActorID:    q.Get("actor"),
		TargetType: q.Get("target_type"),
		TargetID:   q.Get("target_id"),
	}
	if raw := q.Get("type"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			t := audit.EventType(strings.TrimSpace(part))
			if !t.Valid() {
				respondServiceError(w, r, fmt.Errorf("unknown audit event type %q: %w", t, models.ErrInvalidInput))
				return
			}
			filter.Types = append(filter.Types, t)
		}
	}
	limit, err := getIntParam(r, "limit", audit.DefaultQueryLimit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	filter.Limit = min(limit, maxAuditLimit)

	events, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	n := len(events)
	respondData(w, r, events, &n)
}
