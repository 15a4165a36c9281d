// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vedantlahane/safarsathi/internal/audit"
	"github.com/vedantlahane/safarsathi/internal/models"
	"github.com/vedantlahane/safarsathi/internal/validation"
)

// Alert list scopes.
const (
	ScopeActive = "active"
	ScopeRecent = "recent"
	ScopeAll    = "all"
)

const defaultRecentLimit = 50

// StatusUpdateRequest is the body of PATCH /alerts/{id}/status.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListAlerts handles GET /api/v1/alerts.
//
// scope=active (default) returns OPEN alerts, scope=recent the newest limit
// alerts (default 50) and scope=all everything.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = ScopeActive
	}

	var (
		alerts []*models.Alert
		err    error
	)
	switch scope {
	case ScopeActive:
		alerts, err = h.alerts.ListActive(r.Context())
	case ScopeRecent:
		var limit int
		if limit, err = getIntParam(r, "limit", defaultRecentLimit); err == nil {
			if limit == 0 {
				limit = defaultRecentLimit
			}
			alerts, err = h.alerts.ListRecent(r.Context(), limit)
		}
	case ScopeAll:
		alerts, err = h.alerts.ListRecent(r.Context(), 0)
	default:
		err = fmt.Errorf("scope must be one of active, recent, all: %w", models.ErrInvalidInput)
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondAlerts(w, r, alerts)
}

// GetAlert handles GET /api/v1/alerts/{id}.
func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	alert, err := h.alerts.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, alert, nil)
}

// UpdateAlertStatus handles PATCH /api/v1/alerts/{id}/status.
func (h *Handler) UpdateAlertStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	var req StatusUpdateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondServiceError(w, r, err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	alert, err := h.alerts.UpdateStatus(r.Context(), id, req.Status)
	if h.audit != nil {
		status, ok := models.ParseAlertStatus(req.Status)
		if !ok {
			status = models.AlertStatus(req.Status)
		}
		h.audit.StatusChanged(r.Context(), audit.SourceFromRequest(r), id, status, err)
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, r, alert, nil)
}

// TouristAlerts handles GET /api/v1/tourists/{touristID}/alerts.
func (h *Handler) TouristAlerts(w http.ResponseWriter, r *http.Request) {
	touristID, ok := touristParam(w, r)
	if !ok {
		return
	}
	alerts, err := h.alerts.ListForTourist(r.Context(), touristID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondAlerts(w, r, alerts)
}

func respondAlerts(w http.ResponseWriter, r *http.Request, alerts []*models.Alert) {
	if alerts == nil {
		alerts = []*models.Alert{}
	}
	n := len(alerts)
	respondData(w, r, alerts, &n)
}
