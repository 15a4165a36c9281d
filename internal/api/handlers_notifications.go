// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vedantlahane/safarsathi/internal/audit"
	"github.com/vedantlahane/safarsathi/internal/models"
)

// AckResponse is returned by the read endpoints. Updated is only set by
// read-all.
type AckResponse struct {
	Acknowledged bool `json:"acknowledged"`
	Updated      *int `json:"updated,omitempty"`
}

// ListNotifications handles GET /api/v1/tourists/{touristID}/notifications.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	touristID, ok := touristParam(w, r)
	if !ok {
		return
	}
	items, err := h.notifications.List(r.Context(), touristID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []*models.Notification{}
	}
	n := len(items)
	respondData(w, r, items, &n)
}

// MarkNotificationRead handles
// POST /api/v1/tourists/{touristID}/notifications/{id}/read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	touristID, ok := touristParam(w, r)
	if !ok {
		return
	}
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if _, err := h.notifications.MarkRead(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	if h.audit != nil {
		h.audit.NotificationRead(r.Context(), audit.SourceFromRequest(r), touristID, id)
	}
	writeJSON(w, r, http.StatusOK, &AckResponse{Acknowledged: true})
}

// MarkAllNotificationsRead handles
// POST /api/v1/tourists/{touristID}/notifications/read-all.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	touristID, ok := touristParam(w, r)
	if !ok {
		return
	}
	n, err := h.notifications.MarkAllRead(r.Context(), touristID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if h.audit != nil {
		h.audit.NotificationsReadAll(r.Context(), audit.SourceFromRequest(r), touristID, n)
	}
	writeJSON(w, r, http.StatusOK, &AckResponse{Acknowledged: true, Updated: &n})
}
