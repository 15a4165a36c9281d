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
	"github.com/vedantlahane/safarsathi/internal/logging"
	"github.com/vedantlahane/safarsathi/internal/models"
	"github.com/vedantlahane/safarsathi/internal/validation"
)

// SOSStatusMessage is the fixed acknowledgement returned to the device.
const SOSStatusMessage = "SOS Alert initiated. Emergency response notified."

// SOSResponse is the body of a successful SOS call.
type SOSResponse struct {
	Status string        `json:"status"`
	Alert  *models.Alert `json:"alert"`
}

// touristParam reads and validates the {touristID} path parameter. It writes
// the 400 response itself and reports false on failure.
func touristParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "touristID")
	if verr := validation.ValidateTouristID(id); verr != nil {
		respondValidation(w, r, verr)
		return "", false
	}
	return id, true
}

// LocationUpdate handles POST /api/v1/action/location/{touristID}.
func (h *Handler) LocationUpdate(w http.ResponseWriter, r *http.Request) {
	touristID, ok := touristParam(w, r)
	if !ok {
		return
	}

	var ping models.LocationPing
	if err := decodeJSON(w, r, &ping, false); err != nil {
		respondServiceError(w, r, err)
		return
	}
	if verr := validation.ValidateStruct(&ping); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	ctx := logging.ContextWithTouristID(r.Context(), touristID)
	result, err := h.locations.ProcessLocation(ctx, touristID, &ping)
	if err != nil {
		respondServiceError(w, r.WithContext(ctx), err)
		return
	}
	logging.Ctx(ctx).Debug().
		Int("alerts", len(result.Alerts)).
		Float64("safety_score", result.SafetyScore).
		Msg("location processed")

	w.WriteHeader(http.StatusNoContent)
}

// SOS handles POST /api/v1/action/sos/{touristID}. The body is optional; a
// request without coordinates raises an alert with an unknown location.
func (h *Handler) SOS(w http.ResponseWriter, r *http.Request) {
	touristID, ok := touristParam(w, r)
	if !ok {
		return
	}

	var req models.SOSRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		respondServiceError(w, r, err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}
	if (req.Lat == nil) != (req.Lng == nil) {
		respondServiceError(w, r, fmt.Errorf("lat and lng must be sent together: %w", models.ErrInvalidInput))
		return
	}

	ctx := logging.ContextWithTouristID(r.Context(), touristID)
	alert, err := h.alerts.HandleSOS(ctx, touristID, req.Point())
	if err != nil {
		respondServiceError(w, r.WithContext(ctx), err)
		return
	}
	logging.Ctx(ctx).Warn().Int64("alert_id", alert.ID).Msg("SOS raised")
	if h.audit != nil {
		h.audit.AlertRaised(ctx, audit.SourceFromRequest(r), alert)
	}

	writeJSON(w, r, http.StatusOK, &SOSResponse{Status: SOSStatusMessage, Alert: alert})
}
