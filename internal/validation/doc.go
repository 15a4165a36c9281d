// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

// Package validation checks inbound requests with go-playground/validator.
//
// Rules live in struct tags on the models (validate:"required,latitude").
// Field names in messages come from the json tag, so a missing latitude
// reads "lat is required" whether the ping arrived over HTTP or MQTT.
//
//	if verr := validation.ValidateStruct(&ping); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
//
// *RequestValidationError unwraps to models.ErrInvalidInput.
package validation
