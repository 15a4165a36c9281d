// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vedantlahane/safarsathi/internal/middleware"
)

// Router assembles the chi route tree.
type Router struct {
	handler *Handler
	chiMW   *ChiMiddleware
}

// NewRouter creates a router. A nil mw uses the default middleware config.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMW: mw}
}

// Setup builds the http.Handler.
//
// Global middleware runs on every route. Health probes and /metrics are
// neither rate limited nor counted.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.chiMW.CORS())
	r.Use(middleware.RequestLogger)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, CodeNotFound, "Route not found", nil, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil, nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	h := rt.handler
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health/live", h.HealthLive)
		r.Get("/health/ready", h.HealthReady)

		r.Group(func(r chi.Router) {
			r.Use(middleware.PrometheusMetrics)
			r.Use(rt.chiMW.RateLimit())

			r.Route("/action", func(r chi.Router) {
				r.Post("/location/{touristID}", h.LocationUpdate)
				r.Post("/sos/{touristID}", h.SOS)
			})

			r.Route("/alerts", func(r chi.Router) {
				r.Get("/", h.ListAlerts)
				r.Get("/{id}", h.GetAlert)
				r.Patch("/{id}/status", h.UpdateAlertStatus)
			})

			r.Route("/tourists/{touristID}", func(r chi.Router) {
				r.Get("/alerts", h.TouristAlerts)
				r.Get("/notifications", h.ListNotifications)
				r.Post("/notifications/read-all", h.MarkAllNotificationsRead)
				r.Post("/notifications/{id}/read", h.MarkNotificationRead)
			})

			r.Get("/audit", h.ListAuditEvents)
			r.Get("/ws", h.WebSocket)
		})
	})

	return r
}
