// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

// Package services adapts components with non-suture lifecycles to
// suture.Service.
//
// The hub, NATS bridge, MQTT ingest and zone refresher already implement
// Serve(ctx) error and are added to the tree directly. HTTPServerService
// covers the ListenAndServe/Shutdown pair and ShutdownService covers
// components that are started eagerly and only need an orderly stop.
package services
