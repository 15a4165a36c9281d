// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

/*
Package supervisor runs the long-lived SafarSathi services under a suture v4
tree.

	root ("safarsathi")
	├── data-layer
	│   ├── zone-cache-refresher
	│   ├── audit-logger (retention cleanup, drains on shutdown)
	│   └── nats-server (embedded, when enabled)
	├── messaging-layer
	│   ├── websocket-hub
	│   ├── nats-alert-bridge (when NATS is enabled)
	│   └── mqtt-location-ingest (when MQTT is enabled)
	└── api-layer
	    ├── http-server
	    └── alert-dispatch (drains notifier deliveries on shutdown)

Each layer restarts its own children. A broker outage that keeps the NATS
bridge cycling does not touch the HTTP server.

Supervisor events go through sutureslog into the zerolog pipeline:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
	err = tree.Serve(ctx)

Serve returns once ctx is canceled and every service has stopped or the
shutdown timeout expired; UnstoppedServiceReport lists the stragglers.
*/
package supervisor
