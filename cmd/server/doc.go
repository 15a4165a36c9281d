// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

/*
Command server runs the SafarSathi safety pipeline.

Startup order:

 1. Configuration: koanf (defaults, config.yaml, .env, SAFARSATHI_* env vars)
 2. Logging: zerolog
 3. DuckDB store and schema
 4. Sequence generator (memory, badger, duckdb, redis or postgres)
 5. Active zone cache, optionally shared through Redis
 6. Alert fan-out: WebSocket hub, NATS, RabbitMQ, operator webhook
 7. Detection engine
 8. Supervisor tree with the HTTP server, hub, NATS bridge, MQTT ingest and
    zone refresher

SIGINT or SIGTERM cancels the tree; each service gets the configured shutdown
timeout to drain.
*/
package main
