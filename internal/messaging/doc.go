// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

/*
Package messaging connects the alert pipeline to external brokers.

Outbound, every created alert can be fanned out beyond the local process:

  - NATSPublisher publishes to a core NATS subject through watermill so
    other SafarSathi instances can push it to their own WebSocket clients.
  - RabbitPublisher publishes to a durable fanout exchange for downstream
    consumers such as SMS gateways or case management.

Both implement alerting.Publisher and are registered with the alert
service's MultiPublisher.

Inbound:

  - NATSBridge subscribes to the alert subject and hands alerts published
    by other instances to the local WebSocket hub. Messages carry an
    "origin" header; an instance ignores its own.
  - MQTTIngest subscribes to safarsathi/tourist/+/location and feeds
    device pings into the detection engine.

EmbeddedServer runs an in-process NATS server for single-node deployments.
JetStream is off: alerts are already persisted in DuckDB, so cross-instance
delivery is best effort like every other broadcast.

NATSBridge and MQTTIngest implement suture.Service.
*/
package messaging
