// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

/*
Package websocket pushes alerts to live dashboards.

The hub-and-spoke layout is the usual gorilla/websocket one: a single Hub
goroutine owns the client set, and every Client runs a readPump and a
writePump.

	┌──────────┐
	│   Hub    │ ← alerts from alerting.Service and the NATS bridge
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│ admin    │ tourist:T1        │
	│ Client1  │ Client2 │ Client3 │
	└──────────┴─────────┴─────────┘

Rooms:

Clients join and leave rooms by sending

	{"type":"join","room":"admin"}
	{"type":"leave","room":"tourist:T1"}

Every alert reaches every client as

	{"type":"alert","data":{...}}

exactly once. Members of the alert's tourist room receive their copy tagged
with "room", so a tourist's device can tell its own alerts apart.

Hub implements alerting.Publisher, so it is registered with the alert
service's MultiPublisher like any other transport. Delivery is best effort:
a full hub queue or a slow client drops messages and counts them in
websocket_messages_dropped_total.
*/
package websocket
