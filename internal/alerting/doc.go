// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

/*
Package alerting turns alert drafts into persisted, fanned-out alerts.

Service.CreateAlert is the single path every alert takes:

 1. take the next "alertId" from the sequence generator
 2. default the status to OPEN and stamp the timestamps
 3. save through AlertStore
 4. create the tourist's in-app notification (when a tourist id is set)
 5. publish on topic "alerts" (best effort, errors logged and counted)
 6. hand the alert to every enabled Notifier in the background

Steps 1-4 are synchronous and their errors are returned. A failed
broadcast or notifier never fails the alert.

Notifications owns the per-tourist notification records. WebhookNotifier
forwards alerts to an operator endpoint with rate limiting and a circuit
breaker.
*/
package alerting
