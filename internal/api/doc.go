// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

/*
Package api serves the SafarSathi HTTP interface on a chi router.

Routes (all under /api/v1):

	POST  /action/location/{touristID}                     location ping, 204
	POST  /action/sos/{touristID}                          raise an SOS alert
	GET   /alerts?scope=active|recent|all&limit=n          alert queries
	GET   /alerts/{id}
	PATCH /alerts/{id}/status                              {"status":"ACKNOWLEDGED"}
	GET   /tourists/{touristID}/alerts
	GET   /tourists/{touristID}/notifications
	POST  /tourists/{touristID}/notifications/{id}/read
	POST  /tourists/{touristID}/notifications/read-all
	GET   /audit?type=&actor=&target_type=&target_id=&limit= audit trail
	GET   /ws                                              live alert stream
	GET   /health/live, /health/ready

plus GET /metrics for Prometheus.

Query endpoints wrap their payload in models.APIResponse. The action
endpoints keep the bare bodies device clients already parse. Every error
uses the APIResponse envelope with one of VALIDATION_ERROR, NOT_FOUND,
RATE_LIMIT_EXCEEDED, SERVICE_UNAVAILABLE or INTERNAL_ERROR.
*/
package api
