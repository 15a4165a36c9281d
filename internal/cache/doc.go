// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

/*
Package cache keeps the active risk zones close to the ping path.

Every location ping needs the full list of active zones. ZoneCache sits in
front of the zone store as a read-through decorator:

	local TTL cache -> optional Redis layer -> database

The Redis layer lets several instances share one warm copy. ZoneRefresher
is a supervised service that reloads the list before it expires, so pings
rarely pay for a database round trip.

Cache is the generic TTL map underneath; it can hold anything.
*/
package cache
