// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package models

import "time"

// Notification types and the default dashboard tab.
const (
	NotificationTypeAlert  = "alert"
	NotificationTypeSystem = "system"
	DefaultSourceTab       = "home"
)

// Notification is an in-app message for a tourist.
type Notification struct {
	ID        int64     `json:"id"`
	TouristID string    `json:"touristId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	SourceTab string    `json:"sourceTab"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
