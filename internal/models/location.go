// SafarSathi - Tourist Safety Monitoring and Alerting
// Copyright 2026 SafarSathi contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedantlahane/safarsathi

package models

import (
	"time"

	"github.com/vedantlahane/safarsathi/internal/geo"
)

// LocationPing is the inbound device update. Lat and Lng are pointers so a
// missing coordinate is distinguishable from zero.
type LocationPing struct {
	Lat      *float64 `json:"lat" validate:"required,latitude"`
	Lng      *float64 `json:"lng" validate:"required,longitude"`
	Accuracy *float64 `json:"accuracy,omitempty" validate:"omitempty,gte=0"`
	Speed    *float64 `json:"speed,omitempty" validate:"omitempty,gte=0"`
	Heading  *float64 `json:"heading,omitempty" validate:"omitempty,gte=0,lte=360"`
}

// Point returns the ping position, or nil when a coordinate is missing.
func (p *LocationPing) Point() *geo.Point {
	if p == nil || p.Lat == nil || p.Lng == nil {
		return nil
	}
	return &geo.Point{Lat: *p.Lat, Lng: *p.Lng}
}

// SOSRequest carries the last known position, which may be absent.
type SOSRequest struct {
	Lat *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lng *float64 `json:"lng,omitempty" validate:"omitempty,longitude"`
}

// Point returns the SOS position, or nil when either coordinate is missing.
func (r *SOSRequest) Point() *geo.Point {
	if r == nil || r.Lat == nil || r.Lng == nil {
		return nil
	}
	return &geo.Point{Lat: *r.Lat, Lng: *r.Lng}
}

// LocationLog is the history row written for every processed ping.
type LocationLog struct {
	ID          int64     `json:"id"`
	TouristID   string    `json:"touristId"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Accuracy    *float64  `json:"accuracy,omitempty"`
	Speed       *float64  `json:"speed,omitempty"`
	Heading     *float64  `json:"heading,omitempty"`
	SafetyScore float64   `json:"safetyScore"`
	RecordedAt  time.Time `json:"recordedAt"`
}
