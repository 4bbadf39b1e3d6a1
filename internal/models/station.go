package models

import (
	"time"
)

// Station represents a fixed air-quality monitoring station.
// Stations are created once at seed time and are never deleted,
// only deactivated.
type Station struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Latitude    float64   `json:"latitude" db:"latitude"`
	Longitude   float64   `json:"longitude" db:"longitude"`
	Active      bool      `json:"active" db:"active"`
	Description string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// StationSummary represents a station together with its most recent
// PM2.5 measurement, used by the stations listing endpoint.
type StationSummary struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	Active       bool       `json:"active"`
	LatestValue  *float64   `json:"latest_value,omitempty"`
	LatestSample *time.Time `json:"latest_sample,omitempty"`
}
