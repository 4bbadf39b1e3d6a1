package models

import (
	"time"
)

// Report is a single immutable station measurement. PM25 is nil when the
// sensor reported a fault for that interval. Reports are append-only:
// retransmissions share (station_id, timestamp, source) and the last one
// received wins during aggregation.
type Report struct {
	ID        int64     `json:"id" db:"id"`
	StationID int64     `json:"station_id" db:"station_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	PM25      *float64  `json:"pm25" db:"pm25"`
	Source    string    `json:"source" db:"source"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AggregatedPoint is one bucket of the aggregated series. Derived and
// ephemeral: recomputed from reports on demand, optionally cached.
// Interpolated marks buckets that had no raw samples and were filled
// from their neighbors.
type AggregatedPoint struct {
	StationID    int64     `json:"station_id"`
	Timestamp    time.Time `json:"timestamp"`
	Value        float64   `json:"value"`
	SampleCount  int       `json:"sample_count"`
	Interpolated bool      `json:"interpolated"`
}

// DailyReport is the persisted per-station daily PM2.5 summary.
type DailyReport struct {
	ID        int64     `json:"id" db:"id"`
	StationID int64     `json:"station_id" db:"station_id"`
	Date      time.Time `json:"date" db:"date"`
	Average   float64   `json:"average" db:"avg"`
	Status    string    `json:"status" db:"status"`
	Trend     string    `json:"trend" db:"trend"`
}
