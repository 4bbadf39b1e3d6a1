package models

import (
	"time"
)

// Category is the qualitative air-quality band for a PM2.5 value,
// following the standard EPA PM2.5 breakpoints.
type Category string

const (
	CategoryGood               Category = "GOOD"
	CategoryModerate           Category = "MODERATE"
	CategoryUnhealthySensitive Category = "UNHEALTHY_SENSITIVE"
	CategoryUnhealthy          Category = "UNHEALTHY"
	CategoryVeryUnhealthy      Category = "VERY_UNHEALTHY"
	CategoryHazardous          Category = "HAZARDOUS"
)

// Confidence reflects how complete the input series was, not how
// accurate the model is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Severity orders categories from GOOD (0) to HAZARDOUS (5) so callers
// can compare bands, e.g. for alert thresholds.
func (c Category) Severity() int {
	switch c {
	case CategoryGood:
		return 0
	case CategoryModerate:
		return 1
	case CategoryUnhealthySensitive:
		return 2
	case CategoryUnhealthy:
		return 3
	case CategoryVeryUnhealthy:
		return 4
	case CategoryHazardous:
		return 5
	}
	return -1
}

// Prediction is the forward-looking PM2.5 estimate returned to the API
// layer. Stateless: recomputed per request, persisted only as an audit
// record.
type Prediction struct {
	StationID      int64         `json:"station_id"`
	GeneratedAt    time.Time     `json:"generated_at"`
	Horizon        time.Duration `json:"-"`
	HorizonSeconds int64         `json:"horizon_seconds"`
	PredictedValue float64       `json:"predicted_value"`
	Category       Category      `json:"category"`
	Confidence     Confidence    `json:"confidence"`
}

// Breakpoint maps a half-open PM2.5 range [Low, High) to a category.
// A table of breakpoints must partition [0, +Inf) with no gaps.
type Breakpoint struct {
	Low      float64  `json:"low"`
	High     float64  `json:"high"` // math.Inf(1) for the last band
	Category Category `json:"category"`
}

// Subscription is a notification target for air-quality alerts.
type Subscription struct {
	ID         int64 `json:"id" db:"id"`
	ChatID     int64 `json:"chat_id" db:"chat_id"`
	Subscribed bool  `json:"subscribed" db:"subscribed"`
}

// Alert records a notification sent for a station prediction.
type Alert struct {
	ID        int64     `json:"id" db:"id"`
	StationID int64     `json:"station_id" db:"station_id"`
	Category  Category  `json:"category" db:"category"`
	Message   string    `json:"message" db:"message"`
	SentAt    time.Time `json:"sent_at" db:"sent_at"`
}
