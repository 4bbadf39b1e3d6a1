package services

import (
	"errors"
)

// Sentinel errors for the aggregation and prediction pipeline. Aggregator
// and Predictor errors stay internal: PredictionService translates them
// into the smaller set the API layer is allowed to see (ErrStationNotFound,
// ErrStationInactive, ErrPredictionUnavailable, ErrTimeout).
var (
	// ErrInvalidRange is returned for empty/inverted windows or a
	// non-positive bucket size.
	ErrInvalidRange = errors.New("invalid time range")

	// ErrInsufficientData is returned when a window contains no raw
	// reports at all, leaving no anchor for interpolation.
	ErrInsufficientData = errors.New("insufficient data in window")

	// ErrInsufficientHistory is returned when the aggregated series is
	// too short to fit a trend.
	ErrInsufficientHistory = errors.New("insufficient history for estimate")

	ErrStationNotFound  = errors.New("station not found")
	ErrStationInactive  = errors.New("station inactive")
	ErrStoreUnavailable = errors.New("report store unavailable")

	// ErrPredictionUnavailable wraps the two insufficiency cases at the
	// service boundary.
	ErrPredictionUnavailable = errors.New("prediction unavailable")

	ErrTimeout = errors.New("deadline exceeded")
)
