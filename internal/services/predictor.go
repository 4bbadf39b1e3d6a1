package services

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sincov/airmon-go/internal/logging"
	"github.com/sincov/airmon-go/internal/models"
)

// PredictorConfig is injected at construction; tests substitute alternate
// lookbacks and breakpoint tables.
type PredictorConfig struct {
	// TrendLookback caps how many of the most recent points the trend is
	// fitted over.
	TrendLookback int
	// Breakpoints must partition [0, +Inf) into half-open bands.
	Breakpoints []models.Breakpoint
}

// EstimateResult is the predictor's output for a single horizon.
type EstimateResult struct {
	Value      float64
	Category   models.Category
	Confidence models.Confidence
	Slope      float64
}

// Predictor fits a least-squares linear trend over the tail of an
// aggregated series and projects it forward. All points weigh equally;
// recency weighting is deliberately out of scope for the baseline model.
type Predictor struct {
	cfg    PredictorConfig
	logger *logrus.Entry
}

func NewPredictor(cfg PredictorConfig, logger *logging.Logger) *Predictor {
	if cfg.TrendLookback < 2 {
		cfg.TrendLookback = 24
	}
	if len(cfg.Breakpoints) == 0 {
		cfg.Breakpoints = DefaultBreakpoints()
	}
	return &Predictor{
		cfg:    cfg,
		logger: logger.WithComponent("predictor"),
	}
}

// DefaultBreakpoints returns the standard EPA PM2.5 bands. Lower bounds
// are inclusive, upper bounds exclusive, and the table covers [0, +Inf).
func DefaultBreakpoints() []models.Breakpoint {
	return []models.Breakpoint{
		{Low: 0, High: 12.0, Category: models.CategoryGood},
		{Low: 12.0, High: 35.5, Category: models.CategoryModerate},
		{Low: 35.5, High: 55.5, Category: models.CategoryUnhealthySensitive},
		{Low: 55.5, High: 150.5, Category: models.CategoryUnhealthy},
		{Low: 150.5, High: 250.5, Category: models.CategoryVeryUnhealthy},
		{Low: 250.5, High: math.Inf(1), Category: models.CategoryHazardous},
	}
}

// Estimate projects the series forward by horizon. The series must be
// dense (one point per bucket, ascending) as produced by the aggregator.
// Fewer than two points yield ErrInsufficientHistory.
func (p *Predictor) Estimate(series []models.AggregatedPoint, horizon time.Duration) (EstimateResult, error) {
	if len(series) < 2 {
		return EstimateResult{}, fmt.Errorf("%w: %d points", ErrInsufficientHistory, len(series))
	}

	tail := series
	if len(tail) > p.cfg.TrendLookback {
		tail = tail[len(tail)-p.cfg.TrendLookback:]
	}

	slope, intercept := fitLine(tail)

	last := tail[len(tail)-1]
	x := last.Timestamp.Add(horizon).Sub(tail[0].Timestamp).Seconds()
	value := intercept + slope*x
	if value < 0 || math.IsNaN(value) {
		value = 0
	}

	result := EstimateResult{
		Value:      value,
		Category:   p.Categorize(value),
		Confidence: confidence(tail),
		Slope:      slope,
	}

	p.logger.WithFields(logrus.Fields{
		"station_id": last.StationID,
		"horizon":    horizon.String(),
		"slope":      slope,
		"value":      value,
	}).Debug("Estimated trend projection")

	return result, nil
}

// Categorize maps a non-negative PM2.5 value to its band. The breakpoint
// table is total over [0, +Inf), so exactly one band always applies.
func (p *Predictor) Categorize(value float64) models.Category {
	for _, bp := range p.cfg.Breakpoints {
		if value >= bp.Low && value < bp.High {
			return bp.Category
		}
	}
	// Unreachable with a well-formed table; treat as the worst band.
	return p.cfg.Breakpoints[len(p.cfg.Breakpoints)-1].Category
}

// fitLine computes the least-squares slope and intercept with timestamps
// as x (seconds from the first point). Zero variance in x or y forces
// slope 0 instead of propagating NaN from a zero denominator.
func fitLine(points []models.AggregatedPoint) (slope, intercept float64) {
	n := float64(len(points))
	base := points[0].Timestamp

	var sumX, sumY, sumXX, sumXY float64
	for _, pt := range points {
		x := pt.Timestamp.Sub(base).Seconds()
		sumX += x
		sumY += pt.Value
		sumXX += x * x
		sumXY += x * pt.Value
	}

	meanY := sumY / n
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, meanY
	}

	if valueVariance(points, meanY) == 0 {
		return 0, meanY
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

func valueVariance(points []models.AggregatedPoint, meanY float64) float64 {
	var v float64
	for _, pt := range points {
		d := pt.Value - meanY
		v += d * d
	}
	return v
}

// confidence is a completeness heuristic, not an accuracy claim: it only
// looks at how many of the fitted buckets held real samples.
func confidence(points []models.AggregatedPoint) models.Confidence {
	sampled := 0
	for _, pt := range points {
		if !pt.Interpolated {
			sampled++
		}
	}
	ratio := float64(sampled) / float64(len(points))
	switch {
	case ratio >= 0.75:
		return models.ConfidenceHigh
	case ratio >= 0.40:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
