package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sincov/airmon-go/internal/database"
	"github.com/sincov/airmon-go/internal/logging"
	"github.com/sincov/airmon-go/internal/models"
)

// StationStore is the station lookup slice of the persistence layer.
type StationStore interface {
	GetStation(ctx context.Context, id int64) (*models.Station, error)
}

// AggregateCache caches aggregated windows between requests. Entries are
// invalidated synchronously when a new report lands for the station.
type AggregateCache interface {
	GetWindow(ctx context.Context, stationID int64, from, to time.Time, bucket time.Duration) ([]models.AggregatedPoint, bool)
	SetWindow(ctx context.Context, stationID int64, from, to time.Time, bucket time.Duration, points []models.AggregatedPoint)
}

// PredictionAudit persists successful predictions for offline review.
type PredictionAudit interface {
	InsertPrediction(ctx context.Context, p models.Prediction) error
}

// PredictionNotifier is told about each successful prediction, e.g. to
// raise alerts for unhealthy bands.
type PredictionNotifier interface {
	NotifyPrediction(ctx context.Context, station *models.Station, p models.Prediction)
}

// PredictionServiceConfig bundles the orchestration knobs.
type PredictionServiceConfig struct {
	LookbackWindow time.Duration
	BucketSize     time.Duration
	RequestTimeout time.Duration
	MaxHorizon     time.Duration
}

// PredictionService orchestrates Aggregator then Predictor for a station
// and translates internal errors into the API-facing set. Stateless per
// call: identical stored reports yield identical predictions apart from
// GeneratedAt.
type PredictionService struct {
	cfg        PredictionServiceConfig
	stations   StationStore
	aggregator *Aggregator
	predictor  *Predictor
	cache      AggregateCache
	audit      PredictionAudit
	notifier   PredictionNotifier
	logger     *logrus.Entry

	// now is swapped in tests for deterministic windows.
	now func() time.Time
}

func NewPredictionService(
	cfg PredictionServiceConfig,
	stations StationStore,
	aggregator *Aggregator,
	predictor *Predictor,
	cache AggregateCache,
	audit PredictionAudit,
	notifier PredictionNotifier,
	logger *logging.Logger,
) *PredictionService {
	if cfg.LookbackWindow <= 0 {
		cfg.LookbackWindow = 48 * time.Hour
	}
	if cfg.BucketSize <= 0 {
		cfg.BucketSize = time.Hour
	}
	if cfg.MaxHorizon <= 0 {
		cfg.MaxHorizon = 24 * time.Hour
	}
	return &PredictionService{
		cfg:        cfg,
		stations:   stations,
		aggregator: aggregator,
		predictor:  predictor,
		cache:      cache,
		audit:      audit,
		notifier:   notifier,
		logger:     logger.WithComponent("prediction_service"),
		now:        time.Now,
	}
}

// Predict produces a PM2.5 prediction for the station at the given
// horizon. Errors are limited to ErrInvalidRange, ErrStationNotFound,
// ErrStationInactive, ErrPredictionUnavailable, ErrStoreUnavailable and
// ErrTimeout.
func (s *PredictionService) Predict(ctx context.Context, stationID int64, horizon time.Duration) (models.Prediction, error) {
	if horizon <= 0 || horizon > s.cfg.MaxHorizon {
		return models.Prediction{}, fmt.Errorf("%w: horizon %s (max %s)", ErrInvalidRange, horizon, s.cfg.MaxHorizon)
	}

	if _, ok := ctx.Deadline(); !ok && s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	station, err := s.stations.GetStation(ctx, stationID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Prediction{}, fmt.Errorf("%w: station %d", ErrStationNotFound, stationID)
		}
		return models.Prediction{}, s.translate(ctx, err)
	}
	if !station.Active {
		return models.Prediction{}, fmt.Errorf("%w: station %d", ErrStationInactive, stationID)
	}

	// Bucket-aligned window so identical stored reports hit identical
	// cache keys within a bucket interval.
	now := s.now().UTC()
	to := now.Truncate(s.cfg.BucketSize)
	from := to.Add(-s.cfg.LookbackWindow)

	series, err := s.window(ctx, stationID, from, to)
	if err != nil {
		return models.Prediction{}, s.translate(ctx, err)
	}

	estimate, err := s.predictor.Estimate(series, horizon)
	if err != nil {
		return models.Prediction{}, s.translate(ctx, err)
	}

	prediction := models.Prediction{
		StationID:      stationID,
		GeneratedAt:    now,
		Horizon:        horizon,
		HorizonSeconds: int64(horizon.Seconds()),
		PredictedValue: estimate.Value,
		Category:       estimate.Category,
		Confidence:     estimate.Confidence,
	}

	s.logger.WithFields(logrus.Fields{
		"station_id": stationID,
		"horizon":    horizon.String(),
		"value":      prediction.PredictedValue,
		"category":   prediction.Category,
		"confidence": prediction.Confidence,
	}).Info("Prediction generated")

	// Audit and alerting are best-effort and must not delay the caller.
	if s.audit != nil {
		go s.persistAudit(prediction)
	}
	if s.notifier != nil {
		go s.notify(station, prediction)
	}

	return prediction, nil
}

func (s *PredictionService) window(ctx context.Context, stationID int64, from, to time.Time) ([]models.AggregatedPoint, error) {
	if s.cache != nil {
		if points, ok := s.cache.GetWindow(ctx, stationID, from, to, s.cfg.BucketSize); ok {
			return points, nil
		}
	}

	points, err := s.aggregator.Window(ctx, stationID, from, to, s.cfg.BucketSize)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetWindow(ctx, stationID, from, to, s.cfg.BucketSize, points)
	}
	return points, nil
}

// translate collapses internal errors into the API-facing taxonomy.
func (s *PredictionService) translate(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, ErrInsufficientData) || errors.Is(err, ErrInsufficientHistory):
		return fmt.Errorf("%w: %v", ErrPredictionUnavailable, err)
	default:
		return err
	}
}

func (s *PredictionService) persistAudit(p models.Prediction) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.audit.InsertPrediction(ctx, p); err != nil {
		s.logger.WithError(err).WithField("station_id", p.StationID).Warn("Failed to persist prediction audit record")
	}
}

func (s *PredictionService) notify(station *models.Station, p models.Prediction) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.notifier.NotifyPrediction(ctx, station, p)
}
