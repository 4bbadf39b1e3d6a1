package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/sirupsen/logrus"

	"github.com/sincov/airmon-go/internal/logging"
	"github.com/sincov/airmon-go/internal/models"
)

// StationLister enumerates stations for the batch jobs.
type StationLister interface {
	ListStations(ctx context.Context) ([]models.Station, error)
}

// DailyReportStore persists daily summaries.
type DailyReportStore interface {
	UpsertDailyReport(ctx context.Context, dr models.DailyReport) error
}

// Trend labels for the daily summary.
const (
	TrendRising  = "RISING"
	TrendFalling = "FALLING"
	TrendStable  = "STABLE"
)

// DailyReportService produces one summary row per station per day: the
// day's mean PM2.5, its category, and a trend label comparing the recent
// moving average against the full-day mean.
type DailyReportService struct {
	stations   StationLister
	aggregator *Aggregator
	predictor  *Predictor
	store      DailyReportStore
	smaWindow  int
	logger     *logrus.Entry
}

func NewDailyReportService(
	stations StationLister,
	aggregator *Aggregator,
	predictor *Predictor,
	store DailyReportStore,
	smaWindow int,
	logger *logging.Logger,
) *DailyReportService {
	if smaWindow < 1 {
		smaWindow = 4
	}
	return &DailyReportService{
		stations:   stations,
		aggregator: aggregator,
		predictor:  predictor,
		store:      store,
		smaWindow:  smaWindow,
		logger:     logger.WithComponent("daily_reports"),
	}
}

// GenerateDaily builds and persists summaries for the UTC day containing
// the given instant. Stations without any reports that day are skipped.
func (s *DailyReportService) GenerateDaily(ctx context.Context, day time.Time) error {
	stations, err := s.stations.ListStations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stations for daily reports: %w", err)
	}

	dayStart := day.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	generated := 0
	for _, st := range stations {
		if !st.Active {
			continue
		}

		series, err := s.aggregator.Window(ctx, st.ID, dayStart, dayEnd, time.Hour)
		if err != nil {
			if errors.Is(err, ErrInsufficientData) {
				continue
			}
			return err
		}

		report := s.summarize(st.ID, dayStart, series)
		if err := s.store.UpsertDailyReport(ctx, report); err != nil {
			return err
		}
		generated++
	}

	s.logger.WithFields(logrus.Fields{
		"date":      dayStart.Format("2006-01-02"),
		"generated": generated,
	}).Info("Daily reports generated")

	return nil
}

func (s *DailyReportService) summarize(stationID int64, date time.Time, series []models.AggregatedPoint) models.DailyReport {
	var sum float64
	values := make([]float64, len(series))
	for i, pt := range series {
		sum += pt.Value
		values[i] = pt.Value
	}
	mean := sum / float64(len(series))

	return models.DailyReport{
		StationID: stationID,
		Date:      date,
		Average:   mean,
		Status:    string(s.predictor.Categorize(mean)),
		Trend:     s.trendLabel(values, mean),
	}
}

// trendLabel compares the moving average of the most recent buckets
// against the full-day mean: more than 10% apart counts as a trend.
func (s *DailyReportService) trendLabel(values []float64, dayMean float64) string {
	if len(values) < s.smaWindow || dayMean == 0 {
		return TrendStable
	}

	sma := trend.NewSmaWithPeriod[float64](s.smaWindow)
	smoothed := helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))
	if len(smoothed) == 0 {
		return TrendStable
	}
	recent := smoothed[len(smoothed)-1]

	diff := (recent - dayMean) / dayMean * 100
	switch {
	case diff > 10:
		return TrendRising
	case diff < -10:
		return TrendFalling
	default:
		return TrendStable
	}
}
