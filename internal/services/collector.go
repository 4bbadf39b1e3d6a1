package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/sincov/airmon-go/internal/logging"
	"github.com/sincov/airmon-go/internal/models"
)

// ReportSink receives collected reports.
type ReportSink interface {
	InsertReport(ctx context.Context, rep models.Report) (models.Report, error)
}

// CacheInvalidator drops cached aggregates for a station after new data
// arrives.
type CacheInvalidator interface {
	InvalidateStation(ctx context.Context, stationID int64) error
}

// CollectorConfig configures the upstream ingest.
type CollectorConfig struct {
	SourceURL    string
	SourceName   string
	FetchTimeout time.Duration
}

// upstreamReading is one measurement in the source feed. A null pm25
// marks a sensor fault and is stored as such.
type upstreamReading struct {
	StationID int64     `json:"station_id"`
	Timestamp time.Time `json:"timestamp"`
	PM25      *float64  `json:"pm25"`
}

// CollectorService pulls readings from the upstream monitoring network
// and appends them to the report log. The upstream call runs behind a
// circuit breaker so a flapping source does not pile up requests.
type CollectorService struct {
	cfg         CollectorConfig
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker
	sink        ReportSink
	invalidator CacheInvalidator
	logger      *logrus.Entry
}

func NewCollectorService(cfg CollectorConfig, sink ReportSink, invalidator CacheInvalidator, logger *logging.Logger) *CollectorService {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.SourceName == "" {
		cfg.SourceName = "upstream"
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "collector",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &CollectorService{
		cfg:         cfg,
		client:      &http.Client{Timeout: cfg.FetchTimeout},
		breaker:     breaker,
		sink:        sink,
		invalidator: invalidator,
		logger:      logger.WithComponent("collector"),
	}
}

// Collect fetches the last lookbackHours of readings and appends them.
// Duplicate retransmissions are stored as-is; the aggregator resolves
// them last-write-wins.
func (c *CollectorService) Collect(ctx context.Context, lookbackHours int) error {
	if lookbackHours <= 0 {
		lookbackHours = 1
	}

	readings, err := c.fetch(ctx, lookbackHours)
	if err != nil {
		return err
	}

	touched := make(map[int64]struct{})
	inserted := 0
	for _, reading := range readings {
		rep := models.Report{
			StationID: reading.StationID,
			Timestamp: reading.Timestamp.UTC(),
			PM25:      reading.PM25,
			Source:    c.cfg.SourceName,
		}
		if _, err := c.sink.InsertReport(ctx, rep); err != nil {
			c.logger.WithError(err).WithField("station_id", rep.StationID).Warn("Failed to store collected report")
			continue
		}
		touched[rep.StationID] = struct{}{}
		inserted++
	}

	// Invalidate synchronously so the next prediction recomputes from
	// the fresh log.
	for stationID := range touched {
		if err := c.invalidator.InvalidateStation(ctx, stationID); err != nil {
			c.logger.WithError(err).WithField("station_id", stationID).Warn("Cache invalidation failed")
		}
	}

	c.logger.WithFields(logrus.Fields{
		"fetched":  len(readings),
		"inserted": inserted,
		"stations": len(touched),
	}).Info("Collection cycle complete")

	return nil
}

func (c *CollectorService) fetch(ctx context.Context, lookbackHours int) ([]upstreamReading, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		url := fmt.Sprintf("%s?hours=%d", c.cfg.SourceURL, lookbackHours)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		var readings []upstreamReading
		if err := json.Unmarshal(body, &readings); err != nil {
			return nil, fmt.Errorf("failed to decode upstream feed: %w", err)
		}
		return readings, nil
	})
	if err != nil {
		return nil, fmt.Errorf("upstream fetch failed: %w", err)
	}

	return result.([]upstreamReading), nil
}
