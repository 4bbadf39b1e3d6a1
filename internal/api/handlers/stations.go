package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sincov/airmon-go/internal/models"
	"github.com/sincov/airmon-go/internal/services"
)

// StationStore is the station read surface, implemented by
// database.StationRepository.
type StationStore interface {
	GetStation(ctx context.Context, id int64) (*models.Station, error)
	ListStationSummaries(ctx context.Context) ([]models.StationSummary, error)
}

// WindowCache is the handler-facing slice of the aggregate cache.
type WindowCache interface {
	GetWindow(ctx context.Context, stationID int64, from, to time.Time, bucket time.Duration) ([]models.AggregatedPoint, bool)
	SetWindow(ctx context.Context, stationID int64, from, to time.Time, bucket time.Duration, points []models.AggregatedPoint)
}

type StationsHandler struct {
	stations   StationStore
	aggregator *services.Aggregator
	cache      WindowCache
	bucketSize time.Duration
}

func NewStationsHandler(stations StationStore, aggregator *services.Aggregator, cache WindowCache, bucketSize time.Duration) *StationsHandler {
	if bucketSize <= 0 {
		bucketSize = time.Hour
	}
	return &StationsHandler{
		stations:   stations,
		aggregator: aggregator,
		cache:      cache,
		bucketSize: bucketSize,
	}
}

// StationListResponse wraps the stations listing.
type StationListResponse struct {
	Data      []models.StationSummary `json:"data"`
	Total     int                     `json:"total"`
	Timestamp time.Time               `json:"timestamp"`
}

// List returns every station with its latest measurement.
func (h *StationsHandler) List(c *gin.Context) {
	summaries, err := h.stations.ListStationSummaries(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, StationListResponse{
		Data:      summaries,
		Total:     len(summaries),
		Timestamp: time.Now().UTC(),
	})
}

// Get returns a single station.
func (h *StationsHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	station, err := h.stations.GetStation(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, station)
}

// AggregateResponse wraps an aggregated window.
type AggregateResponse struct {
	StationID  int64                    `json:"station_id"`
	From       time.Time                `json:"from"`
	To         time.Time                `json:"to"`
	BucketSize string                   `json:"bucket_size"`
	Points     []models.AggregatedPoint `json:"points"`
	Cached     bool                     `json:"cached"`
}

// Aggregate returns the dense bucketed series for a station window.
func (h *StationsHandler) Aggregate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	window, ok := parseHours(c, 24, 24*14)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	to := time.Now().UTC().Truncate(h.bucketSize)
	from := to.Add(-window)

	if h.cache != nil {
		if points, hit := h.cache.GetWindow(ctx, id, from, to, h.bucketSize); hit {
			c.JSON(http.StatusOK, AggregateResponse{
				StationID: id, From: from, To: to,
				BucketSize: h.bucketSize.String(), Points: points, Cached: true,
			})
			return
		}
	}

	points, err := h.aggregator.Window(ctx, id, from, to, h.bucketSize)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if h.cache != nil {
		h.cache.SetWindow(ctx, id, from, to, h.bucketSize, points)
	}

	c.JSON(http.StatusOK, AggregateResponse{
		StationID: id, From: from, To: to,
		BucketSize: h.bucketSize.String(), Points: points, Cached: false,
	})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid station id"})
		return 0, false
	}
	return id, true
}

func parseHours(c *gin.Context, def, max int) (time.Duration, bool) {
	raw := c.DefaultQuery("hours", strconv.Itoa(def))
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 || hours > max {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hours parameter"})
		return 0, false
	}
	return time.Duration(hours) * time.Hour, true
}
