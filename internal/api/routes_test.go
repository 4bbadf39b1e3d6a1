package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sincov/airmon-go/internal/api/handlers"
	"github.com/sincov/airmon-go/internal/logging"
	"github.com/sincov/airmon-go/internal/models"
	"github.com/sincov/airmon-go/internal/services"
)

type routeStationStore struct{}

func (routeStationStore) GetStation(_ context.Context, id int64) (*models.Station, error) {
	return &models.Station{ID: id, Name: "Kennedy", Active: true}, nil
}

func (routeStationStore) ListStationSummaries(_ context.Context) ([]models.StationSummary, error) {
	return []models.StationSummary{{ID: 1, Name: "Kennedy", Active: true}}, nil
}

type routeReportStore struct{}

func (routeReportStore) FetchReports(_ context.Context, stationID int64, from, _ time.Time) ([]models.Report, error) {
	v := 11.0
	return []models.Report{{StationID: stationID, Timestamp: from.Add(30 * time.Minute), PM25: &v, Source: "rmcab"}}, nil
}

func (routeReportStore) InsertReport(_ context.Context, rep models.Report) (models.Report, error) {
	rep.ID = 1
	return rep, nil
}

type routeDailyLister struct{}

func (routeDailyLister) ListDailyReports(_ context.Context, _ int64, _ int) ([]models.DailyReport, error) {
	return nil, nil
}

type routePredictionHistory struct{}

func (routePredictionHistory) RecentPredictions(_ context.Context, _ int64, _ int) ([]models.Prediction, error) {
	return nil, nil
}

type routePredictor struct{}

func (routePredictor) Predict(_ context.Context, stationID int64, horizon time.Duration) (models.Prediction, error) {
	return models.Prediction{
		StationID:      stationID,
		GeneratedAt:    time.Now().UTC(),
		Horizon:        horizon,
		HorizonSeconds: int64(horizon.Seconds()),
		PredictedValue: 11.0,
		Category:       models.CategoryGood,
		Confidence:     models.ConfidenceHigh,
	}, nil
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	logger := logging.New("error", "test")
	aggregator := services.NewAggregator(routeReportStore{}, logger)

	SetupRoutes(router, "airmon-test", Handlers{
		Health:   handlers.NewHealthHandler(nil, nil),
		Stations: handlers.NewStationsHandler(routeStationStore{}, aggregator, nil, time.Hour),
		Reports:  handlers.NewReportsHandler(routeReportStore{}, routeDailyLister{}, routeStationStore{}, nil),
		Predict:  handlers.NewPredictHandler(routePredictor{}, routePredictionHistory{}, time.Hour),
	})
	return router
}

func TestRoutesRegistered(t *testing.T) {
	router := testRouter()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/v1/stations", http.StatusOK},
		{http.MethodGet, "/api/v1/stations/1", http.StatusOK},
		{http.MethodGet, "/api/v1/stations/1/reports", http.StatusOK},
		{http.MethodGet, "/api/v1/stations/1/aggregate", http.StatusOK},
		{http.MethodGet, "/api/v1/predict/1", http.StatusOK},
		{http.MethodGet, "/api/v1/predict/1/history", http.StatusOK},
		{http.MethodGet, "/api/v1/reports/daily?station_id=1", http.StatusOK},
		{http.MethodGet, "/api/v1/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.want, w.Code, "%s %s", tt.method, tt.path)
	}
}

func TestRequestIDHeader(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// A caller-supplied id is echoed back untouched.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}
