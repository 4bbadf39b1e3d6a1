package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sincov/airmon-go/internal/models"
	"github.com/sincov/airmon-go/internal/services"
)

type stubPredictionProvider struct {
	prediction models.Prediction
	err        error
	horizon    time.Duration
}

func (s *stubPredictionProvider) Predict(_ context.Context, _ int64, horizon time.Duration) (models.Prediction, error) {
	s.horizon = horizon
	return s.prediction, s.err
}

type stubPredictionHistory struct {
	predictions []models.Prediction
}

func (s *stubPredictionHistory) RecentPredictions(_ context.Context, _ int64, _ int) ([]models.Prediction, error) {
	return s.predictions, nil
}

func predictRouter(provider PredictionProvider) *gin.Engine {
	return predictRouterWithHistory(provider, &stubPredictionHistory{})
}

func predictRouterWithHistory(provider PredictionProvider, history PredictionHistory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewPredictHandler(provider, history, time.Hour)
	router.GET("/api/v1/predict/:id", h.Predict)
	router.GET("/api/v1/predict/:id/history", h.History)
	return router
}

func TestPredictHandler(t *testing.T) {
	provider := &stubPredictionProvider{prediction: models.Prediction{
		StationID:      6,
		GeneratedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		HorizonSeconds: 3600,
		PredictedValue: 18.43718,
		Category:       models.CategoryModerate,
		Confidence:     models.ConfidenceHigh,
	}}
	router := predictRouter(provider)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/predict/6", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp PredictionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(6), resp.StationID)
	assert.Equal(t, 18.44, resp.PredictedValue)
	assert.Equal(t, "MODERATE", resp.Category)
	assert.Equal(t, "HIGH", resp.Confidence)
	assert.Equal(t, time.Hour, provider.horizon)
}

func TestPredictHandlerCustomHorizon(t *testing.T) {
	provider := &stubPredictionProvider{}
	router := predictRouter(provider)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/predict/6?horizon_seconds=7200", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2*time.Hour, provider.horizon)
}

func TestPredictHandlerBadInput(t *testing.T) {
	router := predictRouter(&stubPredictionProvider{})

	tests := []struct {
		name string
		path string
	}{
		{"non-numeric id", "/api/v1/predict/abc"},
		{"zero id", "/api/v1/predict/0"},
		{"negative horizon", "/api/v1/predict/6?horizon_seconds=-1"},
		{"non-numeric horizon", "/api/v1/predict/6?horizon_seconds=soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestPredictHandlerHistory(t *testing.T) {
	history := &stubPredictionHistory{predictions: []models.Prediction{
		{
			StationID:      6,
			GeneratedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
			HorizonSeconds: 3600,
			PredictedValue: 41.267,
			Category:       models.CategoryUnhealthySensitive,
			Confidence:     models.ConfidenceMedium,
		},
	}}
	router := predictRouterWithHistory(&stubPredictionProvider{}, history)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/predict/6/history", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data  []PredictionResponse `json:"data"`
		Total int                  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, 41.27, resp.Data[0].PredictedValue)
	assert.Equal(t, "UNHEALTHY_SENSITIVE", resp.Data[0].Category)
}

func TestPredictHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("%w: station 9", services.ErrStationNotFound), http.StatusNotFound},
		{"inactive", fmt.Errorf("%w: station 2", services.ErrStationInactive), http.StatusConflict},
		{"unavailable", fmt.Errorf("%w: empty window", services.ErrPredictionUnavailable), http.StatusUnprocessableEntity},
		{"timeout", fmt.Errorf("%w: window", services.ErrTimeout), http.StatusGatewayTimeout},
		{"horizon out of range", fmt.Errorf("%w: horizon", services.ErrInvalidRange), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := predictRouter(&stubPredictionProvider{err: tt.err})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/predict/6", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
