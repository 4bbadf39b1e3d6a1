package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sincov/airmon-go/internal/models"
)

// PredictionProvider is implemented by services.PredictionService.
type PredictionProvider interface {
	Predict(ctx context.Context, stationID int64, horizon time.Duration) (models.Prediction, error)
}

// PredictionHistory reads back audit records, implemented by
// database.PredictionRepository.
type PredictionHistory interface {
	RecentPredictions(ctx context.Context, stationID int64, limit int) ([]models.Prediction, error)
}

type PredictHandler struct {
	service        PredictionProvider
	history        PredictionHistory
	defaultHorizon time.Duration
}

func NewPredictHandler(service PredictionProvider, history PredictionHistory, defaultHorizon time.Duration) *PredictHandler {
	if defaultHorizon <= 0 {
		defaultHorizon = time.Hour
	}
	return &PredictHandler{service: service, history: history, defaultHorizon: defaultHorizon}
}

// PredictionResponse is the wire shape of a prediction. The value is
// rounded to two decimals for presentation; the service keeps full
// precision internally.
type PredictionResponse struct {
	StationID      int64     `json:"station_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	HorizonSeconds int64     `json:"horizon_seconds"`
	PredictedValue float64   `json:"predicted_value"`
	Category       string    `json:"category"`
	Confidence     string    `json:"confidence"`
}

// Predict returns the PM2.5 prediction for a station.
func (h *PredictHandler) Predict(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	horizon := h.defaultHorizon
	if raw := c.Query("horizon_seconds"); raw != "" {
		seconds, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || seconds <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid horizon_seconds parameter"})
			return
		}
		horizon = time.Duration(seconds) * time.Second
	}

	prediction, err := h.service.Predict(c.Request.Context(), id, horizon)
	if err != nil {
		abortWithError(c, err)
		return
	}

	rounded, _ := decimal.NewFromFloat(prediction.PredictedValue).Round(2).Float64()

	c.JSON(http.StatusOK, PredictionResponse{
		StationID:      prediction.StationID,
		GeneratedAt:    prediction.GeneratedAt,
		HorizonSeconds: prediction.HorizonSeconds,
		PredictedValue: rounded,
		Category:       string(prediction.Category),
		Confidence:     string(prediction.Confidence),
	})
}

// History returns recent audit records for a station, newest first.
func (h *PredictHandler) History(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	predictions, err := h.history.RecentPredictions(c.Request.Context(), id, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	data := make([]PredictionResponse, len(predictions))
	for i, p := range predictions {
		rounded, _ := decimal.NewFromFloat(p.PredictedValue).Round(2).Float64()
		data[i] = PredictionResponse{
			StationID:      p.StationID,
			GeneratedAt:    p.GeneratedAt,
			HorizonSeconds: p.HorizonSeconds,
			PredictedValue: rounded,
			Category:       string(p.Category),
			Confidence:     string(p.Confidence),
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": data, "total": len(data)})
}
