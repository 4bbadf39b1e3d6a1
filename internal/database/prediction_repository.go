package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sincov/airmon-go/internal/models"
)

// PredictionRepository persists prediction audit records. The prediction
// pipeline itself never reads these back; they exist for offline review.
type PredictionRepository struct {
	pool DatabasePool
}

func NewPredictionRepository(pool DatabasePool) *PredictionRepository {
	return &PredictionRepository{pool: pool}
}

func (r *PredictionRepository) InsertPrediction(ctx context.Context, p models.Prediction) error {
	query := `
		INSERT INTO predictions (station_id, generated_at, horizon_seconds, predicted_value, category, confidence)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		p.StationID, p.GeneratedAt.UTC(), p.HorizonSeconds, p.PredictedValue, string(p.Category), string(p.Confidence),
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction for station %d: %w", p.StationID, err)
	}
	return nil
}

// RecentPredictions returns the latest audit records for a station,
// newest first.
func (r *PredictionRepository) RecentPredictions(ctx context.Context, stationID int64, limit int) ([]models.Prediction, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT station_id, generated_at, horizon_seconds, predicted_value, category, confidence
		FROM predictions
		WHERE station_id = $1
		ORDER BY generated_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, stationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions for station %d: %w", stationID, err)
	}
	defer rows.Close()

	var predictions []models.Prediction
	for rows.Next() {
		var p models.Prediction
		var category, confidence string
		if err := rows.Scan(&p.StationID, &p.GeneratedAt, &p.HorizonSeconds, &p.PredictedValue, &category, &confidence); err != nil {
			return nil, fmt.Errorf("failed to scan prediction row: %w", err)
		}
		p.Category = models.Category(category)
		p.Confidence = models.Confidence(confidence)
		p.Horizon = time.Duration(p.HorizonSeconds) * time.Second
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}
