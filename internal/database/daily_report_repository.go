package database

import (
	"context"
	"fmt"

	"github.com/sincov/airmon-go/internal/models"
)

// DailyReportRepository stores the per-station daily PM2.5 summaries
// produced by the report service.
type DailyReportRepository struct {
	pool DatabasePool
}

func NewDailyReportRepository(pool DatabasePool) *DailyReportRepository {
	return &DailyReportRepository{pool: pool}
}

// UpsertDailyReport inserts or replaces the summary for (station, date).
// Rerunning the daily job overwrites the previous values.
func (r *DailyReportRepository) UpsertDailyReport(ctx context.Context, dr models.DailyReport) error {
	query := `
		INSERT INTO daily_reports (station_id, date, avg, status, trend)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (station_id, date) DO UPDATE
		SET avg = EXCLUDED.avg, status = EXCLUDED.status, trend = EXCLUDED.trend`

	if _, err := r.pool.Exec(ctx, query, dr.StationID, dr.Date, dr.Average, dr.Status, dr.Trend); err != nil {
		return fmt.Errorf("failed to upsert daily report for station %d: %w", dr.StationID, err)
	}
	return nil
}

// ListDailyReports returns summaries for a station, newest first.
func (r *DailyReportRepository) ListDailyReports(ctx context.Context, stationID int64, limit int) ([]models.DailyReport, error) {
	if limit <= 0 {
		limit = 30
	}

	query := `
		SELECT id, station_id, date, avg, status, trend
		FROM daily_reports
		WHERE station_id = $1
		ORDER BY date DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, stationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily reports for station %d: %w", stationID, err)
	}
	defer rows.Close()

	var reports []models.DailyReport
	for rows.Next() {
		var dr models.DailyReport
		if err := rows.Scan(&dr.ID, &dr.StationID, &dr.Date, &dr.Average, &dr.Status, &dr.Trend); err != nil {
			return nil, fmt.Errorf("failed to scan daily report row: %w", err)
		}
		reports = append(reports, dr)
	}
	return reports, rows.Err()
}
