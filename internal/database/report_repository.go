package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sincov/airmon-go/internal/models"
)

// ReportRepository handles the append-only report log.
type ReportRepository struct {
	pool DatabasePool
}

func NewReportRepository(pool DatabasePool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// FetchReports returns reports for a station in [from, to], ascending by
// timestamp then by id, so retransmissions appear in ingestion order.
func (r *ReportRepository) FetchReports(ctx context.Context, stationID int64, from, to time.Time) ([]models.Report, error) {
	query := `
		SELECT id, station_id, timestamp, pm25, source, created_at
		FROM reports
		WHERE station_id = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, stationID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reports for station %d: %w", stationID, err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var rep models.Report
		if err := rows.Scan(&rep.ID, &rep.StationID, &rep.Timestamp, &rep.PM25, &rep.Source, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// InsertReport appends a report. Reports are immutable facts: there is no
// update path, retransmissions become new rows.
func (r *ReportRepository) InsertReport(ctx context.Context, rep models.Report) (models.Report, error) {
	query := `
		INSERT INTO reports (station_id, timestamp, pm25, source, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, rep.StationID, rep.Timestamp.UTC(), rep.PM25, rep.Source).
		Scan(&rep.ID, &rep.CreatedAt)
	if err != nil {
		return models.Report{}, fmt.Errorf("failed to insert report for station %d: %w", rep.StationID, err)
	}
	rep.Timestamp = rep.Timestamp.UTC()
	return rep, nil
}

// LatestReport returns the most recent report for a station, or
// ErrNotFound when the station has never reported.
func (r *ReportRepository) LatestReport(ctx context.Context, stationID int64) (*models.Report, error) {
	query := `
		SELECT id, station_id, timestamp, pm25, source, created_at
		FROM reports
		WHERE station_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`

	var rep models.Report
	err := r.pool.QueryRow(ctx, query, stationID).
		Scan(&rep.ID, &rep.StationID, &rep.Timestamp, &rep.PM25, &rep.Source, &rep.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no reports for station %d", ErrNotFound, stationID)
		}
		return nil, fmt.Errorf("failed to fetch latest report for station %d: %w", stationID, err)
	}
	return &rep, nil
}
