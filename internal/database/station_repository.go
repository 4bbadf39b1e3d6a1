package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sincov/airmon-go/internal/models"
)

// StationRepository handles database operations for stations.
type StationRepository struct {
	pool DatabasePool
}

func NewStationRepository(pool DatabasePool) *StationRepository {
	return &StationRepository{pool: pool}
}

// GetStation returns a station by id, or ErrNotFound.
func (r *StationRepository) GetStation(ctx context.Context, id int64) (*models.Station, error) {
	query := `
		SELECT id, name, latitude, longitude, active, COALESCE(description, ''), created_at
		FROM stations
		WHERE id = $1`

	var st models.Station
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&st.ID, &st.Name, &st.Latitude, &st.Longitude, &st.Active, &st.Description, &st.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: station %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get station %d: %w", id, err)
	}
	return &st, nil
}

// ListStations returns all stations ordered by id.
func (r *StationRepository) ListStations(ctx context.Context) ([]models.Station, error) {
	query := `
		SELECT id, name, latitude, longitude, active, COALESCE(description, ''), created_at
		FROM stations
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Latitude, &st.Longitude, &st.Active, &st.Description, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan station row: %w", err)
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// ListStationSummaries returns every station with its most recent
// measurement, newest report per station.
func (r *StationRepository) ListStationSummaries(ctx context.Context) ([]models.StationSummary, error) {
	query := `
		SELECT DISTINCT ON (st.id)
			st.id, st.name, st.latitude, st.longitude, st.active,
			rp.pm25, rp.timestamp
		FROM stations st
		LEFT JOIN reports rp ON rp.station_id = st.id
		ORDER BY st.id, rp.timestamp DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list station summaries: %w", err)
	}
	defer rows.Close()

	var summaries []models.StationSummary
	for rows.Next() {
		var s models.StationSummary
		var value *float64
		var ts *time.Time
		if err := rows.Scan(&s.ID, &s.Name, &s.Latitude, &s.Longitude, &s.Active, &value, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan station summary row: %w", err)
		}
		s.LatestValue = value
		s.LatestSample = ts
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// UpsertStation inserts a station or refreshes its metadata. Latitude and
// longitude are fixed at creation and intentionally not updated.
func (r *StationRepository) UpsertStation(ctx context.Context, st models.Station) error {
	query := `
		INSERT INTO stations (id, name, latitude, longitude, active, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description`

	if _, err := r.pool.Exec(ctx, query, st.ID, st.Name, st.Latitude, st.Longitude, st.Active, st.Description); err != nil {
		return fmt.Errorf("failed to upsert station %d: %w", st.ID, err)
	}
	return nil
}

// DeactivateStation flags a station inactive. Stations are never deleted.
func (r *StationRepository) DeactivateStation(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE stations SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate station %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: station %d", ErrNotFound, id)
	}
	return nil
}
