package database

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sincov/airmon-go/internal/models"
)

//go:embed seed_stations.json
var seedStations []byte

// SeedStations upserts the built-in station list. Safe to run on every
// startup: existing stations keep their coordinates and active flag.
func SeedStations(ctx context.Context, repo *StationRepository) error {
	var stations []models.Station
	if err := json.Unmarshal(seedStations, &stations); err != nil {
		return fmt.Errorf("failed to parse embedded station seed: %w", err)
	}

	for _, st := range stations {
		if err := repo.UpsertStation(ctx, st); err != nil {
			return err
		}
	}

	logrus.WithField("stations", len(stations)).Info("Station seed applied")
	return nil
}
