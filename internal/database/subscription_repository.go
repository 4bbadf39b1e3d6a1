package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sincov/airmon-go/internal/models"
)

// SubscriptionRepository manages alert subscriptions and the sent-alert
// log used for deduplication.
type SubscriptionRepository struct {
	pool DatabasePool
}

func NewSubscriptionRepository(pool DatabasePool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

// ListActiveSubscriptions returns all chats currently subscribed.
func (r *SubscriptionRepository) ListActiveSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	query := `
		SELECT id, chat_id, subscribed
		FROM subscriptions
		WHERE subscribed = TRUE
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		var s models.Subscription
		if err := rows.Scan(&s.ID, &s.ChatID, &s.Subscribed); err != nil {
			return nil, fmt.Errorf("failed to scan subscription row: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// Subscribe registers (or re-activates) a chat for alerts.
func (r *SubscriptionRepository) Subscribe(ctx context.Context, chatID int64) error {
	query := `
		INSERT INTO subscriptions (chat_id, subscribed)
		VALUES ($1, TRUE)
		ON CONFLICT (chat_id) DO UPDATE SET subscribed = TRUE`

	if _, err := r.pool.Exec(ctx, query, chatID); err != nil {
		return fmt.Errorf("failed to subscribe chat %d: %w", chatID, err)
	}
	return nil
}

// InsertAlert records a sent alert.
func (r *SubscriptionRepository) InsertAlert(ctx context.Context, a models.Alert) error {
	query := `
		INSERT INTO alerts (station_id, category, message, sent_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := r.pool.Exec(ctx, query, a.StationID, string(a.Category), a.Message, a.SentAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert alert for station %d: %w", a.StationID, err)
	}
	return nil
}

// AlertSentSince reports whether an alert for (station, category) was
// already sent after the given instant.
func (r *SubscriptionRepository) AlertSentSince(ctx context.Context, stationID int64, category models.Category, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM alerts
			WHERE station_id = $1 AND category = $2 AND sent_at >= $3
		)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, stationID, string(category), since.UTC()).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check alert log for station %d: %w", stationID, err)
	}
	return exists, nil
}
