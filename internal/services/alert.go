package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sincov/airmon-go/internal/logging"
	"github.com/sincov/airmon-go/internal/models"
)

// SubscriptionStore provides the alert subscription and dedup log.
type SubscriptionStore interface {
	ListActiveSubscriptions(ctx context.Context) ([]models.Subscription, error)
	InsertAlert(ctx context.Context, a models.Alert) error
	AlertSentSince(ctx context.Context, stationID int64, category models.Category, since time.Time) (bool, error)
}

// MessageSender delivers an alert text to a chat. Implemented by
// notify.TelegramSender.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// AlertService notifies subscribers when a prediction reaches the
// configured severity. At most one alert per (station, category) per UTC
// day. Implements PredictionNotifier.
type AlertService struct {
	subs        SubscriptionStore
	sender      MessageSender
	minSeverity models.Category
	logger      *logrus.Entry
}

func NewAlertService(subs SubscriptionStore, sender MessageSender, minSeverity models.Category, logger *logging.Logger) *AlertService {
	if minSeverity.Severity() < 0 {
		minSeverity = models.CategoryUnhealthy
	}
	return &AlertService{
		subs:        subs,
		sender:      sender,
		minSeverity: minSeverity,
		logger:      logger.WithComponent("alerts"),
	}
}

// NotifyPrediction sends alerts for predictions at or above the severity
// threshold. Failures are logged; alerting never affects the prediction
// path.
func (s *AlertService) NotifyPrediction(ctx context.Context, station *models.Station, p models.Prediction) {
	if s.sender == nil {
		return
	}
	if p.Category.Severity() < s.minSeverity.Severity() {
		return
	}

	dayStart := p.GeneratedAt.UTC().Truncate(24 * time.Hour)
	sent, err := s.subs.AlertSentSince(ctx, station.ID, p.Category, dayStart)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to check alert log")
		return
	}
	if sent {
		return
	}

	subs, err := s.subs.ListActiveSubscriptions(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to list subscriptions")
		return
	}
	if len(subs) == 0 {
		return
	}

	message := fmt.Sprintf(
		"Air quality warning for %s: predicted PM2.5 of %.1f µg/m³ (%s) within %s.",
		station.Name, p.PredictedValue, p.Category, p.Horizon,
	)

	delivered := 0
	for _, sub := range subs {
		if err := s.sender.SendMessage(ctx, sub.ChatID, message); err != nil {
			s.logger.WithError(err).WithField("chat_id", sub.ChatID).Warn("Failed to deliver alert")
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return
	}

	alert := models.Alert{
		StationID: station.ID,
		Category:  p.Category,
		Message:   message,
		SentAt:    p.GeneratedAt,
	}
	if err := s.subs.InsertAlert(ctx, alert); err != nil {
		s.logger.WithError(err).Warn("Failed to record alert")
	}

	s.logger.WithFields(logrus.Fields{
		"station_id": station.ID,
		"category":   p.Category,
		"delivered":  delivered,
	}).Info("Alert sent")
}
