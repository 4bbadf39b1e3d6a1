package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"github.com/sincov/airmon-go/internal/logging"
)

// ChatRegistrar records chats that asked for alerts. Implemented by
// database.SubscriptionRepository.
type ChatRegistrar interface {
	Subscribe(ctx context.Context, chatID int64) error
}

// TelegramSender delivers alert messages through the Telegram Bot API
// and registers chats that send /subscribe.
type TelegramSender struct {
	bot       *bot.Bot
	registrar ChatRegistrar
	logger    *logrus.Entry
}

// NewTelegramSender creates a sender for the given bot token. An empty
// token returns (nil, nil) so callers can leave alerting disabled.
func NewTelegramSender(token string, registrar ChatRegistrar, logger *logging.Logger) (*TelegramSender, error) {
	if token == "" {
		return nil, nil
	}

	sender := &TelegramSender{
		registrar: registrar,
		logger:    logger.WithComponent("telegram"),
	}

	b, err := bot.New(token, bot.WithDefaultHandler(sender.handleUpdate))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
	}
	sender.bot = b
	return sender, nil
}

// Start runs the bot's update loop until the context is cancelled.
func (t *TelegramSender) Start(ctx context.Context) {
	t.bot.Start(ctx)
}

func (t *TelegramSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return err
}

func (t *TelegramSender) handleUpdate(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	if !strings.HasPrefix(update.Message.Text, "/subscribe") {
		return
	}

	chatID := update.Message.Chat.ID
	if t.registrar != nil {
		if err := t.registrar.Subscribe(ctx, chatID); err != nil {
			t.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to register subscription")
			return
		}
	}

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "Subscribed to air quality alerts.",
	}); err != nil {
		t.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to confirm subscription")
	}

	t.logger.WithField("chat_id", chatID).Info("Chat subscribed to alerts")
}
