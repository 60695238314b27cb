package notify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Alias1177/PriceAlerts/internal/actor"
	"github.com/Alias1177/PriceAlerts/models"
)

// AgentSender delivers to in-process agents through the actor registry
func AgentSender(sender actor.Sender, from string) Sender {
	return SenderFunc(func(ctx context.Context, target string, n models.AlertNotification) error {
		return sender.Send(ctx, from, target, n)
	})
}

// Poster is the webhook relay
type Poster interface {
	Post(ctx context.Context, url string, n models.AlertNotification) error
}

// WebhookSender posts to the URL following "webhook:"
func WebhookSender(p Poster) Sender {
	return SenderFunc(func(ctx context.Context, target string, n models.AlertNotification) error {
		return p.Post(ctx, target, n)
	})
}

// botAPI is the part of tgbotapi.BotAPI the sender uses
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender sends the alert text to the chat id following "telegram:"
type TelegramSender struct {
	bot botAPI
}

func NewTelegramSender(bot *tgbotapi.BotAPI) *TelegramSender {
	return &TelegramSender{bot: bot}
}

func (s *TelegramSender) Send(_ context.Context, target string, n models.AlertNotification) error {
	chatID, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid telegram chat id %q", ErrUnsupportedDestination, target)
	}

	msg := tgbotapi.NewMessage(chatID, "🚨 "+n.String())
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}
