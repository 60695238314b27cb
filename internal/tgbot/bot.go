// Package tgbot lets Telegram users subscribe to alerts and query the agents
// through bot commands.
package tgbot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/PriceAlerts/internal/actor"
	"github.com/Alias1177/PriceAlerts/internal/agents"
	"github.com/Alias1177/PriceAlerts/internal/notify"
	"github.com/Alias1177/PriceAlerts/models"
)

const recentAlertsLimit = 5

// Menu buttons
const (
	ButtonMainMenu     = "Main Menu"
	ButtonSubscribe    = "Subscribe"
	ButtonMyAlerts     = "My Alerts"
	ButtonRecentAlerts = "Recent Alerts"
)

const helpText = "Commands:\n" +
	"/subscribe - receive alert notifications in this chat\n" +
	"/alerts [SYMBOL] - list active alert rules\n" +
	"/triggered - show the most recent alerts\n" +
	"/analysis SYMBOL - latest analysis with prediction"

type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot answers chat commands by asking the agents
type Bot struct {
	api        botAPI
	registry   *actor.Registry
	askTimeout time.Duration
	logger     zerolog.Logger
}

func New(api *tgbotapi.BotAPI, registry *actor.Registry, askTimeout time.Duration) *Bot {
	return newBot(api, registry, askTimeout)
}

func newBot(api botAPI, registry *actor.Registry, askTimeout time.Duration) *Bot {
	return &Bot{
		api:        api,
		registry:   registry,
		askTimeout: askTimeout,
		logger:     log.With().Str("component", "telegram_bot").Logger(),
	}
}

// Run handles updates until ctx is done
func (b *Bot) Run(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.api.GetUpdatesChan(updateConfig)
	b.logger.Info().Msg("Listening for Telegram commands")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

// parseCommand splits "/cmd@bot arg" into "/cmd" and its arguments
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil
	}
	cmd := fields[0]
	if strings.HasPrefix(cmd, "/") {
		cmd, _, _ = strings.Cut(strings.ToLower(cmd), "@")
		return cmd, fields[1:]
	}
	// Menu buttons are sent as plain text
	return strings.TrimSpace(text), nil
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}
	chatID := message.Chat.ID
	address := notify.SchemeTelegram + ":" + strconv.FormatInt(chatID, 10)

	cmd, args := parseCommand(message.Text)
	b.logger.Debug().Int64("chat_id", chatID).Str("command", cmd).Msg("Command received")

	var reply string
	switch cmd {
	case "/start", ButtonMainMenu:
		msg := tgbotapi.NewMessage(chatID, "Welcome to Price Alerts!\n\n"+helpText)
		msg.ReplyMarkup = mainMenuKeyboard()
		b.send(msg)
		return
	case "/subscribe", ButtonSubscribe:
		reply = b.subscribe(ctx, address)
	case "/alerts", ButtonMyAlerts:
		symbol := ""
		if len(args) > 0 {
			symbol = args[0]
		}
		reply = b.listAlerts(ctx, address, symbol)
	case "/triggered", ButtonRecentAlerts:
		reply = b.recentAlerts(ctx, address)
	case "/analysis":
		if len(args) == 0 {
			reply = "Usage: /analysis SYMBOL"
			break
		}
		reply = b.analysis(ctx, address, args[0])
	default:
		reply = helpText
	}

	b.send(tgbotapi.NewMessage(chatID, reply))
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("Failed to send message")
	}
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonSubscribe),
			tgbotapi.NewKeyboardButton(ButtonMyAlerts),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonRecentAlerts),
		),
	)
}

func (b *Bot) unavailable(err error) string {
	b.logger.Error().Err(err).Msg("Agent request failed")
	return "Sorry, the service is busy. Please try again later."
}

func (b *Bot) subscribe(ctx context.Context, address string) string {
	resp, err := actor.AskAs[models.SubscribeResponse](ctx, b.registry, address, agents.AlertAgent,
		models.SubscribeRequest{Address: address}, b.askTimeout)
	if err != nil {
		return b.unavailable(err)
	}
	if !resp.Success {
		return "Subscription failed: " + resp.Message
	}
	if resp.Message == "already subscribed" {
		return "This chat is already subscribed."
	}
	return "Subscribed! Alerts will be delivered to this chat."
}

func (b *Bot) listAlerts(ctx context.Context, address, symbol string) string {
	resp, err := actor.AskAs[models.ListAlertsResponse](ctx, b.registry, address, agents.AlertAgent,
		models.ListAlertsRequest{Symbol: symbol, ActiveOnly: true}, b.askTimeout)
	if err != nil {
		return b.unavailable(err)
	}
	if len(resp.Rules) == 0 {
		return "No active alerts."
	}

	var sb strings.Builder
	sb.WriteString("Active alerts:\n")
	for _, r := range resp.Rules {
		fmt.Fprintf(&sb, "• %s\n", r.String())
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) recentAlerts(ctx context.Context, address string) string {
	resp, err := actor.AskAs[models.TriggeredAlertsResponse](ctx, b.registry, address, agents.AlertAgent,
		models.TriggeredAlertsRequest{Limit: recentAlertsLimit}, b.askTimeout)
	if err != nil {
		return b.unavailable(err)
	}
	if len(resp.Alerts) == 0 {
		return "No alerts triggered yet."
	}

	var sb strings.Builder
	sb.WriteString("Recent alerts:\n")
	for _, n := range resp.Alerts {
		fmt.Fprintf(&sb, "• %s %s\n", n.Timestamp.Format("2006-01-02 15:04"), n.Message)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) analysis(ctx context.Context, address, symbol string) string {
	resp, err := actor.AskAs[models.AnalysisResponse](ctx, b.registry, address, agents.AnalysisAgent,
		models.AnalysisRequest{Symbol: symbol, IncludePrediction: true}, b.askTimeout)
	if err != nil {
		return b.unavailable(err)
	}
	if len(resp.Results) == 0 {
		return fmt.Sprintf("No data for %s yet. Try again in a few minutes.", strings.ToUpper(symbol))
	}

	r := resp.Results[0]
	return fmt.Sprintf("%s\nPrice: $%.2f\nRSI: %.2f\nMACD: %.4f (signal %.4f)\n\n%s",
		r.String(), r.CurrentPrice, r.RSI, r.MACD, r.MACDSignal, r.Prediction)
}
