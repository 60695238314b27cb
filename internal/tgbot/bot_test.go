package tgbot

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/PriceAlerts/internal/actor"
	"github.com/Alias1177/PriceAlerts/internal/agents"
	"github.com/Alias1177/PriceAlerts/internal/alerts"
	"github.com/Alias1177/PriceAlerts/internal/notify"
	"github.com/Alias1177/PriceAlerts/internal/storage"
	"github.com/Alias1177/PriceAlerts/models"
)

type fakeAPI struct {
	mu      sync.Mutex
	updates chan tgbotapi.Update
	sent    []tgbotapi.MessageConfig
	stopped bool
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) last() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// newTestBot runs an alert agent with the default rules; telegram
// deliveries are recorded in delivered
func newTestBot(t *testing.T) (*Bot, *fakeAPI, *[]string) {
	t.Helper()
	registry := actor.NewRegistry()

	var mu sync.Mutex
	delivered := []string{}
	router := notify.NewRouter()
	router.Handle(notify.SchemeTelegram, notify.SenderFunc(func(_ context.Context, target string, _ models.AlertNotification) error {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, target)
		return nil
	}))

	alert := actor.New(agents.AlertAgent, agents.NewAlert(storage.NewMemory(), registry, router, actor.NewQuota(0), agents.AlertOptions{
		DefaultRules: alerts.DefaultRules(),
	}), 16)
	registry.Register(alert)

	ctx, cancel := context.WithCancel(context.Background())
	go alert.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-alert.Done()
	})

	api := &fakeAPI{updates: make(chan tgbotapi.Update, 4)}
	return newBot(api, registry, time.Second), api, &delivered
}

func message(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text string
		cmd  string
		args []string
	}{
		{"/alerts BTC", "/alerts", []string{"BTC"}},
		{"/Subscribe@price_alerts_bot", "/subscribe", []string{}},
		{"My Alerts", "My Alerts", nil},
		{"   ", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd, args := parseCommand(tt.text)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, len(tt.args), len(args))
		})
	}
}

func TestStartShowsMenu(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handleMessage(context.Background(), message(42, "/start"))

	msg := api.last()
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "/subscribe")
	assert.IsType(t, tgbotapi.ReplyKeyboardMarkup{}, msg.ReplyMarkup)
}

func TestSubscribeRegistersChat(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, message(42, "/subscribe"))
	assert.Contains(t, api.last().Text, "Subscribed")

	b.handleMessage(ctx, message(42, ButtonSubscribe))
	assert.Contains(t, api.last().Text, "already subscribed")
}

func TestSubscribedChatReceivesAlerts(t *testing.T) {
	b, _, delivered := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, message(42, "/subscribe"))
	require.NoError(t, b.registry.Send(ctx, agents.AnalysisAgent, agents.AlertAgent,
		models.AnalysisResult{Symbol: "BTC", CurrentPrice: 81000}))

	b.handleMessage(ctx, message(42, "/triggered"))
	assert.Equal(t, []string{"42"}, *delivered)
}

func TestListAlerts(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, message(7, "/alerts eth"))
	text := api.last().Text
	assert.Contains(t, text, "ETH PRICE_BELOW 1600")
	assert.NotContains(t, text, "BTC")

	b.handleMessage(ctx, message(7, "/alerts DOGE"))
	assert.Equal(t, "No active alerts.", api.last().Text)
}

func TestUnknownCommandShowsHelp(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handleMessage(context.Background(), message(7, "hello"))
	assert.Equal(t, helpText, api.last().Text)

	b.handleMessage(context.Background(), message(7, "/analysis"))
	assert.Equal(t, "Usage: /analysis SYMBOL", api.last().Text)
}

func TestAnalysisWithoutAgentReportsBusy(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handleMessage(context.Background(), message(7, "/analysis BTC"))
	assert.Contains(t, api.last().Text, "busy")
}

func TestRunStopsWithContext(t *testing.T) {
	b, api, _ := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	api.updates <- tgbotapi.Update{Message: message(9, "/start")}
	require.Eventually(t, func() bool { return api.count() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.True(t, api.stopped)
}
