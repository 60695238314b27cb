package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/PriceAlerts/internal/agents"
	"github.com/Alias1177/PriceAlerts/internal/alerts"
	"github.com/Alias1177/PriceAlerts/internal/api/coingecko"
	"github.com/Alias1177/PriceAlerts/internal/config"
	"github.com/Alias1177/PriceAlerts/internal/httpapi"
	"github.com/Alias1177/PriceAlerts/internal/notify"
	"github.com/Alias1177/PriceAlerts/internal/relay"
	"github.com/Alias1177/PriceAlerts/internal/storage"
	"github.com/Alias1177/PriceAlerts/internal/tgbot"
	"github.com/Alias1177/PriceAlerts/models"
)

func main() {
	// Setup context with cancellation for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting price alerts")
	printConfig(cfg)

	// 3. Open storage
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("Failed to open storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	// 4. Setup API clients
	requestTimeout := time.Duration(cfg.RequestTimeout) * time.Second
	priceClient := coingecko.NewClient(coingecko.ClientOptions{
		BaseURL:        cfg.CoinGeckoBaseURL,
		RequestTimeout: requestTimeout,
		RequestsPerSec: cfg.RequestsPerSec,
		MaxRetries:     3,
	})
	// The dispatcher retries failed deliveries, so the relay gives up quickly
	relayClient := relay.NewClient(relay.ClientOptions{
		RequestTimeout:  cfg.DeliveryTimeout,
		RequestsPerSec:  cfg.RequestsPerSec,
		MaxRetries:      1,
		MaxRetryTimeout: cfg.DeliveryTimeout,
	})

	deps := agents.Deps{
		Config:      cfg,
		Store:       store,
		PriceClient: priceClient,
		Relay:       relayClient,
	}

	var bot *tgbotapi.BotAPI
	if cfg.TelegramBotToken != "" {
		bot, err = tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize Telegram bot, telegram delivery disabled")
		} else {
			log.Info().Str("username", bot.Self.UserName).Msg("Authorized on Telegram")
			deps.Telegram = notify.NewTelegramSender(bot)
		}
	}

	if cfg.DefaultRulesFile != "" {
		deps.DefaultRules = loadDefaultRules(cfg.DefaultRulesFile)
	}

	// 5. Start agents
	system := agents.NewSystem(deps)
	system.Run(ctx)

	if bot != nil {
		go tgbot.New(bot, system.Registry, cfg.AskTimeout).Run(ctx)
	}

	// 6. Serve HTTP
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewServer(system.Registry, cfg.AskTimeout).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received, stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	system.Wait()
	log.Info().Msg("Stopped")
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config) {
	log.Info().
		Strs("Symbols", cfg.Symbols).
		Dur("PriceUpdateInterval", cfg.PriceUpdateInterval).
		Dur("AlertRetryInterval", cfg.AlertRetryInterval).
		Dur("DeliveryTimeout", cfg.DeliveryTimeout).
		Int("MaxDeliveryAttempts", cfg.MaxDeliveryAttempts).
		Int("HistorySize", cfg.HistorySize).
		Int("ShortMAWindow", cfg.ShortMAWindow).
		Int("LongMAWindow", cfg.LongMAWindow).
		Int("RSIPeriod", cfg.RSIPeriod).
		Str("StorageBackend", cfg.StorageBackend).
		Strs("Subscribers", cfg.Subscribers).
		Bool("Webhook", cfg.N8NWebhookURL != "").
		Bool("Telegram", cfg.TelegramBotToken != "").
		Msg("Configuration loaded")
}

// loadDefaultRules reads the rules file, falling back to the built-in
// defaults when it cannot be read
func loadDefaultRules(path string) []models.AlertRule {
	rules, err := alerts.LoadRulesFile(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to load default rules, using built-in defaults")
		return nil
	}
	log.Info().Int("count", len(rules)).Str("path", path).Msg("Loaded default rules")
	return rules
}
