package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/PriceAlerts/internal/calculate"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds all application configuration
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	Symbols             []string      `env:"DEFAULT_CRYPTOCURRENCIES" envDefault:"BTC,ETH,SOL,AVAX,DOT"`
	PriceUpdateInterval time.Duration `env:"PRICE_UPDATE_INTERVAL" envDefault:"300s"`
	AlertRetryInterval  time.Duration `env:"ALERT_RETRY_INTERVAL" envDefault:"30s"`
	MaxDeliveryAttempts int           `env:"MAX_DELIVERY_ATTEMPTS" envDefault:"10"`
	HistorySize         int           `env:"HISTORY_SIZE" envDefault:"100"`
	TriggeredLogSize    int           `env:"TRIGGERED_LOG_SIZE" envDefault:"100"`

	ShortMAWindow    int `env:"SHORT_MA_WINDOW" envDefault:"5"`
	LongMAWindow     int `env:"LONG_MA_WINDOW" envDefault:"20"`
	RSIPeriod        int `env:"RSI_PERIOD" envDefault:"14"`
	MACDFastPeriod   int `env:"MACD_FAST_PERIOD" envDefault:"12"`
	MACDSlowPeriod   int `env:"MACD_SLOW_PERIOD" envDefault:"26"`
	MACDSignalPeriod int `env:"MACD_SIGNAL_PERIOD" envDefault:"9"`

	RequestTimeout   int           `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
	RequestsPerSec   int           `env:"REQUESTS_PER_SEC" envDefault:"5"`
	AskTimeout       time.Duration `env:"ASK_TIMEOUT" envDefault:"10s"`
	DeliveryTimeout  time.Duration `env:"DELIVERY_TIMEOUT" envDefault:"5s"`
	QuotaPerMinute   int           `env:"QUOTA_PER_MINUTE" envDefault:"10"`
	MailboxSize      int           `env:"MAILBOX_SIZE" envDefault:"256"`
	CoinGeckoBaseURL string        `env:"COINGECKO_BASE_URL" envDefault:"https://api.coingecko.com/api/v3"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	DBHost         string `env:"DB_HOST" envDefault:"localhost"`
	DBPort         string `env:"DB_PORT" envDefault:"5432"`
	DBUser         string `env:"DB_USER" envDefault:"postgres"`
	DBPassword     string `env:"DB_PASSWORD"`
	DBName         string `env:"DB_NAME" envDefault:"price_alerts"`
	DBSSLMode      string `env:"DB_SSLMODE" envDefault:"disable"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"price-alerts.db"`

	Subscribers      []string `env:"SUBSCRIBERS" envDefault:"agent:user-agent"`
	N8NWebhookURL    string   `env:"N8N_WEBHOOK_URL"`
	TelegramBotToken string   `env:"TELEGRAM_BOT_TOKEN"`
	DefaultRulesFile string   `env:"DEFAULT_RULES_FILE"`
	SeedDefaultRules bool     `env:"SEED_DEFAULT_RULES" envDefault:"true"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	return FromEnv(), nil
}

// FromEnv reads the configuration from the process environment only
func FromEnv() *Config {
	var cfg Config

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.HTTPAddr = getEnvWithDefault("HTTP_ADDR", ":8080")

	cfg.Symbols = getEnvListWithDefault("DEFAULT_CRYPTOCURRENCIES", []string{"BTC", "ETH", "SOL", "AVAX", "DOT"})
	for i, s := range cfg.Symbols {
		cfg.Symbols[i] = strings.ToUpper(s)
	}
	cfg.PriceUpdateInterval = getEnvDurationWithDefault("PRICE_UPDATE_INTERVAL", 300*time.Second)
	cfg.AlertRetryInterval = getEnvDurationWithDefault("ALERT_RETRY_INTERVAL", 30*time.Second)
	cfg.MaxDeliveryAttempts = getEnvIntWithDefault("MAX_DELIVERY_ATTEMPTS", 10)
	cfg.HistorySize = getEnvIntWithDefault("HISTORY_SIZE", 100)
	cfg.TriggeredLogSize = getEnvIntWithDefault("TRIGGERED_LOG_SIZE", 100)

	cfg.ShortMAWindow = getEnvIntWithDefault("SHORT_MA_WINDOW", 5)
	cfg.LongMAWindow = getEnvIntWithDefault("LONG_MA_WINDOW", 20)
	cfg.RSIPeriod = getEnvIntWithDefault("RSI_PERIOD", 14)
	cfg.MACDFastPeriod = getEnvIntWithDefault("MACD_FAST_PERIOD", 12)
	cfg.MACDSlowPeriod = getEnvIntWithDefault("MACD_SLOW_PERIOD", 26)
	cfg.MACDSignalPeriod = getEnvIntWithDefault("MACD_SIGNAL_PERIOD", 9)

	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 5)
	cfg.AskTimeout = getEnvDurationWithDefault("ASK_TIMEOUT", 10*time.Second)
	cfg.DeliveryTimeout = getEnvDurationWithDefault("DELIVERY_TIMEOUT", 5*time.Second)
	cfg.QuotaPerMinute = getEnvIntWithDefault("QUOTA_PER_MINUTE", 10)
	cfg.MailboxSize = getEnvIntWithDefault("MAILBOX_SIZE", 256)
	cfg.CoinGeckoBaseURL = getEnvWithDefault("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3")

	cfg.StorageBackend = strings.ToLower(getEnvWithDefault("STORAGE_BACKEND", BackendMemory))
	cfg.RedisAddr = getEnvWithDefault("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getEnvIntWithDefault("REDIS_DB", 0)
	cfg.DBHost = getEnvWithDefault("DB_HOST", "localhost")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = getEnvWithDefault("DB_USER", "postgres")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnvWithDefault("DB_NAME", "price_alerts")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")
	cfg.SQLitePath = getEnvWithDefault("SQLITE_PATH", "price-alerts.db")

	cfg.Subscribers = getEnvListWithDefault("SUBSCRIBERS", []string{"agent:user-agent"})
	cfg.N8NWebhookURL = os.Getenv("N8N_WEBHOOK_URL")
	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.DefaultRulesFile = os.Getenv("DEFAULT_RULES_FILE")
	cfg.SeedDefaultRules = getEnvBoolWithDefault("SEED_DEFAULT_RULES", true)

	return &cfg
}

// IndicatorParams returns the indicator windows configured for analysis
func (c *Config) IndicatorParams() calculate.Params {
	params := calculate.DefaultParams()
	params.ShortWindow = c.ShortMAWindow
	params.LongWindow = c.LongMAWindow
	params.RSIPeriod = c.RSIPeriod
	params.MACDFastPeriod = c.MACDFastPeriod
	params.MACDSlowPeriod = c.MACDSlowPeriod
	params.MACDSignalPeriod = c.MACDSignalPeriod
	return params
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getEnvDurationWithDefault accepts Go durations ("30s") or plain seconds ("300")
func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvListWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return out
}
