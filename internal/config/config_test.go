package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"DEFAULT_CRYPTOCURRENCIES", "PRICE_UPDATE_INTERVAL", "STORAGE_BACKEND", "SUBSCRIBERS", "DELIVERY_TIMEOUT", "SEED_DEFAULT_RULES"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, []string{"BTC", "ETH", "SOL", "AVAX", "DOT"}, cfg.Symbols)
	assert.Equal(t, 300*time.Second, cfg.PriceUpdateInterval)
	assert.Equal(t, 30*time.Second, cfg.AlertRetryInterval)
	assert.Equal(t, 10, cfg.MaxDeliveryAttempts)
	assert.Equal(t, 5*time.Second, cfg.DeliveryTimeout)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, []string{"agent:user-agent"}, cfg.Subscribers)
	assert.True(t, cfg.SeedDefaultRules)

	params := cfg.IndicatorParams()
	assert.Equal(t, 5, params.ShortWindow)
	assert.Equal(t, 20, params.LongWindow)
	assert.Equal(t, 14, params.RSIPeriod)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DEFAULT_CRYPTOCURRENCIES", " btc, eth ,,")
	t.Setenv("PRICE_UPDATE_INTERVAL", "60")
	t.Setenv("ALERT_RETRY_INTERVAL", "5s")
	t.Setenv("MAX_DELIVERY_ATTEMPTS", "not-a-number")
	t.Setenv("STORAGE_BACKEND", "SQLite")
	t.Setenv("SEED_DEFAULT_RULES", "no")

	cfg := FromEnv()

	assert.Equal(t, []string{"BTC", "ETH"}, cfg.Symbols)
	assert.Equal(t, time.Minute, cfg.PriceUpdateInterval)
	assert.Equal(t, 5*time.Second, cfg.AlertRetryInterval)
	assert.Equal(t, 10, cfg.MaxDeliveryAttempts)
	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.False(t, cfg.SeedDefaultRules)
}
