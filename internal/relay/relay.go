// Package relay forwards alert notifications to an external automation
// webhook (n8n style) as a flat JSON payload.
package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/PriceAlerts/internal/platform/http"
	"github.com/Alias1177/PriceAlerts/models"
)

// Payload is the body posted for each alert
type Payload struct {
	AlertID   string  `json:"alert_id"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Threshold float64 `json:"threshold"`
	Type      string  `json:"type"`
	Message   string  `json:"message"`
	Timestamp string  `json:"timestamp"`
}

// NewPayload flattens a notification
func NewPayload(n models.AlertNotification) Payload {
	return Payload{
		AlertID:   n.AlertID,
		Symbol:    n.Symbol,
		Price:     n.TriggeredValue,
		Threshold: n.Threshold,
		Type:      string(n.Type),
		Message:   n.Message,
		Timestamp: n.Timestamp.UTC().Format(time.RFC3339),
	}
}

// Client posts payloads to webhook URLs
type Client struct {
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new relay client
type ClientOptions struct {
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

func NewClient(options ClientOptions) *Client {
	return &Client{
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:         options.RequestTimeout,
			RequestsPerSec:  options.RequestsPerSec,
			MaxRetries:      options.MaxRetries,
			MaxRetryTimeout: options.MaxRetryTimeout,
		}),
		logger: log.With().Str("component", "webhook_relay").Logger(),
	}
}

// Post delivers n to url. Any non-200 answer is a delivery failure.
func (c *Client) Post(ctx context.Context, url string, n models.AlertNotification) error {
	resp, err := c.httpClient.PostJSON(ctx, url, NewPayload(n))
	if err != nil {
		c.logger.Error().Err(err).Str("url", url).Str("symbol", n.Symbol).Msg("Webhook delivery failed")
		return fmt.Errorf("posting alert to webhook: %w", err)
	}
	resp.Body.Close()

	c.logger.Debug().Str("url", url).Str("alert_id", n.AlertID).Msg("Alert forwarded to webhook")
	return nil
}
