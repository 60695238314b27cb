package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/PriceAlerts/internal/platform/http"
	"github.com/Alias1177/PriceAlerts/models"
)

// SourceName is reported in PriceResponse.Source
const SourceName = "CoinGecko"

// coinIDs maps ticker symbols to CoinGecko coin ids
var coinIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"AVAX": "avalanche-2",
	"DOT":  "polkadot",
	"FET":  "fetch-ai",
	"ADA":  "cardano",
}

// Client is the CoinGecko API client
type Client struct {
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// ClientOptions holds options for creating a new CoinGecko client
type ClientOptions struct {
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

// NewClient creates a new CoinGecko API client
func NewClient(options ClientOptions) *Client {
	httpOpts := httpClient.ClientOptions{
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetries:      options.MaxRetries,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}

	baseURL := strings.TrimRight(options.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient.NewClient(httpOpts),
		logger:     log.With().Str("component", "coingecko_client").Logger(),
		now:        time.Now,
	}
}

// Source implements models.PriceClient
func (c *Client) Source() string {
	return SourceName
}

// CoinID returns the CoinGecko id of symbol. Unknown symbols are assumed to
// be ids already (lowercased).
func CoinID(symbol string) string {
	if id, ok := coinIDs[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

type coinQuote struct {
	USD          float64 `json:"usd"`
	USDMarketCap float64 `json:"usd_market_cap"`
	USD24hVol    float64 `json:"usd_24h_vol"`
	USD24hChange float64 `json:"usd_24h_change"`
}

// GetPrices fetches the latest USD prices for symbols from /simple/price
func (c *Client) GetPrices(ctx context.Context, symbols []string) (map[string]models.PricePoint, error) {
	if len(symbols) == 0 {
		return map[string]models.PricePoint{}, nil
	}

	ids := make([]string, 0, len(symbols))
	bySymbol := make(map[string]string, len(symbols))
	for _, s := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		id := CoinID(sym)
		bySymbol[sym] = id
		ids = append(ids, id)
	}
	sort.Strings(ids)

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", "usd")
	query.Set("include_market_cap", "true")
	query.Set("include_24hr_vol", "true")
	query.Set("include_24hr_change", "true")
	endpoint := fmt.Sprintf("%s/simple/price?%s", c.baseURL, query.Encode())

	c.logger.Debug().Str("url", endpoint).Msg("Fetching prices")

	// Create a new request with context
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var data map[string]coinQuote
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	now := c.now().UTC()
	prices := make(map[string]models.PricePoint, len(bySymbol))
	for sym, id := range bySymbol {
		q, ok := data[id]
		if !ok || q.USD <= 0 {
			c.logger.Warn().Str("symbol", sym).Msg("No price in response")
			continue
		}
		prices[sym] = models.PricePoint{
			Symbol:           sym,
			Price:            q.USD,
			Timestamp:        now,
			Volume24h:        q.USD24hVol,
			PercentChange24h: q.USD24hChange,
			MarketCap:        q.USDMarketCap,
		}
	}

	if len(prices) == 0 {
		c.logger.Warn().Str("response", string(body)).Msg("No prices in response")
		return nil, fmt.Errorf("empty data returned")
	}

	c.logger.Debug().Int("count", len(prices)).Msg("Fetched prices")
	return prices, nil
}
