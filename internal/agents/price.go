package agents

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/PriceAlerts/internal/actor"
	"github.com/Alias1177/PriceAlerts/internal/storage"
	"github.com/Alias1177/PriceAlerts/models"
)

// KeyLatestPrices is the storage key of the last successful fetch
const KeyLatestPrices = "latest_prices"

// SourceError is the source of the empty response sent when a fetch fails
const SourceError = "Error"

// Price fetches prices on a timer and forwards them to the analysis agent
type Price struct {
	symbols []string
	client  models.PriceClient
	store   storage.KeyedStore
	out     actor.Sender
	latest  *models.PriceResponse
	logger  zerolog.Logger
	now     func() time.Time
}

func NewPrice(client models.PriceClient, store storage.KeyedStore, out actor.Sender, symbols []string) *Price {
	return &Price{
		symbols: normalizeSymbols(symbols),
		client:  client,
		store:   store,
		out:     out,
		logger:  log.With().Str("component", "agent").Str("agent", PriceAgent).Logger(),
		now:     nowUTC,
	}
}

// Start loads the cached prices and runs the first fetch
func (p *Price) Start(ctx context.Context) {
	var latest models.PriceResponse
	ok, err := storage.LoadJSON(ctx, p.store, KeyLatestPrices, &latest)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to load cached prices")
	}
	if ok {
		p.latest = &latest
	}

	p.logger.Info().Strs("symbols", p.symbols).Msg("Price agent started")
	p.fetchAndPublish(ctx)
}

func (p *Price) Receive(ctx context.Context, env actor.Envelope) {
	switch msg := env.Msg.(type) {
	case models.FetchTick:
		p.fetchAndPublish(ctx)
	case models.PriceRequest:
		respond(ctx, p.out, PriceAgent, env, p.handlePriceRequest(ctx, msg), p.logger)
	default:
		p.logger.Warn().Str("from", env.From).Msgf("Unexpected message %T", env.Msg)
	}
}

func (p *Price) fetch(ctx context.Context, symbols []string) (models.PriceResponse, bool) {
	prices, err := p.client.GetPrices(ctx, symbols)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to fetch prices")
		return models.PriceResponse{}, false
	}
	if len(prices) == 0 {
		p.logger.Error().Msg("Price provider returned no prices")
		return models.PriceResponse{}, false
	}

	for sym, pt := range prices {
		p.logger.Info().Str("symbol", sym).Float64("price", pt.Price).Msg("Price fetched")
	}

	return models.PriceResponse{
		Prices:    prices,
		Source:    p.client.Source(),
		Timestamp: p.now(),
	}, true
}

// fetchAndPublish runs one fetch cycle. A failed cycle is skipped.
func (p *Price) fetchAndPublish(ctx context.Context) {
	resp, ok := p.fetch(ctx, p.symbols)
	if !ok {
		return
	}
	p.remember(ctx, resp)

	if err := p.out.Send(ctx, PriceAgent, AnalysisAgent, resp); err != nil {
		p.logger.Error().Err(err).Msg("Failed to forward prices")
	}
}

func (p *Price) remember(ctx context.Context, resp models.PriceResponse) {
	merged := models.PriceResponse{
		Prices:    make(map[string]models.PricePoint),
		Source:    resp.Source,
		Timestamp: resp.Timestamp,
	}
	if p.latest != nil {
		for sym, pt := range p.latest.Prices {
			merged.Prices[sym] = pt
		}
	}
	for sym, pt := range resp.Prices {
		merged.Prices[sym] = pt
	}
	p.latest = &merged

	if err := storage.SaveJSON(ctx, p.store, KeyLatestPrices, merged); err != nil {
		p.logger.Error().Err(err).Msg("Failed to store latest prices")
	}
}

// handlePriceRequest serves from cache when every symbol is present,
// otherwise fetches. A failed fetch yields an empty response.
func (p *Price) handlePriceRequest(ctx context.Context, req models.PriceRequest) models.PriceResponse {
	symbols := normalizeSymbols(req.Symbols)
	if len(symbols) == 0 {
		symbols = p.symbols
	}

	if cached, ok := p.fromCache(symbols); ok {
		return cached
	}

	resp, ok := p.fetch(ctx, symbols)
	if !ok {
		return models.PriceResponse{
			Prices:    map[string]models.PricePoint{},
			Source:    SourceError,
			Timestamp: p.now(),
		}
	}
	p.remember(ctx, resp)
	return resp
}

func (p *Price) fromCache(symbols []string) (models.PriceResponse, bool) {
	if p.latest == nil {
		return models.PriceResponse{}, false
	}

	prices := make(map[string]models.PricePoint, len(symbols))
	for _, sym := range symbols {
		pt, ok := p.latest.Prices[sym]
		if !ok {
			return models.PriceResponse{}, false
		}
		prices[sym] = pt
	}

	return models.PriceResponse{
		Prices:    prices,
		Source:    p.latest.Source,
		Timestamp: p.latest.Timestamp,
	}, true
}

func normalizeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
