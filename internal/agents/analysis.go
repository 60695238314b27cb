package agents

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/PriceAlerts/internal/actor"
	"github.com/Alias1177/PriceAlerts/internal/analyze"
	"github.com/Alias1177/PriceAlerts/internal/calculate"
	"github.com/Alias1177/PriceAlerts/internal/history"
	"github.com/Alias1177/PriceAlerts/internal/storage"
	"github.com/Alias1177/PriceAlerts/models"
)

// Storage keys of the analysis agent
const (
	KeyHistoricalData  = "historical_data"
	KeyAnalysisResults = "analysis_results"
)

// Analysis owns the price history, computes analysis results and forwards
// them to the alert agent
type Analysis struct {
	book   *history.Book
	latest map[string]models.AnalysisResult
	params calculate.Params
	store  storage.KeyedStore
	out    actor.Sender
	quota  *actor.Quota
	logger zerolog.Logger
	now    func() time.Time
}

func NewAnalysis(store storage.KeyedStore, out actor.Sender, quota *actor.Quota, params calculate.Params, historySize int) *Analysis {
	return &Analysis{
		book:   history.NewBook(historySize),
		latest: make(map[string]models.AnalysisResult),
		params: params,
		store:  store,
		out:    out,
		quota:  quota,
		logger: log.With().Str("component", "agent").Str("agent", AnalysisAgent).Logger(),
		now:    nowUTC,
	}
}

// Start restores the persisted history and results
func (a *Analysis) Start(ctx context.Context) {
	var snapshot map[string][]models.PricePoint
	if _, err := storage.LoadJSON(ctx, a.store, KeyHistoricalData, &snapshot); err != nil {
		a.logger.Error().Err(err).Msg("Failed to load history")
	}
	a.book.Restore(snapshot)

	var results map[string]models.AnalysisResult
	if _, err := storage.LoadJSON(ctx, a.store, KeyAnalysisResults, &results); err != nil {
		a.logger.Error().Err(err).Msg("Failed to load analysis results")
	}
	for sym, r := range results {
		a.latest[sym] = r
	}

	a.logger.Info().Strs("symbols", a.book.Symbols()).Msg("Analysis agent started")
}

func (a *Analysis) Receive(ctx context.Context, env actor.Envelope) {
	switch msg := env.Msg.(type) {
	case models.PriceUpdate:
		a.ingest(ctx, []models.PricePoint{msg.Data})
	case models.PriceResponse:
		a.ingest(ctx, sortedPoints(msg.Prices))
	case models.AnalysisRequest:
		respond(ctx, a.out, AnalysisAgent, env, a.handleAnalysisRequest(ctx, env.From, msg), a.logger)
	default:
		a.logger.Warn().Str("from", env.From).Msgf("Unexpected message %T", env.Msg)
	}
}

func sortedPoints(prices map[string]models.PricePoint) []models.PricePoint {
	symbols := make([]string, 0, len(prices))
	for sym := range prices {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	points := make([]models.PricePoint, 0, len(prices))
	for _, sym := range symbols {
		p := prices[sym]
		if p.Symbol == "" {
			p.Symbol = sym
		}
		points = append(points, p)
	}
	return points
}

// ingest appends new points, analyzes the touched symbols, persists and
// forwards the results
func (a *Analysis) ingest(ctx context.Context, points []models.PricePoint) {
	now := a.now()
	var results []models.AnalysisResult

	for _, p := range points {
		p.Symbol = strings.ToUpper(strings.TrimSpace(p.Symbol))
		if p.Symbol == "" || p.Price <= 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			a.logger.Warn().Str("symbol", p.Symbol).Float64("price", p.Price).Msg("Ignoring invalid price point")
			continue
		}
		if p.Timestamp.IsZero() {
			p.Timestamp = now
		}

		if s, ok := a.book.Series(p.Symbol); ok {
			if last, _ := s.Latest(); !p.Timestamp.After(last.Timestamp) {
				a.logger.Debug().Str("symbol", p.Symbol).Time("timestamp", p.Timestamp).Msg("Skipping point not newer than history")
				continue
			}
		}

		series := a.book.Append(p)
		result, ok := analyze.Analyze(p.Symbol, series.Points(), a.params, now)
		if !ok {
			continue
		}
		a.latest[p.Symbol] = result
		results = append(results, result)

		a.logger.Info().
			Str("symbol", p.Symbol).
			Float64("price", p.Price).
			Int("history", series.Len()).
			Msg(result.String())
	}

	if len(results) == 0 {
		return
	}

	a.persist(ctx)

	for _, r := range results {
		if err := a.out.Send(ctx, AnalysisAgent, AlertAgent, r); err != nil {
			a.logger.Error().Err(err).Str("symbol", r.Symbol).Msg("Failed to forward analysis result")
		}
	}
}

func (a *Analysis) persist(ctx context.Context) {
	if err := storage.SaveJSON(ctx, a.store, KeyHistoricalData, a.book.Snapshot()); err != nil {
		a.logger.Error().Err(err).Msg("Failed to store history")
	}
	if err := storage.SaveJSON(ctx, a.store, KeyAnalysisResults, a.latest); err != nil {
		a.logger.Error().Err(err).Msg("Failed to store analysis results")
	}
}

// handleAnalysisRequest returns the latest result for the symbol. Without
// history it asks the price agent for data and returns no results.
func (a *Analysis) handleAnalysisRequest(ctx context.Context, from string, req models.AnalysisRequest) models.AnalysisResponse {
	empty := models.AnalysisResponse{Results: []models.AnalysisResult{}}

	if !a.quota.Allow(from) {
		a.logger.Warn().Str("from", from).Msg("Analysis request rate limit exceeded")
		return empty
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return empty
	}

	result, ok := a.latest[symbol]
	if !ok {
		series, has := a.book.Series(symbol)
		if has {
			result, ok = analyze.Analyze(symbol, series.Points(), a.params, a.now())
		}
	}
	if !ok {
		a.logger.Info().Str("symbol", symbol).Msg("No history, requesting prices")
		if err := a.out.Send(ctx, AnalysisAgent, PriceAgent, models.PriceRequest{Symbols: []string{symbol}}); err != nil {
			a.logger.Error().Err(err).Msg("Failed to request prices")
		}
		return empty
	}

	if req.IncludePrediction {
		result.Prediction = analyze.Prediction(result)
	}
	return models.AnalysisResponse{Results: []models.AnalysisResult{result}}
}
