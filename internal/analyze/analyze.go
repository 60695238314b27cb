package analyze

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Alias1177/PriceAlerts/internal/calculate"
	"github.com/Alias1177/PriceAlerts/models"
)

// recentChangeThreshold is the last-step relative move (1%) that decides the
// trend when the moving averages coincide
const recentChangeThreshold = 0.01

// DetermineTrend classifies the direction of prices from the moving averages,
// falling back to the most recent price change when they are equal
func DetermineTrend(prices []float64, shortMA, longMA float64) models.Trend {
	if len(prices) < 2 {
		return models.TrendSideways
	}

	if !nearlyEqual(shortMA, longMA) {
		if shortMA > longMA {
			return models.TrendUp
		}
		return models.TrendDown
	}

	prev := prices[len(prices)-2]
	if prev == 0 {
		return models.TrendSideways
	}

	recentChange := (prices[len(prices)-1] - prev) / prev
	switch {
	case recentChange > recentChangeThreshold:
		return models.TrendUp
	case recentChange < -recentChangeThreshold:
		return models.TrendDown
	default:
		return models.TrendSideways
	}
}

func nearlyEqual(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= 1e-9*scale
}

// Analyze computes the full AnalysisResult for a symbol from its history
// (oldest first). It returns false when points is empty.
func Analyze(symbol string, points []models.PricePoint, params calculate.Params, now time.Time) (models.AnalysisResult, bool) {
	if len(points) == 0 {
		return models.AnalysisResult{}, false
	}

	prices := make([]float64, len(points))
	volumes := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
		volumes[i] = p.Volume24h
	}
	latest := points[len(points)-1]

	ind := calculate.CalculateAllIndicators(prices, params)
	trend := DetermineTrend(prices, ind.ShortMA, ind.LongMA)
	signal, strength := GenerateSignal(trend, ind.RSI, ind.MACD, ind.MACDSignal)

	return models.AnalysisResult{
		Symbol:           symbol,
		CurrentPrice:     latest.Price,
		ShortMA:          ind.ShortMA,
		LongMA:           ind.LongMA,
		RSI:              ind.RSI,
		MACD:             ind.MACD,
		MACDSignal:       ind.MACDSignal,
		Trend:            trend,
		Signal:           signal,
		SignalStrength:   strength,
		SupportLevel:     ind.Support,
		ResistanceLevel:  ind.Resistance,
		PercentChange24h: latest.PercentChange24h,
		Volume24h:        latest.Volume24h,
		AverageVolume:    calculate.AverageVolume(volumes, params.LevelLookback),
		Timestamp:        now.UTC(),
	}, true
}

// Prediction renders a short outlook for a result
func Prediction(r models.AnalysisResult) string {
	strength := strings.ToLower(string(r.SignalStrength))

	switch r.Signal {
	case models.SignalBuy:
		return fmt.Sprintf("BULLISH: %s likely to rise toward %.2f (%s signal, RSI %.1f)",
			r.Symbol, math.Max(r.CurrentPrice, r.ResistanceLevel), strength, r.RSI)
	case models.SignalSell:
		target := r.CurrentPrice
		if r.SupportLevel > 0 {
			target = math.Min(r.CurrentPrice, r.SupportLevel)
		}
		return fmt.Sprintf("BEARISH: %s likely to fall toward %.2f (%s signal, RSI %.1f)",
			r.Symbol, target, strength, r.RSI)
	default:
		return fmt.Sprintf("NEUTRAL: %s expected to trade sideways, trend %s (RSI %.1f)",
			r.Symbol, r.Trend, r.RSI)
	}
}
