package analyze

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/PriceAlerts/internal/calculate"
	"github.com/Alias1177/PriceAlerts/models"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func generateTestPoints(n int, generator func(int) models.PricePoint) []models.PricePoint {
	points := make([]models.PricePoint, n)
	for i := 0; i < n; i++ {
		points[i] = generator(i)
	}
	return points
}

func pricesOf(points []models.PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Price
	}
	return out
}

func TestDetermineTrend(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		shortMA  float64
		longMA   float64
		expected models.Trend
	}{
		{
			name:     "single price",
			prices:   []float64{100},
			shortMA:  100,
			longMA:   90,
			expected: models.TrendSideways,
		},
		{
			name:     "short above long",
			prices:   []float64{100, 101},
			shortMA:  105,
			longMA:   100,
			expected: models.TrendUp,
		},
		{
			name:     "short below long",
			prices:   []float64{100, 101},
			shortMA:  95,
			longMA:   100,
			expected: models.TrendDown,
		},
		{
			name:     "equal averages, recent jump",
			prices:   []float64{100, 102},
			shortMA:  101,
			longMA:   101,
			expected: models.TrendUp,
		},
		{
			name:     "equal averages, recent drop",
			prices:   []float64{100, 98},
			shortMA:  99,
			longMA:   99,
			expected: models.TrendDown,
		},
		{
			name:     "equal averages, small move",
			prices:   []float64{100, 100.5},
			shortMA:  100.25,
			longMA:   100.25,
			expected: models.TrendSideways,
		},
		{
			name:     "exactly one percent is sideways",
			prices:   []float64{100, 101},
			shortMA:  100.5,
			longMA:   100.5,
			expected: models.TrendSideways,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetermineTrend(tt.prices, tt.shortMA, tt.longMA)
			if result != tt.expected {
				t.Errorf("DetermineTrend() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestGenerateSignal(t *testing.T) {
	tests := []struct {
		name         string
		trend        models.Trend
		rsi          float64
		macd         float64
		macdSignal   float64
		wantSignal   models.SignalType
		wantStrength models.SignalStrength
	}{
		{
			name:         "all votes bullish",
			trend:        models.TrendUp,
			rsi:          25,
			macd:         1.5,
			macdSignal:   1.0,
			wantSignal:   models.SignalBuy,
			wantStrength: models.StrengthStrong,
		},
		{
			name:         "all votes bearish",
			trend:        models.TrendDown,
			rsi:          75,
			macd:         -1.5,
			macdSignal:   -1.0,
			wantSignal:   models.SignalSell,
			wantStrength: models.StrengthStrong,
		},
		{
			name:         "two bullish votes",
			trend:        models.TrendUp,
			rsi:          50,
			macd:         0.5,
			macdSignal:   0.2,
			wantSignal:   models.SignalBuy,
			wantStrength: models.StrengthModerate,
		},
		{
			name:         "conflicting votes hold",
			trend:        models.TrendUp,
			rsi:          80,
			macd:         0,
			macdSignal:   0,
			wantSignal:   models.SignalHold,
			wantStrength: models.StrengthWeak,
		},
		{
			name:         "no votes hold",
			trend:        models.TrendSideways,
			rsi:          50,
			macd:         0,
			macdSignal:   0,
			wantSignal:   models.SignalHold,
			wantStrength: models.StrengthWeak,
		},
		{
			name:         "macd above signal but negative does not vote",
			trend:        models.TrendDown,
			rsi:          50,
			macd:         -0.5,
			macdSignal:   -1.0,
			wantSignal:   models.SignalSell,
			wantStrength: models.StrengthWeak,
		},
		{
			name:         "rsi boundaries do not vote",
			trend:        models.TrendSideways,
			rsi:          30,
			macd:         0,
			macdSignal:   0,
			wantSignal:   models.SignalHold,
			wantStrength: models.StrengthWeak,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal, strength := GenerateSignal(tt.trend, tt.rsi, tt.macd, tt.macdSignal)
			assert.Equal(t, tt.wantSignal, signal)
			assert.Equal(t, tt.wantStrength, strength)
		})
	}
}

func TestAnalyzeIncreasingSeries(t *testing.T) {
	points := generateTestPoints(20, func(i int) models.PricePoint {
		return models.PricePoint{
			Symbol:    "BTC",
			Price:     100 + float64(i)*2,
			Timestamp: testNow.Add(time.Duration(i) * time.Minute),
		}
	})

	result, ok := Analyze("BTC", points, calculate.DefaultParams(), testNow)
	require.True(t, ok)

	assert.Equal(t, models.TrendUp, result.Trend)
	assert.Greater(t, result.ShortMA, result.LongMA)
	assert.Equal(t, 138.0, result.CurrentPrice)
	assert.Equal(t, 100.0, result.RSI, "no losses in the window")
	assert.Equal(t, 0.0, result.MACD, "fewer than 26 points")
	assert.Equal(t, models.SignalHold, result.Signal, "trend buy vote offset by overbought RSI")
	assert.Equal(t, 100.0, result.SupportLevel)
	assert.Equal(t, 136.0, result.ResistanceLevel)
	assert.Equal(t, testNow, result.Timestamp)
}

func TestAnalyzeEmptyHistory(t *testing.T) {
	_, ok := Analyze("BTC", nil, calculate.DefaultParams(), testNow)
	assert.False(t, ok)
}

func TestAnalyzeSinglePoint(t *testing.T) {
	points := []models.PricePoint{{Symbol: "ETH", Price: 1500, Volume24h: 10, PercentChange24h: -3.5}}

	result, ok := Analyze("ETH", points, calculate.DefaultParams(), testNow)
	require.True(t, ok)

	assert.Equal(t, models.TrendSideways, result.Trend)
	assert.Equal(t, calculate.NeutralRSI, result.RSI)
	assert.Equal(t, 1500.0, result.ShortMA)
	assert.Equal(t, -3.5, result.PercentChange24h)
	assert.Zero(t, result.AverageVolume)
}

func TestAnalyzeFallingSeriesSells(t *testing.T) {
	points := generateTestPoints(40, func(i int) models.PricePoint {
		return models.PricePoint{Symbol: "SOL", Price: 200 - float64(i)*3}
	})

	result, ok := Analyze("SOL", points, calculate.DefaultParams(), testNow)
	require.True(t, ok)

	assert.Equal(t, models.TrendDown, result.Trend)
	assert.Less(t, result.RSI, 30.0+1e-9)
	assert.Less(t, result.MACD, result.MACDSignal)
	// RSI is 0 which votes buy, trend and MACD vote sell
	assert.Equal(t, models.SignalSell, result.Signal)
	assert.Equal(t, models.StrengthModerate, result.SignalStrength)
	assert.Contains(t, Prediction(result), "BEARISH")
	assert.Less(t, pricesOf(points)[39], result.LongMA)
}
