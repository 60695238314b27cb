package analyze

import "github.com/Alias1177/PriceAlerts/models"

// Vote thresholds for the RSI component of the signal
const (
	rsiOversold   = 30.0
	rsiOverbought = 70.0
)

// GenerateSignal tallies three independent votes (trend, RSI, MACD) and
// derives the signal type and its strength from the counts
func GenerateSignal(trend models.Trend, rsi, macd, macdSignal float64) (models.SignalType, models.SignalStrength) {
	// Count bullish and bearish signals
	buySignals := 0
	sellSignals := 0

	// Trend
	switch trend {
	case models.TrendUp:
		buySignals++
	case models.TrendDown:
		sellSignals++
	}

	// RSI signals
	if rsi < rsiOversold {
		buySignals++ // Oversold
	} else if rsi > rsiOverbought {
		sellSignals++ // Overbought
	}

	// MACD signals
	if macd > macdSignal && macd > 0 {
		buySignals++ // Bullish crossover
	} else if macd < macdSignal && macd < 0 {
		sellSignals++ // Bearish crossunder
	}

	signal := models.SignalHold
	if buySignals > sellSignals {
		signal = models.SignalBuy
	} else if sellSignals > buySignals {
		signal = models.SignalSell
	}

	count := max(buySignals, sellSignals)

	strength := models.StrengthWeak
	if count >= 3 {
		strength = models.StrengthStrong
	} else if count == 2 {
		strength = models.StrengthModerate
	}

	return signal, strength
}
