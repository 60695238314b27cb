package calculate

// MACD returns the last MACD line and signal line values.
// With fewer than slowPeriod prices both are 0.
func MACD(prices []float64, fastPeriod, slowPeriod, signalPeriod int) (float64, float64) {
	if len(prices) == 0 || len(prices) < slowPeriod {
		return 0, 0
	}

	fastEMA := EMASeries(prices, fastPeriod)
	slowEMA := EMASeries(prices, slowPeriod)

	// MACD over the full series, not only past the slow window
	macdHistory := make([]float64, len(prices))
	for i := range prices {
		macdHistory[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine := EMASeries(macdHistory, signalPeriod)

	last := len(prices) - 1
	return macdHistory[last], signalLine[last]
}
