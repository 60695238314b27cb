package calculate

// Average calculates simple average
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, value := range values {
		sum += value
	}

	return sum / float64(len(values))
}

// MovingAverages returns the arithmetic means of the most recent shortWindow
// and longWindow prices. Each window is clamped to len(prices); callers must
// not pass an empty slice (both values are 0 in that case).
func MovingAverages(prices []float64, shortWindow, longWindow int) (float64, float64) {
	if len(prices) == 0 {
		return 0, 0
	}
	return Average(lastN(prices, shortWindow)), Average(lastN(prices, longWindow))
}

func lastN(values []float64, n int) []float64 {
	if n <= 0 || n > len(values) {
		n = len(values)
	}
	return values[len(values)-n:]
}
