package calculate

// SupportResistance returns the lowest and highest price among up to lookback
// points preceding the latest one. Both are 0 with fewer than two prices.
func SupportResistance(prices []float64, lookback int) (float64, float64) {
	if len(prices) < 2 {
		return 0, 0
	}

	previous := lastN(prices[:len(prices)-1], lookback)

	support, resistance := previous[0], previous[0]
	for _, p := range previous[1:] {
		if p < support {
			support = p
		}
		if p > resistance {
			resistance = p
		}
	}

	return support, resistance
}

// AverageVolume averages the non-zero volumes preceding the latest one
func AverageVolume(volumes []float64, lookback int) float64 {
	if len(volumes) < 2 {
		return 0
	}

	var filtered []float64
	for _, v := range lastN(volumes[:len(volumes)-1], lookback) {
		if v > 0 {
			filtered = append(filtered, v)
		}
	}

	return Average(filtered)
}
