package calculate

// EMASeries returns the exponential moving average of every prefix of values.
// The series is seeded with the first value and uses alpha = 2/(span+1).
func EMASeries(values []float64, span int) []float64 {
	if len(values) == 0 {
		return nil
	}
	if span < 1 {
		span = 1
	}

	alpha := 2.0 / float64(span+1)

	ema := make([]float64, len(values))
	ema[0] = values[0]
	for i := 1; i < len(values); i++ {
		ema[i] = values[i]*alpha + ema[i-1]*(1-alpha)
	}

	return ema
}

// EMA returns the last value of EMASeries
func EMA(values []float64, span int) float64 {
	series := EMASeries(values, span)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}
