package calculate

// Params holds the indicator windows
type Params struct {
	ShortWindow      int
	LongWindow       int
	RSIPeriod        int
	MACDFastPeriod   int
	MACDSlowPeriod   int
	MACDSignalPeriod int
	LevelLookback    int
}

// DefaultParams returns the standard 5/20 MA, RSI 14, MACD 12/26/9 windows
func DefaultParams() Params {
	return Params{
		ShortWindow:      5,
		LongWindow:       20,
		RSIPeriod:        14,
		MACDFastPeriod:   12,
		MACDSlowPeriod:   26,
		MACDSignalPeriod: 9,
		LevelLookback:    20,
	}
}

// Indicators is the set of values computed from one price history
type Indicators struct {
	ShortMA    float64
	LongMA     float64
	RSI        float64
	MACD       float64
	MACDSignal float64
	Support    float64
	Resistance float64
}

// CalculateAllIndicators computes every indicator for prices (oldest first).
// prices must not be empty.
func CalculateAllIndicators(prices []float64, params Params) Indicators {
	shortMA, longMA := MovingAverages(prices, params.ShortWindow, params.LongWindow)
	macd, signal := MACD(prices, params.MACDFastPeriod, params.MACDSlowPeriod, params.MACDSignalPeriod)
	support, resistance := SupportResistance(prices, params.LevelLookback)

	return Indicators{
		ShortMA:    shortMA,
		LongMA:     longMA,
		RSI:        RSI(prices, params.RSIPeriod),
		MACD:       macd,
		MACDSignal: signal,
		Support:    support,
		Resistance: resistance,
	}
}
