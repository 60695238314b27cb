package models

import (
	"fmt"
	"strings"
	"time"
)

// PricePoint represents a single price observation for a symbol
type PricePoint struct {
	Symbol           string    `json:"symbol"`
	Price            float64   `json:"price"`
	Timestamp        time.Time `json:"timestamp"`
	Volume24h        float64   `json:"volume_24h,omitempty"`
	PercentChange24h float64   `json:"percent_change_24h,omitempty"`
	MarketCap        float64   `json:"market_cap,omitempty"`
}

func (p PricePoint) String() string {
	return fmt.Sprintf("%s: $%.2f (%+.2f%% 24h)", p.Symbol, p.Price, p.PercentChange24h)
}

// Trend is the coarse direction of a price series
type Trend string

const (
	TrendUp       Trend = "UP"
	TrendDown     Trend = "DOWN"
	TrendSideways Trend = "SIDEWAYS"
)

// SignalType is the trading signal derived from indicators
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalHold SignalType = "HOLD"
	SignalNone SignalType = "NONE"
)

// SignalStrength is the confidence tier of a signal
type SignalStrength string

const (
	StrengthWeak     SignalStrength = "WEAK"
	StrengthModerate SignalStrength = "MODERATE"
	StrengthStrong   SignalStrength = "STRONG"
)

// AnalysisResult holds the indicators and classification computed for one symbol
type AnalysisResult struct {
	Symbol           string         `json:"symbol"`
	CurrentPrice     float64        `json:"current_price"`
	ShortMA          float64        `json:"moving_avg_short"`
	LongMA           float64        `json:"moving_avg_long"`
	RSI              float64        `json:"rsi"`
	MACD             float64        `json:"macd"`
	MACDSignal       float64        `json:"macd_signal"`
	Trend            Trend          `json:"trend"`
	Signal           SignalType     `json:"signal"`
	SignalStrength   SignalStrength `json:"signal_strength"`
	SupportLevel     float64        `json:"support_level,omitempty"`
	ResistanceLevel  float64        `json:"resistance_level,omitempty"`
	PercentChange24h float64        `json:"percent_change_24h,omitempty"`
	Volume24h        float64        `json:"volume_24h,omitempty"`
	AverageVolume    float64        `json:"average_volume,omitempty"`
	Prediction       string         `json:"prediction,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
}

func (r AnalysisResult) String() string {
	signal := "NONE"
	if r.Signal != SignalNone {
		signal = fmt.Sprintf("%s (%s)", r.Signal, strings.ToLower(string(r.SignalStrength)))
	}
	return fmt.Sprintf("%s: Trend: %s, Signal: %s", r.Symbol, r.Trend, signal)
}

// AlertType enumerates the supported alert rule kinds
type AlertType string

const (
	AlertPriceAbove         AlertType = "PRICE_ABOVE"
	AlertPriceBelow         AlertType = "PRICE_BELOW"
	AlertPercentChange      AlertType = "PERCENT_CHANGE"
	AlertRSIOverbought      AlertType = "RSI_OVERBOUGHT"
	AlertRSIOversold        AlertType = "RSI_OVERSOLD"
	AlertMACDCrossover      AlertType = "MACD_CROSSOVER"
	AlertMACDCrossunder     AlertType = "MACD_CROSSUNDER"
	AlertTrendReversal      AlertType = "TREND_REVERSAL"
	AlertSupportBreakout    AlertType = "SUPPORT_BREAKOUT"
	AlertResistanceBreakout AlertType = "RESISTANCE_BREAKOUT"
	AlertVolumeSpike        AlertType = "VOLUME_SPIKE"
)

// AlertTypes lists every known alert type
var AlertTypes = []AlertType{
	AlertPriceAbove,
	AlertPriceBelow,
	AlertPercentChange,
	AlertRSIOverbought,
	AlertRSIOversold,
	AlertMACDCrossover,
	AlertMACDCrossunder,
	AlertTrendReversal,
	AlertSupportBreakout,
	AlertResistanceBreakout,
	AlertVolumeSpike,
}

// Valid reports whether t is one of AlertTypes
func (t AlertType) Valid() bool {
	for _, known := range AlertTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParamPreviousTrend is the additional_params key TREND_REVERSAL rules carry between passes
const ParamPreviousTrend = "previous_trend"

// AlertRule is a user-configured alert
type AlertRule struct {
	ID               string         `json:"alert_id"`
	Symbol           string         `json:"symbol"`
	Type             AlertType      `json:"alert_type"`
	Threshold        float64        `json:"threshold"`
	Active           bool           `json:"active"`
	Description      string         `json:"description,omitempty"`
	AdditionalParams map[string]any `json:"additional_params,omitempty"`
}

// PreviousTrend returns the trend recorded by the last TREND_REVERSAL evaluation
func (r AlertRule) PreviousTrend() (string, bool) {
	if r.AdditionalParams == nil {
		return "", false
	}
	v, ok := r.AdditionalParams[ParamPreviousTrend].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Clone returns a copy whose AdditionalParams can be modified independently
func (r AlertRule) Clone() AlertRule {
	out := r
	if r.AdditionalParams != nil {
		out.AdditionalParams = make(map[string]any, len(r.AdditionalParams))
		for k, v := range r.AdditionalParams {
			out.AdditionalParams[k] = v
		}
	}
	return out
}

func (r AlertRule) String() string {
	status := "ACTIVE"
	if !r.Active {
		status = "INACTIVE"
	}
	desc := ""
	if r.Description != "" {
		desc = " - " + r.Description
	}
	return fmt.Sprintf("[%s] %s %s %g%s", status, r.Symbol, r.Type, r.Threshold, desc)
}

// AlertNotification is emitted when a rule fires
type AlertNotification struct {
	AlertID        string    `json:"alert_id"`
	Symbol         string    `json:"symbol"`
	Type           AlertType `json:"alert_type"`
	TriggeredValue float64   `json:"triggered_value"`
	Threshold      float64   `json:"threshold"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
}

func (n AlertNotification) String() string {
	return fmt.Sprintf("ALERT: %s - %s", n.Symbol, n.Message)
}

// PendingDelivery tracks a notification that has not reached every subscriber yet
type PendingDelivery struct {
	Notification AlertNotification `json:"alert"`
	Attempts     int               `json:"attempts"`
	LastAttempt  time.Time         `json:"last_attempt"`
}
