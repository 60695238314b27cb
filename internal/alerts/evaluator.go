package alerts

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Alias1177/PriceAlerts/models"
)

// Evaluate checks result against the rules of its symbol. It returns the
// notifications that fired and the rules whose state changed; the caller
// must commit the updates together with the rest of the pass. Neither the
// result nor the given rules are modified.
func Evaluate(result models.AnalysisResult, rules []models.AlertRule, now time.Time) ([]models.AlertNotification, []models.AlertRule) {
	var notifications []models.AlertNotification
	var updates []models.AlertRule

	for _, rule := range rules {
		if !rule.Active || rule.Symbol != result.Symbol {
			continue
		}

		if rule.Type == models.AlertTrendReversal {
			n, update, changed := evaluateTrendReversal(result, rule, now)
			if n != nil {
				notifications = append(notifications, *n)
			}
			if changed {
				updates = append(updates, update)
			}
			continue
		}

		if n, ok := evaluateRule(result, rule); ok {
			n.AlertID = rule.ID
			n.Symbol = result.Symbol
			n.Type = rule.Type
			n.Timestamp = now.UTC()
			notifications = append(notifications, n)
		}
	}

	return notifications, updates
}

func evaluateRule(r models.AnalysisResult, rule models.AlertRule) (models.AlertNotification, bool) {
	t := rule.Threshold

	switch rule.Type {
	case models.AlertPriceAbove:
		if r.CurrentPrice > t {
			return notification(r.CurrentPrice, t,
				"%s price is above $%.2f (Current: $%.2f)", r.Symbol, t, r.CurrentPrice), true
		}

	case models.AlertPriceBelow:
		if r.CurrentPrice < t {
			return notification(r.CurrentPrice, t,
				"%s price is below $%.2f (Current: $%.2f)", r.Symbol, t, r.CurrentPrice), true
		}

	case models.AlertRSIOverbought:
		if r.RSI > t {
			return notification(r.RSI, t,
				"%s RSI is overbought at %.2f (Threshold: %.2f)", r.Symbol, r.RSI, t), true
		}

	case models.AlertRSIOversold:
		if r.RSI < t {
			return notification(r.RSI, t,
				"%s RSI is oversold at %.2f (Threshold: %.2f)", r.Symbol, r.RSI, t), true
		}

	case models.AlertMACDCrossover:
		if r.MACD > r.MACDSignal && r.MACD > 0 {
			return notification(r.MACD, r.MACDSignal,
				"%s MACD crossed above signal line (MACD: %.4f, Signal: %.4f)", r.Symbol, r.MACD, r.MACDSignal), true
		}

	case models.AlertMACDCrossunder:
		if r.MACD < r.MACDSignal && r.MACD < 0 {
			return notification(r.MACD, r.MACDSignal,
				"%s MACD crossed below signal line (MACD: %.4f, Signal: %.4f)", r.Symbol, r.MACD, r.MACDSignal), true
		}

	case models.AlertPercentChange:
		if math.Abs(r.PercentChange24h) > t {
			return notification(r.PercentChange24h, t,
				"%s moved %+.2f%% in 24h (Threshold: %.2f%%)", r.Symbol, r.PercentChange24h, t), true
		}

	case models.AlertVolumeSpike:
		if r.AverageVolume > 0 {
			ratio := r.Volume24h / r.AverageVolume
			if ratio > t {
				return notification(ratio, t,
					"%s volume is %.2fx its average (Threshold: %.2fx)", r.Symbol, ratio, t), true
			}
		}

	case models.AlertSupportBreakout:
		level := t
		if level <= 0 {
			level = r.SupportLevel
		}
		if level > 0 && r.CurrentPrice < level {
			return notification(r.CurrentPrice, level,
				"%s broke below support at $%.2f (Current: $%.2f)", r.Symbol, level, r.CurrentPrice), true
		}

	case models.AlertResistanceBreakout:
		level := t
		if level <= 0 {
			level = r.ResistanceLevel
		}
		if level > 0 && r.CurrentPrice > level {
			return notification(r.CurrentPrice, level,
				"%s broke above resistance at $%.2f (Current: $%.2f)", r.Symbol, level, r.CurrentPrice), true
		}
	}

	return models.AlertNotification{}, false
}

func notification(value, threshold float64, format string, args ...any) models.AlertNotification {
	return models.AlertNotification{
		TriggeredValue: value,
		Threshold:      threshold,
		Message:        fmt.Sprintf(format, args...),
	}
}

// evaluateTrendReversal fires when the recorded trend differs from the
// current one. The current trend is always recorded, so a transition fires
// once. A rule with no recorded trend only records it.
func evaluateTrendReversal(r models.AnalysisResult, rule models.AlertRule, now time.Time) (*models.AlertNotification, models.AlertRule, bool) {
	current := string(r.Trend)
	previous, seen := rule.PreviousTrend()

	if seen && previous == current {
		return nil, rule, false
	}

	update := rule.Clone()
	if update.AdditionalParams == nil {
		update.AdditionalParams = make(map[string]any, 1)
	}
	update.AdditionalParams[models.ParamPreviousTrend] = current

	if !seen || strings.EqualFold(previous, current) {
		return nil, update, true
	}

	return &models.AlertNotification{
		AlertID:   rule.ID,
		Symbol:    r.Symbol,
		Type:      rule.Type,
		Message:   fmt.Sprintf("%s trend reversed from %s to %s", r.Symbol, strings.ToUpper(previous), current),
		Timestamp: now.UTC(),
	}, update, true
}
