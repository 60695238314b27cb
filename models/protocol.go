package models

import "time"

// Messages exchanged between agents. Encoding is the transport's concern.

// PriceUpdate carries a single new observation
type PriceUpdate struct {
	Data PricePoint `json:"data"`
}

// PriceRequest asks the price agent for the latest prices
type PriceRequest struct {
	Symbols []string `json:"symbols"`
}

// PriceResponse carries a batch of prices
type PriceResponse struct {
	Prices    map[string]PricePoint `json:"prices"`
	Source    string                `json:"source"`
	Timestamp time.Time             `json:"timestamp"`
}

// AnalysisRequest asks for the latest analysis of a symbol
type AnalysisRequest struct {
	Symbol            string `json:"symbol"`
	IncludePrediction bool   `json:"include_prediction"`
}

// AnalysisResponse carries zero or more analysis results
type AnalysisResponse struct {
	Results []AnalysisResult `json:"results"`
}

type ConfigureAlertRequest struct {
	Rule AlertRule `json:"config"`
}

type ConfigureAlertResponse struct {
	Success bool   `json:"success"`
	AlertID string `json:"alert_id,omitempty"`
	Message string `json:"message,omitempty"`
}

type DeleteAlertRequest struct {
	AlertID string `json:"alert_id"`
}

type DeleteAlertResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ListAlertsRequest filters by symbol when Symbol is non-empty
type ListAlertsRequest struct {
	Symbol     string `json:"symbol,omitempty"`
	ActiveOnly bool   `json:"active_only"`
}

type ListAlertsResponse struct {
	Rules []AlertRule `json:"alerts"`
}

// SubscribeRequest registers a delivery destination for alert notifications
type SubscribeRequest struct {
	Address string `json:"address"`
}

type SubscribeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// TriggeredAlertsRequest asks for the most recent triggered notifications
type TriggeredAlertsRequest struct {
	Limit int `json:"limit"`
}

type TriggeredAlertsResponse struct {
	Alerts []AlertNotification `json:"alerts"`
}

// InboxRequest asks a subscriber agent for the notifications it received
type InboxRequest struct{}

type InboxResponse struct {
	Alerts []AlertNotification `json:"alerts"`
}

// FetchTick triggers a price fetch cycle
type FetchTick struct{}

// RetryTick triggers a flush of pending deliveries
type RetryTick struct{}
