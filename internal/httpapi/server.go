// Package httpapi exposes the agents over HTTP. Every handler is a Tell or
// an Ask against the actor registry; handlers never touch agent state.
package httpapi

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/PriceAlerts/internal/actor"
	"github.com/Alias1177/PriceAlerts/internal/agents"
	"github.com/Alias1177/PriceAlerts/models"
)

// Server is the HTTP control surface
type Server struct {
	registry   *actor.Registry
	askTimeout time.Duration
	engine     *gin.Engine
	logger     zerolog.Logger
}

func NewServer(registry *actor.Registry, askTimeout time.Duration) *Server {
	if askTimeout <= 0 {
		askTimeout = 10 * time.Second
	}

	s := &Server{
		registry:   registry,
		askTimeout: askTimeout,
		engine:     gin.New(),
		logger:     log.With().Str("component", "http").Logger(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

// Handler returns the http.Handler serving every route
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.health)

	v1 := s.engine.Group("/api/v1")
	v1.GET("/prices", s.getPrices)
	v1.POST("/prices", s.postPrice)
	v1.GET("/analysis/:symbol", s.getAnalysis)
	v1.GET("/alerts", s.listAlerts)
	v1.POST("/alerts", s.configureAlert)
	v1.GET("/alerts/triggered", s.triggeredAlerts)
	v1.DELETE("/alerts/:id", s.deleteAlert)
	v1.POST("/subscribers", s.subscribe)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client", c.ClientIP()).
			Msg("Request handled")
	}
}

// sender identifies the caller for per-sender quotas
func sender(c *gin.Context) string {
	return "http:" + c.ClientIP()
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, actor.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, actor.ErrStopped), errors.Is(err, actor.ErrUnknownAddress), errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}

	s.logger.Error().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("Request failed")
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getPrices(c *gin.Context) {
	var symbols []string
	if raw := c.Query("symbols"); raw != "" {
		symbols = strings.Split(raw, ",")
	}

	resp, err := actor.AskAs[models.PriceResponse](c.Request.Context(), s.registry, sender(c), agents.PriceAgent,
		models.PriceRequest{Symbols: symbols}, s.askTimeout)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// postPrice feeds one observation into the analysis agent
func (s *Server) postPrice(c *gin.Context) {
	var point models.PricePoint
	if err := c.ShouldBindJSON(&point); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	point.Symbol = strings.ToUpper(strings.TrimSpace(point.Symbol))
	if point.Symbol == "" || point.Price <= 0 || math.IsNaN(point.Price) || math.IsInf(point.Price, 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol and a positive price are required"})
		return
	}

	err := s.registry.Send(c.Request.Context(), sender(c), agents.AnalysisAgent, models.PriceUpdate{Data: point})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "symbol": point.Symbol})
}

func (s *Server) getAnalysis(c *gin.Context) {
	req := models.AnalysisRequest{
		Symbol:            c.Param("symbol"),
		IncludePrediction: c.Query("prediction") == "true",
	}

	resp, err := actor.AskAs[models.AnalysisResponse](c.Request.Context(), s.registry, sender(c), agents.AnalysisAgent, req, s.askTimeout)
	if err != nil {
		s.fail(c, err)
		return
	}
	if len(resp.Results) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no analysis available yet", "symbol": strings.ToUpper(req.Symbol)})
		return
	}
	c.JSON(http.StatusOK, resp.Results[0])
}

func (s *Server) listAlerts(c *gin.Context) {
	req := models.ListAlertsRequest{
		Symbol:     c.Query("symbol"),
		ActiveOnly: c.Query("active_only") == "true",
	}

	resp, err := actor.AskAs[models.ListAlertsResponse](c.Request.Context(), s.registry, sender(c), agents.AlertAgent, req, s.askTimeout)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// alertRuleRequest is the POST /alerts body. A missing "active" means active.
type alertRuleRequest struct {
	ID               string           `json:"alert_id"`
	Symbol           string           `json:"symbol"`
	Type             models.AlertType `json:"alert_type"`
	Threshold        float64          `json:"threshold"`
	Active           *bool            `json:"active"`
	Description      string           `json:"description"`
	AdditionalParams map[string]any   `json:"additional_params"`
}

func (r alertRuleRequest) rule() models.AlertRule {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return models.AlertRule{
		ID:               r.ID,
		Symbol:           r.Symbol,
		Type:             r.Type,
		Threshold:        r.Threshold,
		Active:           active,
		Description:      r.Description,
		AdditionalParams: r.AdditionalParams,
	}
}

func (s *Server) configureAlert(c *gin.Context) {
	var req alertRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := actor.AskAs[models.ConfigureAlertResponse](c.Request.Context(), s.registry, sender(c), agents.AlertAgent,
		models.ConfigureAlertRequest{Rule: req.rule()}, s.askTimeout)
	if err != nil {
		s.fail(c, err)
		return
	}

	status := http.StatusCreated
	if !resp.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, resp)
}

func (s *Server) deleteAlert(c *gin.Context) {
	resp, err := actor.AskAs[models.DeleteAlertResponse](c.Request.Context(), s.registry, sender(c), agents.AlertAgent,
		models.DeleteAlertRequest{AlertID: c.Param("id")}, s.askTimeout)
	if err != nil {
		s.fail(c, err)
		return
	}

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusNotFound
	}
	c.JSON(status, resp)
}

func (s *Server) triggeredAlerts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	resp, err := actor.AskAs[models.TriggeredAlertsResponse](c.Request.Context(), s.registry, sender(c), agents.AlertAgent,
		models.TriggeredAlertsRequest{Limit: limit}, s.askTimeout)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) subscribe(c *gin.Context) {
	var req models.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := actor.AskAs[models.SubscribeResponse](c.Request.Context(), s.registry, sender(c), agents.AlertAgent, req, s.askTimeout)
	if err != nil {
		s.fail(c, err)
		return
	}

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, resp)
}
