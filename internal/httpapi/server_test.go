package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/PriceAlerts/internal/actor"
	"github.com/Alias1177/PriceAlerts/internal/agents"
	"github.com/Alias1177/PriceAlerts/internal/calculate"
	"github.com/Alias1177/PriceAlerts/internal/notify"
	"github.com/Alias1177/PriceAlerts/internal/storage"
	"github.com/Alias1177/PriceAlerts/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer runs the analysis and alert agents and a price agent that
// never answers
func newTestServer(t *testing.T) *Server {
	t.Helper()
	registry := actor.NewRegistry()

	router := notify.NewRouter()
	router.Handle(notify.SchemeAgent, notify.AgentSender(registry, agents.AlertAgent))

	silent := actor.HandlerFunc(func(context.Context, actor.Envelope) {})
	actors := []*actor.Actor{
		actor.New(agents.AlertAgent, agents.NewAlert(storage.NewMemory(), registry, router, actor.NewQuota(0), agents.AlertOptions{}), 16),
		actor.New(agents.AnalysisAgent, agents.NewAnalysis(storage.NewMemory(), registry, actor.NewQuota(0), calculate.DefaultParams(), 100), 16),
		actor.New(agents.PriceAgent, silent, 16),
	}
	registry.Register(actors...)

	ctx, cancel := context.WithCancel(context.Background())
	for _, a := range actors {
		go a.Run(ctx)
	}
	t.Cleanup(func() {
		cancel()
		for _, a := range actors {
			<-a.Done()
		}
	})

	return NewServer(registry, 200*time.Millisecond)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAlertLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/alerts",
		`{"symbol":"btc","alert_type":"PRICE_ABOVE","threshold":80000,"active":true}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.ConfigureAlertResponse](t, rec)
	require.True(t, created.Success)
	require.NotEmpty(t, created.AlertID)

	rec = do(t, s, http.MethodGet, "/api/v1/alerts?symbol=BTC&active_only=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[models.ListAlertsResponse](t, rec)
	require.Len(t, listed.Rules, 1)
	assert.Equal(t, created.AlertID, listed.Rules[0].ID)
	assert.Equal(t, "BTC", listed.Rules[0].Symbol)

	rec = do(t, s, http.MethodDelete, "/api/v1/alerts/"+created.AlertID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/alerts/"+created.AlertID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfigureAlertDefaultsToActive(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		active bool
	}{
		{"active omitted", `{"symbol":"btc","alert_type":"PRICE_ABOVE","threshold":1}`, true},
		{"explicitly inactive", `{"symbol":"eth","alert_type":"PRICE_ABOVE","threshold":1,"active":false}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/v1/alerts", tt.body)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			created := decode[models.ConfigureAlertResponse](t, rec)

			rec = do(t, s, http.MethodGet, "/api/v1/alerts", "")
			require.Equal(t, http.StatusOK, rec.Code)
			var found *models.AlertRule
			for _, r := range decode[models.ListAlertsResponse](t, rec).Rules {
				if r.ID == created.AlertID {
					found = &r
				}
			}
			require.NotNil(t, found)
			assert.Equal(t, tt.active, found.Active)
		})
	}
}

func TestConfigureAlertValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"symbol":`, http.StatusBadRequest},
		{"unknown type", `{"symbol":"BTC","alert_type":"PRICE_SIDEWAYS","threshold":1,"active":true}`, http.StatusUnprocessableEntity},
		{"negative threshold", `{"symbol":"BTC","alert_type":"PRICE_BELOW","threshold":-5,"active":true}`, http.StatusUnprocessableEntity},
		{"rsi out of range", `{"symbol":"BTC","alert_type":"RSI_OVERSOLD","threshold":120,"active":true}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/v1/alerts", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestPostedPriceTriggersAlert(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/alerts",
		`{"symbol":"BTC","alert_type":"PRICE_ABOVE","threshold":80000,"active":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/prices", `{"symbol":"btc","price":81000}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var triggered models.TriggeredAlertsResponse
	require.Eventually(t, func() bool {
		rec := do(t, s, http.MethodGet, "/api/v1/alerts/triggered?limit=5", "")
		if rec.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &triggered); err != nil {
			return false
		}
		return len(triggered.Alerts) == 1
	}, 2*time.Second, 20*time.Millisecond)
	assert.Contains(t, triggered.Alerts[0].Message, "80000.00")
	assert.Contains(t, triggered.Alerts[0].Message, "81000.00")

	rec = do(t, s, http.MethodGet, "/api/v1/analysis/btc?prediction=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[models.AnalysisResult](t, rec)
	assert.Equal(t, 81000.0, result.CurrentPrice)
	assert.NotEmpty(t, result.Prediction)
}

func TestPostPriceRejectsInvalidPoint(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/prices", `{"symbol":"BTC","price":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/prices", `{"price":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalysisWithoutHistoryIsNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/analysis/DOGE", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAskTimeoutIsGatewayTimeout(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/prices?symbols=BTC", "")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestSubscribe(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/subscribers", `{"address":"smtp:ops@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/subscribers", `{"address":"agent:user-agent"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.SubscribeResponse](t, rec).Success)
}
