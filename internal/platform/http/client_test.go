package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestClient() *Client {
	return NewClient(ClientOptions{
		Timeout:         time.Second,
		RequestsPerSec:  100,
		MaxRetries:      3,
		MaxRetryTimeout: 5 * time.Second,
	})
}

func TestDoRequestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := newTestClient().DoRequest(context.Background(), req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoRequestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = newTestClient().DoRequest(context.Background(), req)
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPostJSONResendsBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload["symbol"] != "BTC" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := newTestClient().PostJSON(context.Background(), srv.URL, map[string]string{"symbol": "BTC"})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewClientRateLimit(t *testing.T) {
	tests := []struct {
		name           string
		requestsPerSec int
		limit          rate.Limit
	}{
		{"default", 0, 5},
		{"configured", 20, 20},
		{"negative is unlimited", -3, rate.Inf},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(ClientOptions{RequestsPerSec: tt.requestsPerSec})
			assert.InDelta(t, float64(tt.limit), float64(c.Limiter.Limit()), 0.001)
			assert.GreaterOrEqual(t, c.Limiter.Burst(), 1)
		})
	}
}
