package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Client is a wrapper for HTTP client with rate limiting
type Client struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter

	maxRetries      int
	maxRetryTimeout time.Duration
}

// ClientOptions holds options for creating a new Client
type ClientOptions struct {
	Timeout         time.Duration
	RequestsPerSec  int
	MaxRetries      int // 0 retries until MaxRetryTimeout elapses
	MaxRetryTimeout time.Duration
}

// NewClient creates a new HTTP client with rate limiting
func NewClient(opts ClientOptions) *Client {
	// Set default values if not provided
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	limit := rate.Inf
	if opts.RequestsPerSec > 0 {
		limit = rate.Every(time.Second / time.Duration(opts.RequestsPerSec))
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: opts.Timeout,
		},
		Limiter:         rate.NewLimiter(limit, max(opts.RequestsPerSec, 1)),
		maxRetries:      opts.MaxRetries,
		maxRetryTimeout: opts.MaxRetryTimeout,
	}
}

// DoRequest performs an HTTP request with rate limiting and retries.
// Client errors other than 429 are not retried.
func (c *Client) DoRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	// Wait for rate limiter
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// Use exponential backoff for retries
	var resp *http.Response
	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(err)
			}
			req.Body = body
		}

		var err error
		resp, err = c.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			statusErr := &HTTPStatusError{StatusCode: resp.StatusCode}
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(statusErr)
			}
			return statusErr
		}
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = c.maxRetryTimeout

	var strategy backoff.BackOff = backoffStrategy
	if c.maxRetries > 0 {
		strategy = backoff.WithMaxRetries(strategy, uint64(c.maxRetries))
	}

	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		return nil, err
	}

	return resp, nil
}

// PostJSON encodes payload and POSTs it to url
func (c *Client) PostJSON(ctx context.Context, url string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.DoRequest(ctx, req)
}

// HTTPStatusError represents an error due to a non-200 HTTP status code
type HTTPStatusError struct {
	StatusCode int
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	return "non-200 status code: " + http.StatusText(e.StatusCode)
}
