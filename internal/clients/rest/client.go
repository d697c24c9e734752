// Package rest provides a rate-limited, retrying HTTP client shared by all
// provider adapters. It knows nothing about market data semantics.
package rest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"stockintel/internal/common"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultRateInterval = time.Second
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 500 * time.Millisecond
)

// Client is a per-provider HTTP caller enforcing a minimum inter-call
// interval (a leaky bucket of one token per interval, not a sliding window)
// and bounded exponential retry on transient failures. It is safe for
// concurrent use: the limiter serializes token grants and the call bookkeeping
// is guarded independently.
type Client struct {
	provider   string
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	dailyQuota int

	calls atomic.Int64

	mu       sync.Mutex
	lastCall time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateInterval sets the minimum gap between consecutive calls
func WithRateInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// WithRetry sets the retry bound and the base backoff delay. Each retry
// waits retryDelay * 2^attempt; delays are deterministic (no jitter).
func WithRetry(maxRetries int, retryDelay time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = retryDelay
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithDailyQuota sets the provider's known daily request quota. The quota is
// surfaced for observability only — calls beyond it are logged, not blocked.
func WithDailyQuota(quota int) ClientOption {
	return func(c *Client) {
		c.dailyQuota = quota
	}
}

// NewClient creates a rate-limited client for one provider
func NewClient(provider, baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		provider: provider,
		baseURL:  baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:    rate.NewLimiter(rate.Every(DefaultRateInterval), 1),
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		logger:     common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Provider returns the provider name this client is bound to
func (c *Client) Provider() string {
	return c.provider
}

// APIError represents a provider HTTP failure
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: status %d on %s: %s", e.Provider, e.StatusCode, e.Endpoint, e.Message)
}

// Stats is a point-in-time snapshot of the client's call bookkeeping
type Stats struct {
	Provider      string    `json:"provider"`
	Calls         int64     `json:"calls"`
	DailyQuota    int       `json:"daily_quota"`
	QuotaExceeded bool      `json:"quota_exceeded"`
	LastCall      time.Time `json:"last_call,omitempty"`
}

// Stats returns the current call count, quota, and last call time
func (c *Client) Stats() Stats {
	c.mu.Lock()
	last := c.lastCall
	c.mu.Unlock()

	calls := c.calls.Load()
	return Stats{
		Provider:      c.provider,
		Calls:         calls,
		DailyQuota:    c.dailyQuota,
		QuotaExceeded: c.dailyQuota > 0 && calls > int64(c.dailyQuota),
		LastCall:      last,
	}
}

// recordCall advances the last-call timestamp and the call counter. It runs
// on failures too, so a provider that is already rate-limiting us is not
// hammered by the next caller.
func (c *Client) recordCall() {
	c.mu.Lock()
	c.lastCall = time.Now()
	c.mu.Unlock()

	calls := c.calls.Add(1)
	if c.dailyQuota > 0 && calls > int64(c.dailyQuota) {
		c.logger.Warn().
			Str("provider", c.provider).
			Int64("calls", calls).
			Int("daily_quota", c.dailyQuota).
			Msg("Provider daily quota exceeded")
	}
}

// Get performs a rate-limited GET with bounded exponential-backoff retry.
// Transport errors, 429s, and 5xx responses are retried up to the configured
// bound; other non-2xx statuses fail immediately. The returned error is a
// *APIError for HTTP-level failures.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = 5 * time.Minute
	bo.MaxElapsedTime = 0
	bo.Reset()

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		body, retryable, err := c.do(ctx, reqURL, path)
		c.recordCall()
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !retryable || attempt >= c.maxRetries {
			break
		}

		delay := bo.NextBackOff()
		c.logger.Warn().
			Str("provider", c.provider).
			Str("endpoint", path).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Err(err).
			Msg("Retrying provider call")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}

// do executes one request attempt. The second return value reports whether
// the failure is transient.
func (c *Client) do(ctx context.Context, reqURL, path string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("provider", c.provider).Str("endpoint", path).Msg("Provider API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, true, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, &APIError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body), 200),
			Endpoint:   path,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, &APIError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body), 200),
			Endpoint:   path,
		}
	}

	if readErr != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", readErr)
	}

	c.logger.Debug().
		Str("provider", c.provider).
		Str("endpoint", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("Provider API call")

	return body, false, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
