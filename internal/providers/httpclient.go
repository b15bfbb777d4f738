package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// HTTPClientConfig configures the shared provider HTTP client.
type HTTPClientConfig struct {
	// Timeout is the request timeout for HTTP operations.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxRetries is the maximum number of retry attempts on 429 and 5xx.
	MaxRetries int

	// RetryDelay is the base delay between retries.
	RetryDelay time.Duration

	// UserAgent is the User-Agent header sent with requests. Providers ask
	// for an identifying UA with a contact address (polite-pool rules).
	UserAgent string
}

// HTTPClient wraps http.Client with rate limiting and retries. All provider
// calls are idempotent GETs, so retrying is always safe.
// It is safe for concurrent use.
type HTTPClient struct {
	client      *http.Client
	rateLimiter *RateLimiter
	config      HTTPClientConfig
}

// NewHTTPClient creates a new HTTP client with rate limiting. The client
// waits on the rate limiter before each attempt and retries on 429 (Too Many
// Requests, honoring Retry-After) and on 5xx server errors.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 10
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = 10
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "arrestlit-corpus-service/1.0"
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.BurstSize),
		config:      cfg,
	}
}

// Do executes an HTTP request with rate limiting and retries.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.rateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt < c.config.MaxRetries {
				if err := c.waitForRetry(req.Context(), c.config.RetryDelay); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr
		}

		if c.shouldRetry(resp.StatusCode) {
			retryDelay := c.getRetryDelay(resp)

			// Drain and close before retrying so the connection can be reused.
			if resp.Body != nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}

			if attempt < c.config.MaxRetries {
				lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
				if err := c.waitForRetry(req.Context(), retryDelay); err != nil {
					return nil, err
				}
				continue
			}

			return nil, fmt.Errorf("max retries exhausted after %d attempts, last status: %d", c.config.MaxRetries+1, resp.StatusCode)
		}

		return resp, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("unexpected error: no response received")
}

// shouldRetry returns true if the status code indicates we should retry.
func (c *HTTPClient) shouldRetry(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return statusCode >= 500 && statusCode < 600
}

// getRetryDelay determines how long to wait before retrying. It respects the
// Retry-After header if present, otherwise uses the configured retry delay.
func (c *HTTPClient) getRetryDelay(resp *http.Response) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return c.config.RetryDelay
	}

	if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
		if seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		return c.config.RetryDelay
	}

	if t, err := http.ParseTime(retryAfter); err == nil {
		delay := time.Until(t)
		if delay > 0 {
			return delay
		}
	}

	return c.config.RetryDelay
}

// waitForRetry waits for the specified duration, respecting context cancellation.
func (c *HTTPClient) waitForRetry(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
