package dexscreener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"dex-pair-monitor/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout      = 15 * time.Second
	DefaultMaxRetries   = 0
	DefaultRetryDelay   = 1 * time.Second
	DefaultMaxDelay     = 10 * time.Second
	DefaultBackoffMult  = 2.0
	DefaultMaxBodyBytes = 8 << 20
	DefaultUserAgent    = "dex-pair-monitor/1.0"
)

// Fetch errors.
var (
	// ErrUnexpectedStatus is returned for any non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrDecode is returned when the response body is not a valid envelope.
	ErrDecode = errors.New("decode response")
)

// FetchError wraps any failure of a single fetch attempt.
// The refresh loop counts these toward its circuit breaker.
type FetchError struct {
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client fetches pair lists from a DexScreener-compatible HTTP endpoint.
type Client struct {
	client       *http.Client
	maxRetries   int
	retryDelay   time.Duration
	maxDelay     time.Duration
	backoffMult  float64
	maxBodyBytes int64
	userAgent    string
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets retry attempts within one fetch. Defaults to 0:
// the refresh loop's error budget is the retry policy.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a new upstream client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		client:       &http.Client{Timeout: DefaultTimeout},
		maxRetries:   DefaultMaxRetries,
		retryDelay:   DefaultRetryDelay,
		maxDelay:     DefaultMaxDelay,
		backoffMult:  DefaultBackoffMult,
		maxBodyBytes: DefaultMaxBodyBytes,
		userAgent:    DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPairs issues a GET to endpoint and decodes the pair list.
// Every failure is returned as *FetchError.
func (c *Client) FetchPairs(ctx context.Context, endpoint string) ([]RawPair, error) {
	start := time.Now()
	pairs, err := c.fetch(ctx, endpoint)
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.RecordFetch(status, time.Since(start).Seconds())
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: err}
	}
	return pairs, nil
}

// fetch performs the GET with optional retries and exponential backoff.
func (c *Client) fetch(ctx context.Context, endpoint string) ([]RawPair, error) {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			lastErr = fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, truncate(string(body), 200))
			continue
		}

		pairs, err := DecodeResponse(body)
		if err != nil {
			// A malformed body is not retried
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return pairs, nil
	}

	if c.maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
