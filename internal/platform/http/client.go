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

// Client wraps an HTTP client with rate limiting and retries for calls to
// external execution hosts
type Client struct {
	HTTPClient      *http.Client
	Limiter         *rate.Limiter
	AuthToken       string
	MaxRetryTimeout time.Duration
}

// ClientOptions holds options for creating a new Client
type ClientOptions struct {
	Timeout         time.Duration
	RequestsPerSec  int
	MaxRetryTimeout time.Duration
	AuthToken       string
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
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: opts.Timeout,
		},
		Limiter:         rate.NewLimiter(rate.Every(time.Second), opts.RequestsPerSec),
		AuthToken:       opts.AuthToken,
		MaxRetryTimeout: opts.MaxRetryTimeout,
	}
}

// PostJSON sends a JSON payload with rate limiting and exponential-backoff
// retries, decoding the response into out when out is non-nil
func (c *Client) PostJSON(ctx context.Context, url string, payload, out any) error {
	// Wait for rate limiter
	if err := c.Limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.AuthToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.AuthToken)
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			statusErr := &HTTPStatusError{StatusCode: resp.StatusCode}
			// Only server-side failures are retryable
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(statusErr)
			}
			return statusErr
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return backoff.Permanent(fmt.Errorf("decode response: %w", err))
			}
		}
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = c.MaxRetryTimeout
	if backoffStrategy.MaxElapsedTime == 0 {
		backoffStrategy.MaxElapsedTime = 30 * time.Second
	}

	return backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx))
}

// HTTPStatusError represents an error due to a non-200 HTTP status code
type HTTPStatusError struct {
	StatusCode int
}

// Error implements the error interface
func (e *HTTPStatusError) Error() string {
	return "non-200 status code: " + http.StatusText(e.StatusCode)
}
