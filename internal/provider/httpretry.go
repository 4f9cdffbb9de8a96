package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RetryClient issues JSON HTTP requests with a capped attempt count and a
// doubling inter-attempt delay. Every provider's outbound calls go through
// this client.
type RetryClient struct {
	client    *http.Client
	attempts  int
	baseDelay time.Duration
	logger    *zap.Logger
}

// NewRetryClient builds a RetryClient. Zero values fall back to 3 attempts
// with a 1s initial delay.
func NewRetryClient(client *http.Client, attempts int, baseDelay time.Duration, logger *zap.Logger) *RetryClient {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if attempts <= 0 {
		attempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryClient{client: client, attempts: attempts, baseDelay: baseDelay, logger: logger}
}

// DoJSON sends a request with an optional JSON body and decodes the JSON
// response into out (when out is non-nil). Non-2xx responses and transport
// errors are retried; the last failure is surfaced, wrapped as an HTTPError
// when the upstream answered.
func (c *RetryClient) DoJSON(ctx context.Context, method, url string, body any, out any) error {
	var lastErr error
	delay := c.baseDelay
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry wait canceled: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
		lastErr = c.doOnce(ctx, method, url, body, out)
		if lastErr == nil {
			return nil
		}
		c.logger.Warn("provider http call failed",
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
	}
	return lastErr
}

// Retry runs fn under the same capped-attempt, doubling-delay policy the
// JSON client uses, for provider calls whose transport is not this client
// (HTML fetches, file downloads).
func Retry(ctx context.Context, attempts int, baseDelay time.Duration, logger *zap.Logger, op string, fn func() error) error {
	if attempts <= 0 {
		attempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry wait canceled: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		logger.Warn("provider call failed",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
	}
	return lastErr
}

func (c *RetryClient) doOnce(ctx context.Context, method, url string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var data any
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&data)
		return &HTTPError{URL: url, Method: method, Status: resp.StatusCode, Data: data}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
