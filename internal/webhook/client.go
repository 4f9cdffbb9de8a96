// Package webhook delivers scrape results back to the tracker server over
// HTTP and ingests them on the receiving side.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/socialscope/tracker/internal/tracker"
)

// Client posts result payloads with a fixed retry schedule. Delivery is
// best-effort: the worker reports success or gives up, it never errors out.
type Client struct {
	url        string
	attempts   int
	retryDelay time.Duration
	http       *http.Client
	logger     *zap.Logger
}

func NewClient(url string, attempts int, retryDelay, timeout time.Duration, logger *zap.Logger) *Client {
	if attempts <= 0 {
		attempts = 3
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return &Client{
		url:        url,
		attempts:   attempts,
		retryDelay: retryDelay,
		http:       &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Send posts the payload, retrying on any failure with a fixed delay between
// attempts. Returns true once a 2xx response arrives.
func (c *Client) Send(ctx context.Context, payload tracker.ResultPayload) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("result payload not serializable", zap.Error(err))
		return false
	}

	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err := c.post(ctx, body); err != nil {
			c.logger.Warn("webhook delivery failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.attempts),
				zap.String("url", c.url),
				zap.Error(err))
			if attempt < c.attempts {
				select {
				case <-ctx.Done():
					return false
				case <-time.After(c.retryDelay):
				}
			}
			continue
		}
		c.logger.Info("webhook delivered",
			zap.Int64("profile_id", payload.ProfileID),
			zap.String("status", string(payload.Status)))
		return true
	}

	c.logger.Error("webhook delivery abandoned",
		zap.Int64("profile_id", payload.ProfileID),
		zap.Int("attempts", c.attempts))
	return false
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
