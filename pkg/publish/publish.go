// Package publish ships measured run results to a results collector over
// HTTP, for teams that aggregate benchmark history off the box.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/ja7ad/efficiency/pkg/bench"
)

// Client posts bench results to a single collector endpoint. Transient
// failures (5xx, connection resets) are retried with backoff.
type Client struct {
	url    string
	token  string
	http   *http.Client
	logger *slog.Logger
}

// New creates a publisher for the given endpoint. token may be empty for
// unauthenticated collectors.
func New(url, token string, logger *slog.Logger) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil // suppress default logging

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		url:    url,
		token:  token,
		http:   retryClient.StandardClient(),
		logger: logger,
	}
}

// Publish posts one result as JSON.
func (c *Client) Publish(ctx context.Context, res bench.Result) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("publish %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("collector rejected result",
			"url", c.url,
			"status", resp.StatusCode,
			"body", string(snippet),
		)
		return fmt.Errorf("publish %s: collector returned %d", c.url, resp.StatusCode)
	}

	c.logger.Info("result published", "url", c.url, "run_id", res.RunID)
	return nil
}
