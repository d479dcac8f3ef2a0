package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// doRequest makes an HTTP request to OpenRouter, retrying transient failures
// up to maxRetries attempts. Returns the number of attempts made.
func (c *OpenRouterClient) doRequest(ctx context.Context, path string, orReq *openRouterRequest) (*openRouterResponse, int, error) {
	bodyBytes, err := json.Marshal(orReq)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	attempt := 0
	for attempt < c.maxRetries {
		attempt++
		// Check context before each attempt
		if err := ctx.Err(); err != nil {
			return nil, attempt, err
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, attempt, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("HTTP-Referer", "https://github.com/jackzampolin/storyboard")
		req.Header.Set("X-Title", "Storyboard")

		resp, err := c.client.Do(req)
		if err != nil {
			// Network error - retry
			lastErr = fmt.Errorf("request failed: %w", err)
			c.sleep(ctx, attempt)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			c.sleep(ctx, attempt)
			continue
		}

		if shouldRetryStatus(resp.StatusCode) {
			lastErr = fmt.Errorf("OpenRouter error (status %d): %s", resp.StatusCode, truncate(string(respBody), 500))
			c.sleep(ctx, attempt)
			continue
		}

		// Non-retryable error
		if resp.StatusCode != http.StatusOK {
			return nil, attempt, fmt.Errorf("OpenRouter error (status %d): %s", resp.StatusCode, truncate(string(respBody), 500))
		}

		var orResp openRouterResponse
		if err := json.Unmarshal(respBody, &orResp); err != nil {
			return nil, attempt, fmt.Errorf("failed to unmarshal response: %w", err)
		}

		if orResp.Error != nil {
			return nil, attempt, fmt.Errorf("OpenRouter API error (code %v): %s", orResp.Error.Code, orResp.Error.Message)
		}

		return &orResp, attempt, nil
	}

	return nil, attempt, fmt.Errorf("max attempts (%d) exceeded: %w", c.maxRetries, lastErr)
}

// shouldRetryStatus returns true for status codes that should be retried.
func shouldRetryStatus(statusCode int) bool {
	switch statusCode {
	case 429: // Rate Limited
		return true
	case 520, 521, 522, 523, 524: // Cloudflare errors
		return true
	default:
		return statusCode >= 500
	}
}

// sleep waits before the next attempt with exponential backoff, respecting context cancellation.
func (c *OpenRouterClient) sleep(ctx context.Context, attempt int) {
	if attempt >= c.maxRetries {
		return
	}
	delay := c.retryDelay * time.Duration(1<<(attempt-1))
	if delay > 10*time.Second {
		delay = 10 * time.Second
	}

	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
