package wawi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/loyalty/backend/internal/domain/wawi"
	"github.com/loyalty/backend/internal/infrastructure/config"
)

// maxResponseSize is the maximum allowed response size from the WAWI API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// searchReadPath is the single generic read endpoint of the WAWI API
const searchReadPath = "/api/search_read"

// searchReadRequest is the wire shape of a generic read call
type searchReadRequest struct {
	Model  string           `json:"model"`
	Fields []string         `json:"fields,omitempty"`
	Domain []wawi.Condition `json:"domain,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
	Order  string           `json:"order,omitempty"`
}

// searchReadResponse is the wire shape of a generic read response
type searchReadResponse struct {
	Records []wawi.Record `json:"records"`
}

// Client issues authenticated HTTP calls to the WAWI API with bounded
// retry on auth expiry, rate limiting and transient server errors.
type Client struct {
	cfg        *config.WawiConfig
	tokens     wawi.TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a WAWI API client
func NewClient(cfg *config.WawiConfig, tokens wawi.TokenSource, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", wawi.ErrNotConfigured, err)
	}
	return &Client{
		cfg:    cfg,
		tokens: tokens,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.Named("wawi-client"),
	}, nil
}

// SearchRead fetches records of the given model, passing field
// projection, filter domain and limit/offset pagination through verbatim.
func (c *Client) SearchRead(ctx context.Context, model string, query wawi.Query) ([]wawi.Record, error) {
	body, err := c.request(ctx, searchReadPath, searchReadRequest{
		Model:  model,
		Fields: query.Fields,
		Domain: query.Domain,
		Limit:  query.Limit,
		Offset: query.Offset,
		Order:  query.Order,
	})
	if err != nil {
		return nil, err
	}

	var resp searchReadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse search_read response: %v", wawi.ErrInvalidResponse, err)
	}
	return resp.Records, nil
}

// request performs one authenticated call with the bounded retry policy:
//   - 401: invalidate token, wait baseDelay x attempt, re-acquire, retry
//   - 429/5xx/network failure: wait and retry, token kept
//   - other non-2xx: surface immediately as a typed APIError
func (c *Client) request(ctx context.Context, path string, payload any) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			if err := c.backoff(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		body, err := c.doOnce(ctx, path, payload)
		if err == nil {
			return body, nil
		}
		if !wawi.IsRetryable(err) {
			return nil, err
		}

		lastErr = err
		c.logger.Warn("WAWI request failed, retrying",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", c.cfg.MaxRetries),
			zap.Error(err),
		)
	}

	return nil, fmt.Errorf("wawi: retry budget exhausted: %w", lastErr)
}

// doOnce performs a single attempt
func (c *Client) doOnce(ctx context.Context, path string, payload any) ([]byte, error) {
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		// Acquisition failures count against the auth retry budget
		return nil, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("wawi: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("wawi: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", wawi.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", wawi.ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		if err := c.tokens.ClearToken(ctx); err != nil {
			c.logger.Warn("Failed to clear WAWI token", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: HTTP 401", wawi.ErrAuthFailed)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP 429", wawi.ErrRateLimited)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", wawi.ErrUnavailable, resp.StatusCode)
	default:
		return nil, &wawi.APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}

// backoff waits baseDelay x attempt, honoring context cancellation
func (c *Client) backoff(ctx context.Context, attempt int) error {
	delay := c.cfg.RetryBaseDelay * time.Duration(attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsAuthError reports whether the error chain contains an auth failure.
// The orchestrator uses this for its consecutive-error cooldown.
func IsAuthError(err error) bool {
	return errors.Is(err, wawi.ErrAuthFailed)
}

// Ensure Client implements the SearchClient port
var _ wawi.SearchClient = (*Client)(nil)
