package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/travel-butler/trip-engine/internal/shared/metrics"
	"github.com/travel-butler/trip-engine/pkg/config"
)

// TokenSource supplies the bearer token for gateway requests.
// An empty token means the request goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token, typically from the environment.
type StaticTokenSource struct {
	value string
}

func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{value: token}
}

func (s *StaticTokenSource) Token(ctx context.Context) (string, error) {
	return s.value, nil
}

// Client is the HTTP client for the capability gateway. Requests that
// hit an unavailable gateway (503) are retried once with a fixed delay
// before giving up.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	retryCount int
	retryDelay backoff.BackOff
	logger     *slog.Logger
	collector  metrics.Collector
	cfg        config.GatewayConfig
}

func NewClient(cfg config.GatewayConfig, tokens TokenSource, logger *slog.Logger, collector metrics.Collector) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tokens:    tokens,
		logger:    logger,
		collector: collector,
		cfg:       cfg,
	}
}

// Get performs a GET request against the gateway and decodes the
// JSON response body into out.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}

// Post performs a POST request with a JSON body against the gateway
// and decodes the JSON response body into out.
func (c *Client) Post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request payload: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, path, encoded)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.cfg.RetryDelay), uint64(c.cfg.RetryCount)),
		ctx,
	)

	attempt := 0
	return backoff.RetryWithData(func() ([]byte, error) {
		attempt++
		if attempt > 1 {
			c.logger.Warn("Retrying gateway request",
				"method", method,
				"path", path,
				"attempt", attempt)
			c.collector.RecordGatewayRetry(ctx)
		}
		return c.doOnce(ctx, method, path, payload)
	}, policy)
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to build gateway request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to obtain gateway token: %w", err))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		// Only a 503 response is retried; a transport failure is not a
		// cold start.
		c.logger.Warn("Gateway request failed", "method", method, "path", path, "error", err)
		return nil, backoff.Permanent(fmt.Errorf("gateway request failed: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to read gateway response: %w", err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, ErrGatewayUnavailable
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, backoff.Permanent(ErrAuthRequired)
	default:
		return nil, backoff.Permanent(&GatewayError{
			StatusCode: resp.StatusCode,
			Detail:     extractDetail(body),
		})
	}
}

// extractDetail pulls a human readable message out of a gateway error
// body, which uses either {"detail": ...} or {"error": ...}.
func extractDetail(body []byte) string {
	var envelope struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return strings.TrimSpace(string(body))
	}
	if envelope.Detail != "" {
		return envelope.Detail
	}
	if envelope.Error != "" {
		return envelope.Error
	}
	return strings.TrimSpace(string(body))
}

// Healthy reports whether the gateway health endpoint answers.
func (c *Client) Healthy(ctx context.Context) bool {
	var status struct {
		Status string `json:"status"`
	}
	if err := c.Get(ctx, "/health", &status); err != nil {
		return false
	}
	return status.Status == "ok" || status.Status == ""
}
