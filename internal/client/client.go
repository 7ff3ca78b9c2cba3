package client

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

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultSubmitPath = "/order"

	maxResponseBytes = 4 << 20
)

type Config struct {
	BaseURL string
	// Timeout bounds every remote call. Zero means DefaultTimeout.
	Timeout time.Duration
	// Currency is attached to every amount the backend returns.
	Currency currency.Unit
	// SubmitPath is either /order or /orders depending on backend version.
	SubmitPath string
	HTTPClient *http.Client
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	currency   currency.Unit
	submitPath string
	sessions   port.SessionProvider
	logger     *zap.Logger
}

var _ port.StorefrontAPI = (*Client)(nil)

func New(cfg Config, sessions port.SessionProvider, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is empty")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session provider is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	submitPath := cfg.SubmitPath
	if submitPath == "" {
		submitPath = DefaultSubmitPath
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	cur := cfg.Currency
	if cur == (currency.Unit{}) {
		cur = currency.RUB
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout:    timeout,
		currency:   cur,
		submitPath: submitPath,
		sessions:   sessions,
		logger:     logger,
	}, nil
}

// do executes one authenticated call under the configured deadline and returns the raw
// body of a 2xx response. Non-2xx responses come back as *domain.APIError.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sess, err := c.sessions.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("sessions.Session: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("json.Marshal: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := c.logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("request failed", zap.Error(err))
		return nil, c.transportError(parent, ctx, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.transportError(parent, ctx, method, path, err)
	}

	logger.Debug("response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &domain.APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(data),
		}
		if resp.StatusCode == http.StatusUnauthorized {
			logger.Warn("credential rejected, invalidating session")
			c.sessions.Invalidate()
		}
		return data, apiErr
	}

	return data, nil
}

func (c *Client) transportError(parent, ctx context.Context, method, path string, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("%s %s: %w", method, path, parent.Err())
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s %s after %s: %w", method, path, c.timeout, domain.ErrTimeout)
	}
	return fmt.Errorf("%s %s: %w", method, path, err)
}

// errorDetail extracts the server's "detail" field, which is either a message or a list
// of validation entries.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var msg string
	if err := json.Unmarshal(payload.Detail, &msg); err == nil {
		return msg
	}

	return string(payload.Detail)
}
