package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/textremind/internal/logging"
	"github.com/aretw0/textremind/pkg/domain"
	"github.com/aretw0/textremind/pkg/ports"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-call request ID.
const RequestIDHeader = "X-Request-ID"

var _ ports.Transport = (*Client)(nil)

// Client implements ports.Transport over the JSON API.
type Client struct {
	baseURL   string
	http      *http.Client
	timeout   *time.Duration
	logger    *slog.Logger
	requestID func() string
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests. The client is never
// modified; a timeout set with WithTimeout applies to a copy.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithTimeout sets the timeout of every request.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		cl.timeout = &d
	}
}

// WithClientLogger sets a custom structured logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// NewClient creates a transport for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 10 * time.Second},
		logger:    logging.NewNop(),
		requestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 10 * time.Second}
	}
	if c.timeout != nil {
		hc := *c.http
		hc.Timeout = *c.timeout
		c.http = &hc
	}
	return c
}

// Send posts payload to endpoint. It returns the decoded response object on any
// status below 400, a *domain.APIError otherwise, and wraps domain.ErrUnreachable
// when no usable response came back.
func (c *Client) Send(ctx context.Context, endpoint string, payload map[string]any) (map[string]any, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	id := c.requestID()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, id)

	c.logger.Debug("sending request", "endpoint", endpoint, "request_id", id)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrUnreachable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &domain.APIError{Status: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		apiErr.Status = resp.StatusCode
		return nil, apiErr
	}

	out := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", domain.ErrUnreachable, err)
	}
	return out, nil
}
