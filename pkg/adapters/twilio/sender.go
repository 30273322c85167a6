// Package twilio delivers text messages through the Twilio REST API.
package twilio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/textremind/internal/logging"
)

const defaultBaseURL = "https://api.twilio.com/2010-04-01"

// ErrNotConfigured is returned by Send when account credentials are missing.
var ErrNotConfigured = errors.New("twilio credentials not configured")

// Sender implements ports.SMSSender.
type Sender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
	logger     *slog.Logger
}

type Option func(*Sender)

// WithBaseURL points the sender at another API root (tests, proxies).
func WithBaseURL(u string) Option {
	return func(s *Sender) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Sender) {
		s.client = c
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sender) {
		s.logger = logger
	}
}

// New creates a Sender for the given account. from is the sending number.
func New(accountSID, authToken, from string, opts ...Option) *Sender {
	s := &Sender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    defaultBaseURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send posts one message. Non-2xx responses are returned as errors carrying
// Twilio's own message when the body has one.
func (s *Sender) Send(ctx context.Context, to, body string) error {
	if s.accountSID == "" || s.authToken == "" {
		return ErrNotConfigured
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.baseURL, url.PathEscape(s.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		s.logger.Debug("message sent", "to", to)
		return nil
	}

	var apiErr apiError
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
		return fmt.Errorf("twilio: status %d (code %d): %s", resp.StatusCode, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("twilio: status %d", resp.StatusCode)
}
