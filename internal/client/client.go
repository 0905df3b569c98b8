// Package client talks to the booking API on behalf of the wizard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/diagnosis/numerology-appointments/internal/domain"
	"github.com/diagnosis/numerology-appointments/pkg/logger"
)

const sendMeetingLinkPath = "/api/send-meeting-link"

// APIError is a non-2xx reply from the booking API.
type APIError struct {
	StatusCode int
	Message    string // the "error" field
	Details    string // the "details" field, empty when the server gave none
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("booking api %d: %s: %s", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("booking api %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithBearerToken sends token as the caller identity.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendMeetingLink posts req. idempotencyKey may be empty.
func (c *Client) SendMeetingLink(ctx context.Context, req domain.NotificationRequest, idempotencyKey string) (*domain.MeetingLinkResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := c.baseURL + sendMeetingLinkPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	if requestID, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		httpReq.Header.Set("X-Request-ID", requestID)
	}

	logger.DebugContext(ctx, "Sending booking", "url", url)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Message = payload.Error
			apiErr.Details = payload.Details
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}

	var out domain.MeetingLinkResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}
