// Package notify delivers transactional email for the identity flows.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/imamteguh/backend-fullstack-taskman/internal/errors"
	"github.com/imamteguh/backend-fullstack-taskman/internal/httpclient"
)

// Mailer defines the interface for sending a transactional email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// APIMailer sends email through an HTTP mail provider API.
type APIMailer struct {
	client *httpclient.CircuitBreakerClient
	apiURL string
	token  string
	from   string
	logger *slog.Logger
}

// NewAPIMailer creates a mailer backed by an HTTP mail provider.
func NewAPIMailer(client *httpclient.CircuitBreakerClient, apiURL, token, from string, logger *slog.Logger) *APIMailer {
	return &APIMailer{
		client: client,
		apiURL: apiURL,
		token:  token,
		from:   from,
		logger: logger,
	}
}

type sendRequest struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	TextBody string `json:"TextBody"`
}

type sendResponse struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

// Send posts the message to the provider. Any provider failure is
// reported as a notification failure so callers can surface it without
// rolling back committed state.
func (m *APIMailer) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(sendRequest{
		From:     m.from,
		To:       to,
		Subject:  subject,
		TextBody: body,
	})
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Server-Token", m.token)

	resp, err := m.client.Do(ctx, req)
	if err != nil {
		m.logger.ErrorContext(ctx, "mail provider call failed", "error", err)
		return apperrors.NotificationFailed()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

		var pr sendResponse
		if json.Unmarshal(raw, &pr) == nil && pr.Message != "" {
			m.logger.ErrorContext(ctx, "mail provider rejected message",
				"status", resp.StatusCode,
				"provider_code", pr.ErrorCode,
				"provider_message", pr.Message,
			)
			return apperrors.NotificationFailed()
		}

		m.logger.ErrorContext(ctx, "mail provider rejected message",
			"status", resp.StatusCode,
		)
		return apperrors.NotificationFailed()
	}

	m.logger.InfoContext(ctx, "email sent", "to", to, "subject", subject)
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used in
// development and tests.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a mailer that only logs.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message and reports success.
func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.InfoContext(ctx, "email (log only)", "to", to, "subject", subject, "body", body)
	return nil
}
