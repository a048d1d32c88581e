// Package mailer implements the notifier gateway over the email HTTP service.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Client posts email requests to the external email-sending service.
type Client struct {
	endpoint   string // e.g. "http://mailer:5173/api/email/send-gmail-email"
	httpClient *http.Client
}

// New creates a Client. A zero timeout leaves requests bounded only by ctx.
func New(baseURL, path string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   baseURL + path,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// sendRequest is the wire shape the email service expects.
type sendRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
	Email   string `json:"email"`
}

// Send delivers one email. Any transport error or non-2xx response is a failure.
// It satisfies application.Notifier.
func (c *Client) Send(ctx context.Context, address, subject, body string) bool {
	if err := c.send(ctx, address, subject, body); err != nil {
		log.Warn().Err(err).Str("email", address).Msg("email dispatch failed")
		return false
	}
	log.Debug().Str("email", address).Str("subject", subject).Msg("email dispatched")
	return true
}

func (c *Client) send(ctx context.Context, address, subject, body string) error {
	payload, err := json.Marshal(sendRequest{Subject: subject, Message: body, Email: address})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email service: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("email service: status %d", resp.StatusCode)
	}
	return nil
}
