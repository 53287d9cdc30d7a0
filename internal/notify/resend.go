package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	resendEndpoint = "https://api.resend.com/emails"
	resendTimeout  = 15 * time.Second
)

// ResendSender delivers access emails through the Resend HTTP API.
type ResendSender struct {
	apiKey string
	from   string
	client *http.Client
	logger zerolog.Logger
}

// NewResendSender creates a Resend-backed sender. The API key may be empty;
// sends will then fail with ErrNotConfigured.
func NewResendSender(apiKey, from string, logger zerolog.Logger) *ResendSender {
	return &ResendSender{
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: resendTimeout},
		logger: logger.With().Str("notifier", "resend").Logger(),
	}
}

var _ Sender = (*ResendSender)(nil)

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendAccessKey posts the rendered access email to Resend.
func (s *ResendSender) SendAccessKey(ctx context.Context, msg AccessMessage) error {
	if s.apiKey == "" {
		return ErrNotConfigured
	}

	html, err := renderAccessEmail(msg)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(resendRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: accessEmailSubject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("encode resend payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send via resend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Error().
			Int("status", resp.StatusCode).
			Str("to", msg.To).
			Msg("resend rejected the message")
		return fmt.Errorf("resend returned status %d: %s", resp.StatusCode, string(body))
	}

	s.logger.Info().Str("to", msg.To).Msg("access email delivered")
	return nil
}
