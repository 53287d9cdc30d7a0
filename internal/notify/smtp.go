package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"
)

// SMTPSender delivers access emails through a plain SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	logger zerolog.Logger
}

// NewSMTPSender creates an SMTP-backed sender.
func NewSMTPSender(host string, port int, username, password, from string, logger zerolog.Logger) *SMTPSender {
	var dialer *gomail.Dialer
	if host != "" {
		dialer = gomail.NewDialer(host, port, username, password)
	}
	return &SMTPSender{
		dialer: dialer,
		from:   from,
		logger: logger.With().Str("notifier", "smtp").Logger(),
	}
}

var _ Sender = (*SMTPSender)(nil)

// SendAccessKey renders and relays the access email over SMTP.
func (s *SMTPSender) SendAccessKey(ctx context.Context, msg AccessMessage) error {
	if s.dialer == nil {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	html, err := renderAccessEmail(msg)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", accessEmailSubject)
	m.SetBody("text/html", html)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error().Err(err).Str("to", msg.To).Msg("smtp delivery failed")
		return fmt.Errorf("send via smtp: %w", err)
	}

	s.logger.Info().Str("to", msg.To).Msg("access email delivered")
	return nil
}
