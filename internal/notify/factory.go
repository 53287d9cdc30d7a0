package notify

import (
	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/config"
)

// FromConfig builds the sender selected by the email configuration.
func FromConfig(cfg config.EmailConfig, logger zerolog.Logger) Sender {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.From, logger)
	case "mock":
		return NewMockSender(logger)
	default:
		return NewResendSender(cfg.APIKey, cfg.From, logger)
	}
}
