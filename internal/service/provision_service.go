package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/notify"
	"github.com/kanva-ao/kanva-server/internal/telemetry"
)

// ProvisionService turns a confirmed payment into a delivered access key:
// it issues a fresh USER key and emails the plaintext password to the
// customer.
type ProvisionService struct {
	keys    *KeyService
	sender  notify.Sender
	appURL  string
	metrics *telemetry.Metrics
	logger  zerolog.Logger
}

// NewProvisionService creates a new ProvisionService.
func NewProvisionService(keys *KeyService, sender notify.Sender, appURL string, metrics *telemetry.Metrics, logger zerolog.Logger) *ProvisionService {
	return &ProvisionService{
		keys:    keys,
		sender:  sender,
		appURL:  appURL,
		metrics: metrics,
		logger:  logger.With().Str("service", "provision").Logger(),
	}
}

// ProvisionAccess issues a key for the customer and emails it. The key is
// persisted before the email is attempted, so a delivery failure leaves a
// valid key behind for manual recovery; the error tells the caller the
// customer was not notified.
func (s *ProvisionService) ProvisionAccess(ctx context.Context, email, name string) (*domain.AccessKey, error) {
	label := "Cliente: " + email
	if name != "" {
		label = "Cliente: " + name
	}

	key, err := s.keys.IssueKey(ctx, label, domain.RoleUser, email)
	if err != nil {
		return nil, err
	}
	s.metrics.KeyIssued()

	err = s.sender.SendAccessKey(ctx, notify.AccessMessage{
		To:       email,
		UserName: name,
		Password: key.Password,
		AppURL:   s.appURL,
	})
	if err != nil {
		s.metrics.EmailResult("failure")
		s.logger.Error().Err(err).
			Str("key_id", key.ID).
			Str("email", email).
			Msg("access email failed, key persisted")
		return key, fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	s.metrics.EmailResult("success")
	s.logger.Info().
		Str("key_id", key.ID).
		Str("email", email).
		Msg("access provisioned")
	return key, nil
}
