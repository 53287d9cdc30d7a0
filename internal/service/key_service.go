// Package service provides business logic services for the Kanva access server.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/config"
	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/lock"
	"github.com/kanva-ao/kanva-server/internal/pkg/crypto"
	"github.com/kanva-ao/kanva-server/internal/repository"
)

const (
	// issueLockTTL bounds how long the issuance lock may be held.
	issueLockTTL = 5 * time.Second

	// issueLockAttempts is how many times issuance waits for the lock.
	issueLockAttempts = 20

	// issueLockRetryDelay is the pause between lock attempts.
	issueLockRetryDelay = 50 * time.Millisecond

	// maxPasswordAttempts bounds the regenerate-until-unique loop. With a
	// 48-character charset and 12 positions a collision is effectively
	// impossible; the bound only guards against a broken store.
	maxPasswordAttempts = 100
)

// KeyService handles access key issuance, validation and quota tracking.
// It owns the seed-key rule: while the store is empty a synthesized default
// key exists, and it is persisted on the first mutation.
type KeyService struct {
	repo   repository.AccessKeyRepository
	locker lock.Locker
	cfg    config.AuthConfig
	logger zerolog.Logger
}

// NewKeyService creates a new KeyService.
func NewKeyService(
	repo repository.AccessKeyRepository,
	locker lock.Locker,
	cfg config.AuthConfig,
	logger zerolog.Logger,
) *KeyService {
	return &KeyService{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		logger: logger.With().Str("service", "key").Logger(),
	}
}

// =============================================================================
// Issuance
// =============================================================================

// IssueKey creates a new unique access key with the default quota and
// persists it. The returned record includes the plaintext password; this is
// the only time it is handed back to the issuing caller.
func (s *KeyService) IssueKey(ctx context.Context, label string, role domain.Role, email string) (*domain.AccessKey, error) {
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}
	if label == "" {
		label = "Acesso " + time.Now().Format("02/01/2006")
	}

	acquired, err := s.acquireIssueLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: issuance lock busy", ErrInternalError)
	}
	defer s.locker.Release(ctx, lock.Keys.KeyIssue())

	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}

	password, err := s.uniquePassword(ctx)
	if err != nil {
		return nil, err
	}

	key := domain.NewAccessKey(newID(), password, label, role, email)
	key.UsageLimit = s.cfg.DefaultUsageLimit

	if err := s.repo.Create(ctx, key); err != nil {
		s.logger.Error().Err(err).Str("label", label).Msg("failed to create access key")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("key_id", key.ID).
		Str("label", key.Label).
		Str("role", string(key.Role)).
		Int("usage_limit", key.UsageLimit).
		Msg("access key issued")

	return key, nil
}

// uniquePassword generates candidate passwords until one does not collide
// with any stored key. The store is re-read before every candidate.
func (s *KeyService) uniquePassword(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxPasswordAttempts; attempt++ {
		candidate := crypto.GenerateAccessPassword()

		exists, err := s.repo.ExistsByPassword(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		if !exists && candidate != s.cfg.SeedPassword && candidate != s.cfg.AdminPassword {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: could not generate a unique password", ErrInternalError)
}

func (s *KeyService) acquireIssueLock(ctx context.Context) (bool, error) {
	for attempt := 0; attempt < issueLockAttempts; attempt++ {
		acquired, err := s.locker.Acquire(ctx, lock.Keys.KeyIssue(), issueLockTTL)
		if err != nil {
			return false, err
		}
		if acquired {
			return true, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(issueLockRetryDelay):
		}
	}
	return false, nil
}

// =============================================================================
// Validation
// =============================================================================

// Validate resolves a submitted password to a role. The configured admin
// password wins outright; otherwise an active stored key decides; otherwise
// the caller is unauthenticated. Pure read, no usage tracking.
func (s *KeyService) Validate(ctx context.Context, password string) (domain.Role, error) {
	if password == "" {
		return domain.RoleNone, nil
	}
	if s.cfg.AdminPassword != "" && password == s.cfg.AdminPassword {
		return domain.RoleAdmin, nil
	}

	key, err := s.repo.GetActiveByPassword(ctx, password)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			if seed := s.seedFor(ctx, password); seed != nil {
				return seed.Role, nil
			}
			return domain.RoleNone, nil
		}
		s.logger.Error().Err(err).Msg("failed to look up access key")
		return domain.RoleNone, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return key.Role, nil
}

// =============================================================================
// Quota tracking
// =============================================================================

// CheckLimit reports whether the key behind the password may run another
// generation, and how many runs remain. The configured admin password is
// exempt and never touches the store.
func (s *KeyService) CheckLimit(ctx context.Context, password string) (domain.QuotaStatus, error) {
	if s.cfg.AdminPassword != "" && password == s.cfg.AdminPassword {
		return domain.QuotaStatus{Allowed: true, Remaining: domain.AdminQuotaRemaining}, nil
	}

	key, err := s.repo.GetByPassword(ctx, password)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			if seed := s.seedFor(ctx, password); seed != nil {
				return domain.QuotaStatus{Allowed: !seed.Exhausted(), Remaining: seed.Remaining()}, nil
			}
			return domain.QuotaStatus{Allowed: false, Remaining: 0}, nil
		}
		return domain.QuotaStatus{}, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return domain.QuotaStatus{Allowed: !key.Exhausted(), Remaining: key.Remaining()}, nil
}

// IncrementUsage records one completed generation against the key behind
// the password. Must be called exactly once per successful generation,
// never on failure. A missing key is a no-op.
func (s *KeyService) IncrementUsage(ctx context.Context, password string) error {
	if password == "" {
		return nil
	}
	// Administrators are exempt from quota tracking.
	if s.cfg.AdminPassword != "" && password == s.cfg.AdminPassword {
		return nil
	}

	if password == s.cfg.SeedPassword {
		if err := s.ensureSeeded(ctx); err != nil {
			return err
		}
	}

	if err := s.repo.IncrementUsage(ctx, password); err != nil {
		s.logger.Error().Err(err).Msg("failed to increment usage")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return nil
}

// ResetUsage sets the usage counter of the key with the given id back to 0.
// A missing key is a no-op.
func (s *KeyService) ResetUsage(ctx context.Context, id string) error {
	if id == domain.DefaultKeyID {
		if err := s.ensureSeeded(ctx); err != nil {
			return err
		}
	}

	if err := s.repo.ResetUsage(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("key_id", id).Msg("failed to reset usage")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("key_id", id).Msg("usage counter reset")
	return nil
}

// =============================================================================
// Administration
// =============================================================================

// ListKeys returns all keys, newest first. While the store is empty it
// returns the synthesized default key without persisting it.
func (s *KeyService) ListKeys(ctx context.Context) ([]*domain.AccessKey, error) {
	keys, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if len(keys) == 0 {
		return []*domain.AccessKey{domain.SeedKey(s.cfg.SeedPassword)}, nil
	}

	return keys, nil
}

// SetKeyStatus toggles a key's active flag.
func (s *KeyService) SetKeyStatus(ctx context.Context, id string, isActive bool) error {
	if id == domain.DefaultKeyID {
		if err := s.ensureSeeded(ctx); err != nil {
			return err
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, isActive); err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("key_id", id).Bool("is_active", isActive).Msg("access key status updated")
	return nil
}

// DeleteKey permanently deletes an access key. The seeded default key is
// protected and can never be deleted.
func (s *KeyService) DeleteKey(ctx context.Context, id string) error {
	if id == domain.DefaultKeyID {
		return ErrDefaultKeyProtected
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("key_id", id).Msg("access key deleted")
	return nil
}

// =============================================================================
// Seed key handling
// =============================================================================

// seedFor returns the synthesized default key when the store is empty and
// the password matches the seed credential.
func (s *KeyService) seedFor(ctx context.Context, password string) *domain.AccessKey {
	if password != s.cfg.SeedPassword {
		return nil
	}
	count, err := s.repo.Count(ctx)
	if err != nil || count > 0 {
		return nil
	}
	return domain.SeedKey(s.cfg.SeedPassword)
}

// ensureSeeded persists the synthesized default key before the first
// mutation touches an empty store. Once any key exists this is a no-op.
func (s *KeyService) ensureSeeded(ctx context.Context) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if count > 0 {
		return nil
	}

	if err := s.repo.Create(ctx, domain.SeedKey(s.cfg.SeedPassword)); err != nil {
		// A concurrent mutation may have seeded first; that is fine.
		if errors.Is(err, domain.ErrKeyExists) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("key_id", domain.DefaultKeyID).Msg("seeded default access key")
	return nil
}
