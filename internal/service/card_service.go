package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/pkg/crypto"
	"github.com/kanva-ao/kanva-server/internal/repository"
)

// CardService manages the workspace board of notes, ideas and tasks.
type CardService struct {
	repo   repository.CardRepository
	logger zerolog.Logger
}

// NewCardService creates a new CardService.
func NewCardService(repo repository.CardRepository, logger zerolog.Logger) *CardService {
	return &CardService{
		repo:   repo,
		logger: logger.With().Str("service", "card").Logger(),
	}
}

// CardInput carries the caller-supplied fields of a card.
type CardInput struct {
	Title    string
	Content  string
	Type     domain.CardType
	Color    string
	ImageURL string
}

// CreateCard validates the input and persists a new card.
func (s *CardService) CreateCard(ctx context.Context, in CardInput) (*domain.Card, error) {
	if in.Type == "" {
		in.Type = domain.CardTypeNote
	}
	if !in.Type.IsValid() {
		return nil, domain.ErrInvalidCardType
	}
	if in.Title == "" && in.Content == "" {
		return nil, fmt.Errorf("%w: card needs a title or content", ErrInvalidLabel)
	}

	card := domain.NewCard(newID(), in.Title, in.Content, in.Type, in.Color)
	card.ImageURL = in.ImageURL

	if err := s.repo.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("card_id", card.ID).
		Str("type", string(card.Type)).
		Msg("card created")
	return card, nil
}

// GetCard retrieves a card by id.
func (s *CardService) GetCard(ctx context.Context, id string) (*domain.Card, error) {
	card, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrCardNotFound) {
			return nil, domain.ErrCardNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return card, nil
}

// ListCards returns all cards, newest first.
func (s *CardService) ListCards(ctx context.Context) ([]*domain.Card, error) {
	cards, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return cards, nil
}

// UpdateCard applies the input to an existing card.
func (s *CardService) UpdateCard(ctx context.Context, id string, in CardInput) (*domain.Card, error) {
	card, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrCardNotFound) {
			return nil, domain.ErrCardNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if in.Type != "" {
		if !in.Type.IsValid() {
			return nil, domain.ErrInvalidCardType
		}
		card.Type = in.Type
	}
	if in.Title != "" {
		card.Title = in.Title
	}
	if in.Content != "" {
		card.Content = in.Content
	}
	if in.Color != "" {
		card.Color = in.Color
	}
	if in.ImageURL != "" {
		card.ImageURL = in.ImageURL
	}

	if err := s.repo.Update(ctx, card); err != nil {
		if errors.Is(err, domain.ErrCardNotFound) {
			return nil, domain.ErrCardNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return card, nil
}

// DeleteCard removes a card by id.
func (s *CardService) DeleteCard(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrCardNotFound) {
			return domain.ErrCardNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	s.logger.Info().Str("card_id", id).Msg("card deleted")
	return nil
}

// newID returns a UUID, falling back to a timestamp-based id when the
// random source is unavailable.
func newID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return crypto.FallbackID()
	}
	return id.String()
}
