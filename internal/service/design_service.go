package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/ai"
	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/repository"
	"github.com/kanva-ao/kanva-server/internal/storage"
	"github.com/kanva-ao/kanva-server/internal/telemetry"
)

// DesignService runs the design generation pipeline: quota check, prompt
// assembly, generation, quality review with bounded retries, image storage
// and usage accounting. Usage is charged exactly once, after a design has
// been stored successfully.
type DesignService struct {
	repo        repository.DesignRepository
	keys        *KeyService
	generator   ai.ImageGenerator
	reviewer    ai.DesignReviewer
	expander    ai.IdeaExpander
	remover     ai.BackgroundRemover
	store       storage.Backend
	metrics     *telemetry.Metrics
	maxAttempts int
	logger      zerolog.Logger
}

// DesignServiceDeps bundles the collaborators of a DesignService. The AI
// fields may be nil when the corresponding provider is not configured.
type DesignServiceDeps struct {
	Repo        repository.DesignRepository
	Keys        *KeyService
	Generator   ai.ImageGenerator
	Reviewer    ai.DesignReviewer
	Expander    ai.IdeaExpander
	Remover     ai.BackgroundRemover
	Store       storage.Backend
	Metrics     *telemetry.Metrics
	MaxAttempts int
}

// NewDesignService creates a new DesignService.
func NewDesignService(deps DesignServiceDeps, logger zerolog.Logger) *DesignService {
	if deps.MaxAttempts < 1 {
		deps.MaxAttempts = 1
	}
	return &DesignService{
		repo:        deps.Repo,
		keys:        deps.Keys,
		generator:   deps.Generator,
		reviewer:    deps.Reviewer,
		expander:    deps.Expander,
		remover:     deps.Remover,
		store:       deps.Store,
		metrics:     deps.Metrics,
		maxAttempts: deps.MaxAttempts,
		logger:      logger.With().Str("service", "design").Logger(),
	}
}

// =============================================================================
// Generation
// =============================================================================

// GenerateDesign runs the full pipeline for a brief. The caller's password
// gates the operation: exhausted keys are rejected before any model call,
// and the key is charged one usage only after the design is stored.
func (s *DesignService) GenerateDesign(ctx context.Context, password string, brief domain.DesignBrief, refs []ai.Image) (*domain.Design, error) {
	if brief.MainIdea == "" && brief.Objective == "" {
		return nil, domain.ErrEmptyBrief
	}
	if brief.Category != "" && !brief.Category.IsValid() {
		return nil, domain.ErrInvalidCategory
	}

	quota, err := s.keys.CheckLimit(ctx, password)
	if err != nil {
		return nil, err
	}
	if !quota.Allowed {
		s.metrics.QuotaExceeded()
		return nil, ErrQuotaExceeded
	}

	if s.generator == nil {
		return nil, ErrGenerationNotConfigured
	}

	prompt := buildDesignPrompt(brief)
	img, err := s.generateReviewed(ctx, prompt, brief, refs)
	if err != nil {
		s.metrics.GenerationResult("failure")
		return nil, err
	}

	design := &domain.Design{
		ID:       newID(),
		Prompt:   brief.MainIdea,
		Style:    brief.Style,
		Category: brief.Category,
	}
	if design.Category == "" {
		design.Category = domain.DesignCategoryBranding
	}

	key := "designs/" + design.ID + extensionFor(img.MIMEType)
	if err := s.store.Put(ctx, storage.Object{Key: key, ContentType: img.MIMEType, Data: img.Data}); err != nil {
		s.metrics.GenerationResult("failure")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	design.ImageURL = "/api/images/" + key

	design.CreatedAt = time.Now().UTC()
	if err := s.repo.Create(ctx, design); err != nil {
		s.metrics.GenerationResult("failure")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.keys.IncrementUsage(ctx, password); err != nil {
		// The design exists; usage accounting failure must not lose it.
		s.logger.Error().Err(err).Str("design_id", design.ID).Msg("usage increment failed after generation")
	}

	s.metrics.GenerationResult("success")
	s.logger.Info().
		Str("design_id", design.ID).
		Str("category", string(design.Category)).
		Msg("design generated")
	return design, nil
}

// generateReviewed generates an image and runs it through quality review,
// retrying with the reviewer's feedback folded into the prompt. After the
// final attempt the last image is accepted regardless of verdict.
func (s *DesignService) generateReviewed(ctx context.Context, prompt string, brief domain.DesignBrief, refs []ai.Image) (ai.Image, error) {
	var last ai.Image
	attemptPrompt := prompt

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		img, err := s.generator.GenerateImage(ctx, attemptPrompt, refs)
		if err != nil {
			if errors.Is(err, ai.ErrNotConfigured) {
				return ai.Image{}, ErrGenerationNotConfigured
			}
			return ai.Image{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
		last = img

		if s.reviewer == nil || attempt == s.maxAttempts {
			return last, nil
		}

		review, err := s.reviewer.ReviewDesign(ctx, img, prompt)
		if err != nil {
			s.logger.Warn().Err(err).Int("attempt", attempt).Msg("review failed, accepting image")
			return last, nil
		}
		if review.Approved {
			return last, nil
		}

		s.logger.Info().
			Int("attempt", attempt).
			Str("feedback", review.Feedback).
			Msg("design rejected by review, retrying")
		attemptPrompt = prompt + "\n\nCorrija os seguintes problemas apontados na revisão anterior: " + review.Feedback
	}
	return last, nil
}

// buildDesignPrompt composes the generation prompt from the brief.
func buildDesignPrompt(brief domain.DesignBrief) string {
	var sb strings.Builder
	sb.WriteString("Crie um design profissional de alta qualidade")
	if brief.Category != "" {
		sb.WriteString(" na categoria ")
		sb.WriteString(string(brief.Category))
	}
	sb.WriteString(".\n")
	if brief.Objective != "" {
		sb.WriteString("Objetivo: " + brief.Objective + "\n")
	}
	if brief.Audience != "" {
		sb.WriteString("Público-alvo: " + brief.Audience + "\n")
	}
	if brief.MainIdea != "" {
		sb.WriteString("Ideia principal: " + brief.MainIdea + "\n")
	}
	if brief.Colors != "" {
		sb.WriteString("Paleta de cores: " + brief.Colors + "\n")
	}
	if brief.Style != "" {
		sb.WriteString("Estilo visual: " + brief.Style + "\n")
	}
	sb.WriteString("O texto deve estar legível e sem erros ortográficos.")
	return sb.String()
}

// extensionFor maps a MIME type to a file extension, defaulting to .png.
func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// =============================================================================
// Idea expansion and background removal
// =============================================================================

// ExpandIdea turns a short idea into a fuller creative description. It
// requires a valid key but does not consume quota.
func (s *DesignService) ExpandIdea(ctx context.Context, password, idea string) (string, error) {
	if strings.TrimSpace(idea) == "" {
		return "", domain.ErrEmptyBrief
	}

	role, err := s.keys.Validate(ctx, password)
	if err != nil {
		return "", err
	}
	if role == domain.RoleNone {
		return "", ErrKeyNotFound
	}

	if s.expander == nil {
		return "", ErrGenerationNotConfigured
	}
	text, err := s.expander.ExpandIdea(ctx, idea)
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			return "", ErrGenerationNotConfigured
		}
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return text, nil
}

// RemoveBackground strips the background from an uploaded image.
func (s *DesignService) RemoveBackground(ctx context.Context, password string, img ai.Image) (ai.Image, error) {
	role, err := s.keys.Validate(ctx, password)
	if err != nil {
		return ai.Image{}, err
	}
	if role == domain.RoleNone {
		return ai.Image{}, ErrKeyNotFound
	}

	if s.remover == nil {
		return ai.Image{}, ErrRemovalNotConfigured
	}
	out, err := s.remover.RemoveBackground(ctx, img)
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			return ai.Image{}, ErrRemovalNotConfigured
		}
		return ai.Image{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return out, nil
}

// =============================================================================
// Gallery
// =============================================================================

// GetDesign retrieves a design by id.
func (s *DesignService) GetDesign(ctx context.Context, id string) (*domain.Design, error) {
	design, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrDesignNotFound) {
			return nil, domain.ErrDesignNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return design, nil
}

// ListDesigns returns the gallery, newest first, optionally filtered by
// category.
func (s *DesignService) ListDesigns(ctx context.Context, category domain.DesignCategory) ([]*domain.Design, error) {
	if category != "" && !category.IsValid() {
		return nil, domain.ErrInvalidCategory
	}
	designs, err := s.repo.List(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return designs, nil
}

// DeleteDesign removes a design record and its stored image.
func (s *DesignService) DeleteDesign(ctx context.Context, id string) error {
	design, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrDesignNotFound) {
			return domain.ErrDesignNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if key, ok := strings.CutPrefix(design.ImageURL, "/api/images/"); ok {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("design_id", id).Msg("stored image cleanup failed")
		}
	}

	s.logger.Info().Str("design_id", id).Msg("design deleted")
	return nil
}

// GetImage serves a stored image by its storage key.
func (s *DesignService) GetImage(ctx context.Context, key string) (storage.Object, error) {
	obj, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return storage.Object{}, storage.ErrObjectNotFound
		}
		return storage.Object{}, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return obj, nil
}
