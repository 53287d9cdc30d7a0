package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/kanva-ao/kanva-server/internal/config"
)

// GeminiClient talks to the Gemini API for image generation, design review
// and idea expansion. It is safe for concurrent use.
type GeminiClient struct {
	client      *genai.Client
	imageModel  string
	reviewModel string
	logger      zerolog.Logger
}

var (
	_ ImageGenerator = (*GeminiClient)(nil)
	_ DesignReviewer = (*GeminiClient)(nil)
	_ IdeaExpander   = (*GeminiClient)(nil)
)

// NewGeminiClient dials the Gemini API. Returns ErrNotConfigured when no
// API key is set so callers can degrade gracefully.
func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig, logger zerolog.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("dial gemini: %w", err)
	}
	return &GeminiClient{
		client:      client,
		imageModel:  cfg.ImageModel,
		reviewModel: cfg.ReviewModel,
		logger:      logger.With().Str("provider", "gemini").Logger(),
	}, nil
}

// Close releases the underlying API connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// GenerateImage renders a design from the prompt. Reference images, when
// present, are passed alongside the prompt so the model can match brand
// assets.
func (c *GeminiClient) GenerateImage(ctx context.Context, prompt string, refs []Image) (Image, error) {
	model := c.client.GenerativeModel(c.imageModel)

	parts := make([]genai.Part, 0, len(refs)+1)
	for _, ref := range refs {
		parts = append(parts, genai.Blob{MIMEType: ref.MIMEType, Data: ref.Data})
	}
	parts = append(parts, genai.Text(prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return Image{}, fmt.Errorf("generate image: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if blob, ok := part.(genai.Blob); ok && len(blob.Data) > 0 {
				return Image{MIMEType: blob.MIMEType, Data: blob.Data}, nil
			}
		}
	}
	return Image{}, ErrNoImage
}

const reviewPrompt = `Você é um diretor de arte sênior avaliando um design gerado.
Brief original:
%s

Avalie a imagem anexada quanto a legibilidade do texto, composição,
alinhamento com o brief e qualidade geral. Responda APENAS com JSON no
formato: {"status": "APROVADO" ou "REPROVADO", "feedback": "motivo curto"}`

type reviewVerdict struct {
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

// ReviewDesign asks the review model for an APROVADO/REPROVADO verdict on a
// generated image. Unparseable responses count as approval so a flaky
// reviewer never blocks delivery.
func (c *GeminiClient) ReviewDesign(ctx context.Context, img Image, brief string) (Review, error) {
	model := c.client.GenerativeModel(c.reviewModel)

	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: img.MIMEType, Data: img.Data},
		genai.Text(fmt.Sprintf(reviewPrompt, brief)),
	)
	if err != nil {
		return Review{}, fmt.Errorf("review design: %w", err)
	}

	raw := textFromResponse(resp)
	verdict, err := parseVerdict(raw)
	if err != nil {
		c.logger.Warn().Str("raw", raw).Msg("unparseable review verdict, approving")
		return Review{Approved: true, Feedback: ""}, nil
	}
	return Review{
		Approved: strings.EqualFold(verdict.Status, "APROVADO"),
		Feedback: verdict.Feedback,
	}, nil
}

const expandPrompt = `Você é um diretor criativo. Expanda a ideia abaixo em uma
descrição criativa detalhada de no máximo 3 parágrafos, em português,
pronta para orientar um designer. Ideia: %s`

// ExpandIdea turns a short idea into a fuller creative description.
func (c *GeminiClient) ExpandIdea(ctx context.Context, idea string) (string, error) {
	model := c.client.GenerativeModel(c.reviewModel)

	resp, err := model.GenerateContent(ctx, genai.Text(fmt.Sprintf(expandPrompt, idea)))
	if err != nil {
		return "", fmt.Errorf("expand idea: %w", err)
	}
	text := strings.TrimSpace(textFromResponse(resp))
	if text == "" {
		return "", fmt.Errorf("expand idea: empty response")
	}
	return text, nil
}

// textFromResponse concatenates every text part of the first candidate.
func textFromResponse(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String()
}

// parseVerdict extracts the JSON verdict, tolerating markdown code fences
// around it.
func parseVerdict(raw string) (reviewVerdict, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var verdict reviewVerdict
	if err := json.Unmarshal([]byte(cleaned), &verdict); err != nil {
		return reviewVerdict{}, fmt.Errorf("parse verdict: %w", err)
	}
	if verdict.Status == "" {
		return reviewVerdict{}, fmt.Errorf("parse verdict: missing status")
	}
	return verdict, nil
}
