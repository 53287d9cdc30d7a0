package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/config"
)

const (
	removalBaseURL = "https://api-inference.huggingface.co/models/"
	removalTimeout = 60 * time.Second
)

// HFRemover strips image backgrounds through the Hugging Face inference
// API. The endpoint accepts raw image bytes and answers with the cutout
// as a PNG.
type HFRemover struct {
	token  string
	model  string
	client *http.Client
	logger zerolog.Logger
}

// NewHFRemover creates a Hugging Face backed remover. The token may be
// empty; calls will then fail with ErrNotConfigured.
func NewHFRemover(cfg config.RemovalConfig, logger zerolog.Logger) *HFRemover {
	return &HFRemover{
		token:  cfg.Token,
		model:  cfg.Model,
		client: &http.Client{Timeout: removalTimeout},
		logger: logger.With().Str("provider", "huggingface").Logger(),
	}
}

var _ BackgroundRemover = (*HFRemover)(nil)

// RemoveBackground posts the image to the inference endpoint and returns
// the cutout.
func (r *HFRemover) RemoveBackground(ctx context.Context, img Image) (Image, error) {
	if r.token == "" {
		return Image{}, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, removalBaseURL+r.model, bytes.NewReader(img.Data))
	if err != nil {
		return Image{}, fmt.Errorf("build removal request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("Content-Type", img.MIMEType)

	resp, err := r.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("remove background: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		r.logger.Error().Int("status", resp.StatusCode).Msg("inference endpoint rejected the image")
		return Image{}, fmt.Errorf("removal endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Image{}, fmt.Errorf("read removal response: %w", err)
	}
	if len(data) == 0 {
		return Image{}, ErrNoImage
	}
	return Image{MIMEType: "image/png", Data: data}, nil
}
