// Package ai wraps the external model providers used by the workspace:
// Gemini for design generation, quality review and idea expansion, and a
// Hugging Face inference endpoint for background removal.
package ai

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured indicates the provider has no API credentials.
	ErrNotConfigured = errors.New("ai provider is not configured")

	// ErrNoImage indicates the model responded without image data.
	ErrNoImage = errors.New("model response contained no image")
)

// Image is a binary image with its MIME type.
type Image struct {
	MIMEType string
	Data     []byte
}

// Review is the structured verdict of a design quality check.
type Review struct {
	Approved bool
	Feedback string
}

// ImageGenerator produces an image from a prompt plus optional reference
// images.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, refs []Image) (Image, error)
}

// DesignReviewer judges a generated design against the brief it came from.
type DesignReviewer interface {
	ReviewDesign(ctx context.Context, img Image, brief string) (Review, error)
}

// IdeaExpander turns a short idea into a fuller creative description.
type IdeaExpander interface {
	ExpandIdea(ctx context.Context, idea string) (string, error)
}

// BackgroundRemover strips the background from an image.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, img Image) (Image, error)
}
