package domain

import (
	"time"
)

// DesignCategory groups generated designs by discipline.
type DesignCategory string

const (
	DesignCategoryBranding  DesignCategory = "branding"
	DesignCategoryDigital   DesignCategory = "digital"
	DesignCategoryEditorial DesignCategory = "editorial"
)

// IsValid reports whether the category is one of the known categories.
func (c DesignCategory) IsValid() bool {
	return c == DesignCategoryBranding || c == DesignCategoryDigital || c == DesignCategoryEditorial
}

// Design is one AI-generated design stored in the workspace gallery.
type Design struct {
	// ID is the unique identifier, assigned at creation.
	ID string `json:"id"`

	// Prompt is the brief the design was generated from.
	Prompt string `json:"prompt"`

	// ImageURL points at the stored image (content-addressed path or S3 key).
	ImageURL string `json:"imageUrl"`

	// Style is the visual style requested in the brief.
	Style string `json:"style"`

	// Category is the design discipline.
	Category DesignCategory `json:"category"`

	// CreatedAt is the generation timestamp.
	CreatedAt time.Time `json:"createdAt"`
}

// DesignBrief is the creative context a design is generated from.
type DesignBrief struct {
	Category  DesignCategory `json:"category"`
	Objective string         `json:"objective"`
	Audience  string         `json:"audience"`
	MainIdea  string         `json:"mainIdea"`
	Colors    string         `json:"colors"`
	Style     string         `json:"style"`
}
