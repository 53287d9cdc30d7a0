package domain

import (
	"time"
)

// CardType classifies a workspace card.
type CardType string

const (
	CardTypeNote CardType = "note"
	CardTypeIdea CardType = "idea"
	CardTypeTask CardType = "task"
)

// IsValid reports whether the card type is one of the known types.
func (t CardType) IsValid() bool {
	return t == CardTypeNote || t == CardTypeIdea || t == CardTypeTask
}

// Card is a note, idea or task pinned to the workspace board.
type Card struct {
	// ID is the unique identifier, assigned at creation.
	ID string `json:"id"`

	// Title is the card headline.
	Title string `json:"title"`

	// Content holds the card body text.
	Content string `json:"content"`

	// Type classifies the card (note, idea, task).
	Type CardType `json:"type"`

	// Color is the board tile color class.
	Color string `json:"color"`

	// ImageURL optionally attaches a stored image to the card.
	ImageURL string `json:"imageUrl,omitempty"`

	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"createdAt"`
}

// CardColors are the board tile colors offered by the workspace UI.
var CardColors = []string{
	"bg-white",
	"bg-amber-50",
	"bg-blue-50",
	"bg-emerald-50",
	"bg-rose-50",
	"bg-violet-50",
}

// NewCard creates a Card with defaults applied.
func NewCard(id, title, content string, cardType CardType, color string) *Card {
	if color == "" {
		color = CardColors[0]
	}
	return &Card{
		ID:        id,
		Title:     title,
		Content:   content,
		Type:      cardType,
		Color:     color,
		CreatedAt: time.Now().UTC(),
	}
}
