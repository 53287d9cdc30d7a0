package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/domain"
)

// MockCardRepository is an in-memory card repository for tests.
type MockCardRepository struct {
	cards     map[string]*domain.Card
	createErr error
	updateErr error
}

func NewMockCardRepository() *MockCardRepository {
	return &MockCardRepository{cards: make(map[string]*domain.Card)}
}

func (m *MockCardRepository) Create(ctx context.Context, card *domain.Card) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.cards[card.ID] = card
	return nil
}

func (m *MockCardRepository) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	card, ok := m.cards[id]
	if !ok {
		return nil, domain.ErrCardNotFound
	}
	return card, nil
}

func (m *MockCardRepository) List(ctx context.Context) ([]*domain.Card, error) {
	out := make([]*domain.Card, 0, len(m.cards))
	for _, card := range m.cards {
		out = append(out, card)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockCardRepository) Update(ctx context.Context, card *domain.Card) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.cards[card.ID]; !ok {
		return domain.ErrCardNotFound
	}
	m.cards[card.ID] = card
	return nil
}

func (m *MockCardRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.cards[id]; !ok {
		return domain.ErrCardNotFound
	}
	delete(m.cards, id)
	return nil
}

func newTestCardService(repo *MockCardRepository) *CardService {
	return NewCardService(repo, zerolog.Nop())
}

func TestCreateCard(t *testing.T) {
	svc := newTestCardService(NewMockCardRepository())

	card, err := svc.CreateCard(context.Background(), CardInput{
		Title:   "Campanha de agosto",
		Content: "Três variações do banner",
		Type:    domain.CardTypeIdea,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card.ID == "" {
		t.Error("expected an id to be assigned")
	}
	if card.Type != domain.CardTypeIdea {
		t.Errorf("expected type idea, got %s", card.Type)
	}
	if card.Color != domain.CardColors[0] {
		t.Errorf("expected default color, got %q", card.Color)
	}
	if card.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestCreateCard_Defaults(t *testing.T) {
	svc := newTestCardService(NewMockCardRepository())

	card, err := svc.CreateCard(context.Background(), CardInput{Content: "só conteúdo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card.Type != domain.CardTypeNote {
		t.Errorf("expected default type note, got %s", card.Type)
	}
}

func TestCreateCard_Invalid(t *testing.T) {
	svc := newTestCardService(NewMockCardRepository())

	tests := []struct {
		name    string
		input   CardInput
		wantErr error
	}{
		{
			name:    "empty title and content",
			input:   CardInput{Type: domain.CardTypeNote},
			wantErr: ErrInvalidLabel,
		},
		{
			name:    "unknown type",
			input:   CardInput{Title: "t", Type: domain.CardType("sticker")},
			wantErr: domain.ErrInvalidCardType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCard(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUpdateCard(t *testing.T) {
	repo := NewMockCardRepository()
	svc := newTestCardService(repo)
	ctx := context.Background()

	card, err := svc.CreateCard(ctx, CardInput{Title: "Rascunho", Type: domain.CardTypeNote})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.UpdateCard(ctx, card.ID, CardInput{
		Title: "Versão final",
		Type:  domain.CardTypeTask,
		Color: domain.CardColors[2],
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "Versão final" {
		t.Errorf("expected updated title, got %q", updated.Title)
	}
	if updated.Type != domain.CardTypeTask {
		t.Errorf("expected type task, got %s", updated.Type)
	}
	if updated.Color != domain.CardColors[2] {
		t.Errorf("expected new color, got %q", updated.Color)
	}
}

func TestUpdateCard_PartialKeepsFields(t *testing.T) {
	repo := NewMockCardRepository()
	svc := newTestCardService(repo)
	ctx := context.Background()

	card, err := svc.CreateCard(ctx, CardInput{Title: "Título", Content: "Corpo", Type: domain.CardTypeNote})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.UpdateCard(ctx, card.ID, CardInput{Content: "Corpo revisto"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "Título" {
		t.Errorf("expected title to be kept, got %q", updated.Title)
	}
	if updated.Content != "Corpo revisto" {
		t.Errorf("expected content to change, got %q", updated.Content)
	}
}

func TestUpdateCard_NotFound(t *testing.T) {
	svc := newTestCardService(NewMockCardRepository())

	_, err := svc.UpdateCard(context.Background(), "missing", CardInput{Title: "x"})
	if !errors.Is(err, domain.ErrCardNotFound) {
		t.Errorf("expected ErrCardNotFound, got %v", err)
	}
}

func TestDeleteCard(t *testing.T) {
	repo := NewMockCardRepository()
	svc := newTestCardService(repo)
	ctx := context.Background()

	card, err := svc.CreateCard(ctx, CardInput{Title: "descartável"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeleteCard(ctx, card.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetCard(ctx, card.ID); !errors.Is(err, domain.ErrCardNotFound) {
		t.Errorf("expected ErrCardNotFound after delete, got %v", err)
	}
	if err := svc.DeleteCard(ctx, card.ID); !errors.Is(err, domain.ErrCardNotFound) {
		t.Errorf("expected ErrCardNotFound on second delete, got %v", err)
	}
}

func TestCreateCard_RepoFailure(t *testing.T) {
	repo := NewMockCardRepository()
	repo.createErr = errors.New("disk full")
	svc := newTestCardService(repo)

	_, err := svc.CreateCard(context.Background(), CardInput{Title: "t"})
	if !errors.Is(err, ErrInternalError) {
		t.Errorf("expected ErrInternalError, got %v", err)
	}
}
