package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/service"
)

// CardsHandler serves the workspace board API.
type CardsHandler struct {
	cards  *service.CardService
	logger zerolog.Logger
}

// NewCardsHandler creates a new CardsHandler.
func NewCardsHandler(cards *service.CardService, logger zerolog.Logger) *CardsHandler {
	return &CardsHandler{
		cards:  cards,
		logger: logger.With().Str("handler", "cards").Logger(),
	}
}

type cardRequest struct {
	Title    string          `json:"title"`
	Content  string          `json:"content"`
	Type     domain.CardType `json:"type"`
	Color    string          `json:"color"`
	ImageURL string          `json:"imageUrl"`
}

func (req cardRequest) input() service.CardInput {
	return service.CardInput{
		Title:    req.Title,
		Content:  req.Content,
		Type:     req.Type,
		Color:    req.Color,
		ImageURL: req.ImageURL,
	}
}

// List returns every card, newest first.
// GET /api/cards
func (h *CardsHandler) List(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cards.ListCards(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro interno no servidor")
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

// Create adds a card to the board.
// POST /api/cards
func (h *CardsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	card, err := h.cards.CreateCard(r.Context(), req.input())
	if err != nil {
		h.writeCardError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// Get retrieves one card.
// GET /api/cards/{id}
func (h *CardsHandler) Get(w http.ResponseWriter, r *http.Request) {
	card, err := h.cards.GetCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeCardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// Update applies partial changes to a card.
// PATCH /api/cards/{id}
func (h *CardsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	card, err := h.cards.UpdateCard(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.writeCardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// Delete removes a card.
// DELETE /api/cards/{id}
func (h *CardsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.cards.DeleteCard(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeCardError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CardsHandler) writeCardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrCardNotFound):
		writeError(w, http.StatusNotFound, "Cartão não encontrado")
	case errors.Is(err, domain.ErrInvalidCardType):
		writeError(w, http.StatusBadRequest, "Tipo de cartão inválido")
	case errors.Is(err, service.ErrInvalidLabel):
		writeError(w, http.StatusBadRequest, "O cartão precisa de título ou conteúdo")
	default:
		writeError(w, http.StatusInternalServerError, "Erro interno no servidor")
	}
}
