package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/ai"
	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/service"
	"github.com/kanva-ao/kanva-server/internal/storage"
)

// DesignsHandler serves design generation, the gallery and the image
// utilities (idea expansion, background removal, stored image serving).
type DesignsHandler struct {
	designs *service.DesignService
	logger  zerolog.Logger
}

// NewDesignsHandler creates a new DesignsHandler.
func NewDesignsHandler(designs *service.DesignService, logger zerolog.Logger) *DesignsHandler {
	return &DesignsHandler{
		designs: designs,
		logger:  logger.With().Str("handler", "designs").Logger(),
	}
}

// imagePayload is an inline image in a JSON body. Data is base64 on the
// wire via encoding/json's []byte handling.
type imagePayload struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

func (p imagePayload) image() ai.Image {
	mime := p.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return ai.Image{MIMEType: mime, Data: p.Data}
}

type generateRequest struct {
	Category   domain.DesignCategory `json:"category"`
	Objective  string                `json:"objective"`
	Audience   string                `json:"audience"`
	MainIdea   string                `json:"mainIdea"`
	Colors     string                `json:"colors"`
	Style      string                `json:"style"`
	References []imagePayload        `json:"references"`
}

// Generate runs the design pipeline for the caller's key.
// POST /api/designs/generate
func (h *DesignsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	refs := make([]ai.Image, 0, len(req.References))
	for _, p := range req.References {
		refs = append(refs, p.image())
	}

	brief := domain.DesignBrief{
		Category:  req.Category,
		Objective: req.Objective,
		Audience:  req.Audience,
		MainIdea:  req.MainIdea,
		Colors:    req.Colors,
		Style:     req.Style,
	}

	design, err := h.designs.GenerateDesign(r.Context(), passwordFromContext(r.Context()), brief, refs)
	if err != nil {
		h.writeDesignError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, design)
}

// List returns the gallery, optionally filtered by ?category=.
// GET /api/designs
func (h *DesignsHandler) List(w http.ResponseWriter, r *http.Request) {
	category := domain.DesignCategory(r.URL.Query().Get("category"))

	designs, err := h.designs.ListDesigns(r.Context(), category)
	if err != nil {
		h.writeDesignError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, designs)
}

// Get retrieves one design record.
// GET /api/designs/{id}
func (h *DesignsHandler) Get(w http.ResponseWriter, r *http.Request) {
	design, err := h.designs.GetDesign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDesignError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, design)
}

// Delete removes a design and its stored image.
// DELETE /api/designs/{id}
func (h *DesignsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.designs.DeleteDesign(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDesignError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type expandRequest struct {
	Idea string `json:"idea"`
}

type expandResponse struct {
	Expanded string `json:"expanded"`
}

// ExpandIdea turns a short idea into a fuller creative description.
// POST /api/ideas/expand
func (h *DesignsHandler) ExpandIdea(w http.ResponseWriter, r *http.Request) {
	var req expandRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	text, err := h.designs.ExpandIdea(r.Context(), passwordFromContext(r.Context()), req.Idea)
	if err != nil {
		h.writeDesignError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expandResponse{Expanded: text})
}

type removeBackgroundRequest struct {
	Image imagePayload `json:"image"`
}

// RemoveBackground strips the background from an uploaded image and
// returns the cutout inline.
// POST /api/images/remove-background
func (h *DesignsHandler) RemoveBackground(w http.ResponseWriter, r *http.Request) {
	var req removeBackgroundRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if len(req.Image.Data) == 0 {
		writeError(w, http.StatusBadRequest, "Imagem é obrigatória")
		return
	}

	out, err := h.designs.RemoveBackground(r.Context(), passwordFromContext(r.Context()), req.Image.image())
	if err != nil {
		h.writeDesignError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, imagePayload{MIMEType: out.MIMEType, Data: out.Data})
}

// ServeImage streams a stored image by its storage key.
// GET /api/images/*
func (h *DesignsHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		writeError(w, http.StatusNotFound, "Imagem não encontrada")
		return
	}

	obj, err := h.designs.GetImage(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(w, http.StatusNotFound, "Imagem não encontrada")
			return
		}
		writeError(w, http.StatusInternalServerError, "Erro interno no servidor")
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	w.Write(obj.Data)
}

func (h *DesignsHandler) writeDesignError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrQuotaExceeded):
		writeError(w, http.StatusForbidden, "Limite de uso atingido")
	case errors.Is(err, service.ErrKeyNotFound):
		writeError(w, http.StatusUnauthorized, "Chave de acesso inválida")
	case errors.Is(err, service.ErrGenerationNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Geração de imagens não configurada")
	case errors.Is(err, service.ErrRemovalNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Remoção de fundo não configurada")
	case errors.Is(err, service.ErrGenerationFailed):
		writeError(w, http.StatusBadGateway, "Falha na geração da imagem")
	case errors.Is(err, domain.ErrDesignNotFound):
		writeError(w, http.StatusNotFound, "Design não encontrado")
	case errors.Is(err, domain.ErrInvalidCategory):
		writeError(w, http.StatusBadRequest, "Categoria inválida")
	case errors.Is(err, domain.ErrEmptyBrief):
		writeError(w, http.StatusBadRequest, "O brief não pode estar vazio")
	default:
		writeError(w, http.StatusInternalServerError, "Erro interno no servidor")
	}
}
