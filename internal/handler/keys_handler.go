package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/service"
	"github.com/kanva-ao/kanva-server/internal/telemetry"
)

// KeysHandler serves the admin key management API.
type KeysHandler struct {
	keys    *service.KeyService
	metrics *telemetry.Metrics
	logger  zerolog.Logger
}

// NewKeysHandler creates a new KeysHandler.
func NewKeysHandler(keys *service.KeyService, metrics *telemetry.Metrics, logger zerolog.Logger) *KeysHandler {
	return &KeysHandler{
		keys:    keys,
		metrics: metrics,
		logger:  logger.With().Str("handler", "keys").Logger(),
	}
}

// List returns every stored key, plaintext passwords included. The route
// is admin-gated; the dashboard needs the passwords to hand them out.
// GET /api/admin/keys
func (h *KeysHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keys.ListKeys(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro interno no servidor")
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

type createKeyRequest struct {
	Label string      `json:"label"`
	Role  domain.Role `json:"role"`
	Email string      `json:"email"`
}

// Create issues a new access key.
// POST /api/admin/keys
func (h *KeysHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if req.Role == "" {
		req.Role = domain.RoleUser
	}

	key, err := h.keys.IssueKey(r.Context(), req.Label, req.Role, req.Email)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRole) {
			writeError(w, http.StatusBadRequest, "Função inválida")
			return
		}
		writeError(w, http.StatusInternalServerError, "Erro interno no servidor")
		return
	}

	h.metrics.KeyIssued()
	writeJSON(w, http.StatusCreated, key)
}

type setStatusRequest struct {
	IsActive bool `json:"isActive"`
}

// SetStatus activates or deactivates a key.
// PATCH /api/admin/keys/{id}/status
func (h *KeysHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req setStatusRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	if err := h.keys.SetKeyStatus(r.Context(), id, req.IsActive); err != nil {
		h.writeKeyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetUsage zeroes a key's usage counter.
// POST /api/admin/keys/{id}/reset
func (h *KeysHandler) ResetUsage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.keys.ResetUsage(r.Context(), id); err != nil {
		h.writeKeyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete removes a key. The default seed key is protected.
// DELETE /api/admin/keys/{id}
func (h *KeysHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.keys.DeleteKey(r.Context(), id); err != nil {
		h.writeKeyError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeKeyError maps key service errors to HTTP statuses.
func (h *KeysHandler) writeKeyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrKeyNotFound):
		writeError(w, http.StatusNotFound, "Chave não encontrada")
	case errors.Is(err, service.ErrDefaultKeyProtected):
		writeError(w, http.StatusForbidden, "A chave padrão não pode ser removida")
	default:
		writeError(w, http.StatusInternalServerError, "Erro interno no servidor")
	}
}
