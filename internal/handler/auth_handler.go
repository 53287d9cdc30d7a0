package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/service"
	"github.com/kanva-ao/kanva-server/internal/telemetry"
)

// AuthHandler serves password validation, quota queries and the
// process-local session.
type AuthHandler struct {
	keys    *service.KeyService
	session *service.SessionService
	metrics *telemetry.Metrics
	logger  zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(keys *service.KeyService, session *service.SessionService, metrics *telemetry.Metrics, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		keys:    keys,
		session: session,
		metrics: metrics,
		logger:  logger.With().Str("handler", "auth").Logger(),
	}
}

type passwordRequest struct {
	Password string `json:"password"`
}

type validateResponse struct {
	Valid bool        `json:"valid"`
	Role  domain.Role `json:"role"`
}

// Validate resolves a password to a role without touching usage.
// POST /api/auth/validate
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	role, err := h.keys.Validate(r.Context(), req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro interno no servidor")
		return
	}

	h.metrics.ValidationResult(string(role))
	writeJSON(w, http.StatusOK, validateResponse{
		Valid: role != domain.RoleNone,
		Role:  role,
	})
}

type quotaResponse struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
}

// Quota reports whether the password may still generate, and how many
// usages remain.
// POST /api/auth/quota
func (h *AuthHandler) Quota(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	quota, err := h.keys.CheckLimit(r.Context(), req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro interno no servidor")
		return
	}
	writeJSON(w, http.StatusOK, quotaResponse{
		Allowed:   quota.Allowed,
		Remaining: quota.Remaining,
	})
}

type sessionResponse struct {
	Role          domain.Role `json:"role"`
	Authenticated bool        `json:"authenticated"`
}

// Login validates the password and establishes the session.
// POST /api/auth/session
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	role, err := h.keys.Validate(r.Context(), req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro interno no servidor")
		return
	}
	h.metrics.ValidationResult(string(role))
	if role == domain.RoleNone {
		writeError(w, http.StatusUnauthorized, "Senha incorreta")
		return
	}

	h.session.Establish(role, req.Password)
	writeJSON(w, http.StatusOK, sessionResponse{Role: role, Authenticated: true})
}

// Session reports the current session state.
// GET /api/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	role := h.session.CurrentRole()
	writeJSON(w, http.StatusOK, sessionResponse{
		Role:          role,
		Authenticated: role != domain.RoleNone,
	})
}

// Logout clears the session.
// DELETE /api/auth/session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.session.Clear()
	w.WriteHeader(http.StatusNoContent)
}
