package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/service"
	"github.com/kanva-ao/kanva-server/internal/telemetry"
)

// WebhookTokenHeader carries the shared secret on Kuenha deliveries.
const WebhookTokenHeader = "X-Kuenha-Token"

// WebhookHandler processes Kuenha payment notifications. An approved
// payment provisions an access key and emails it to the customer.
//
// Delivery is at-least-once: Kuenha may redeliver, and a redelivered
// approved payment mints a second key. The transaction id is logged so
// duplicates can be reconciled.
type WebhookHandler struct {
	provisioner *service.ProvisionService
	secret      string
	metrics     *telemetry.Metrics
	logger      zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler. An empty secret disables
// the authenticity check.
func NewWebhookHandler(provisioner *service.ProvisionService, secret string, metrics *telemetry.Metrics, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		provisioner: provisioner,
		secret:      secret,
		metrics:     metrics,
		logger:      logger.With().Str("handler", "webhook").Logger(),
	}
}

// webhookPayload is the Kuenha delivery body. Field names follow their
// wire format.
type webhookPayload struct {
	Status        string `json:"status"`
	EventType     string `json:"event_type"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
	TransactionID string `json:"transaction_id"`
	Secret        string `json:"secret"`
}

// approved reports whether the payload represents a completed payment.
func (p webhookPayload) approved() bool {
	return p.Status == "paid" || p.Status == "completed" || p.EventType == "ORDER_PAID"
}

// HandlePayment ingests one delivery.
// POST /api/webhook/kuenha
func (h *WebhookHandler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.metrics.WebhookEvent("method_not_allowed")
		writeError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	var payload webhookPayload
	if err := readJSON(r, &payload); err != nil {
		h.metrics.WebhookEvent("bad_payload")
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	if h.secret != "" {
		token := r.Header.Get(WebhookTokenHeader)
		if token == "" {
			token = payload.Secret
		}
		if token != h.secret {
			h.metrics.WebhookEvent("unauthorized")
			h.logger.Warn().Str("remote", r.RemoteAddr).Msg("unauthorized webhook delivery")
			writeError(w, http.StatusUnauthorized, "Não autorizado")
			return
		}
	}

	if !payload.approved() {
		h.metrics.WebhookEvent("ignored")
		h.logger.Info().
			Str("transaction_id", payload.TransactionID).
			Str("status", payload.Status).
			Msg("payment not approved yet, acknowledged")
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if payload.CustomerEmail == "" {
		h.metrics.WebhookEvent("bad_payload")
		writeError(w, http.StatusBadRequest, "customer_email é obrigatório")
		return
	}

	key, err := h.provisioner.ProvisionAccess(r.Context(), payload.CustomerEmail, payload.CustomerName)
	if err != nil {
		h.metrics.WebhookEvent("failed")
		h.logger.Error().Err(err).
			Str("transaction_id", payload.TransactionID).
			Str("email", payload.CustomerEmail).
			Msg("webhook provisioning failed")
		writeError(w, http.StatusInternalServerError, "Erro interno no servidor")
		return
	}

	h.metrics.WebhookEvent("provisioned")
	h.logger.Info().
		Str("transaction_id", payload.TransactionID).
		Str("key_id", key.ID).
		Msg("payment provisioned")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Acesso gerado e enviado.",
	})
}
