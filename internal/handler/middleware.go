package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/service"
	"github.com/kanva-ao/kanva-server/internal/telemetry"
)

// AccessKeyHeader carries the workspace password on authenticated routes.
const AccessKeyHeader = "X-Access-Key"

type contextKey string

const (
	ctxKeyRole     contextKey = "role"
	ctxKeyPassword contextKey = "password"
)

// roleFromContext returns the role resolved by RequireAccess.
func roleFromContext(ctx context.Context) domain.Role {
	if role, ok := ctx.Value(ctxKeyRole).(domain.Role); ok {
		return role
	}
	return domain.RoleNone
}

// passwordFromContext returns the password resolved by RequireAccess.
func passwordFromContext(ctx context.Context) string {
	if pw, ok := ctx.Value(ctxKeyPassword).(string); ok {
		return pw
	}
	return ""
}

// RequireAccess validates the access key header and stores the resolved
// role and password on the request context. Requests without a valid key
// are rejected with 401.
func RequireAccess(keys *service.KeyService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			password := r.Header.Get(AccessKeyHeader)
			role, err := keys.Validate(r.Context(), password)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Erro interno no servidor")
				return
			}
			if role == domain.RoleNone {
				writeError(w, http.StatusUnauthorized, "Chave de acesso inválida")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyRole, role)
			ctx = context.WithValue(ctx, ctxKeyPassword, password)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose resolved role is not ADMIN. It must
// run after RequireAccess.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if roleFromContext(r.Context()) != domain.RoleAdmin {
				writeError(w, http.StatusForbidden, "Acesso restrito ao administrador")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs each request with zerolog after it completes.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Msg("request")
		})
	}
}

// Instrument records request counters and latency. Routes are labelled by
// their chi pattern so path parameters do not explode cardinality.
func Instrument(metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequest(r.Method, route, strconv.Itoa(rec.status), float64(time.Since(start).Milliseconds()))
		})
	}
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
