package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kanva-ao/kanva-server/internal/config"
	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/lock"
	"github.com/kanva-ao/kanva-server/internal/service"
)

const (
	testAdminPassword = "admin-secret"
	testSeedPassword  = "kanva.user.2025"
)

func newAuthFixture(t *testing.T) (*AuthHandler, *memoryKeyRepo) {
	t.Helper()

	repo := newMemoryKeyRepo()
	keys := service.NewKeyService(repo, lock.NewMemoryLocker(), config.AuthConfig{
		AdminPassword:     testAdminPassword,
		SeedPassword:      testSeedPassword,
		DefaultUsageLimit: 20,
	}, zerolog.Nop())
	h := NewAuthHandler(keys, service.NewSessionService(), nil, zerolog.Nop())
	return h, repo
}

func postJSON(handlerFn http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handlerFn(rec, req)
	return rec
}

func TestAuthHandler_Validate(t *testing.T) {
	h, repo := newAuthFixture(t)
	repo.keys["k1"] = domain.NewAccessKey("k1", "KNV-ABCDEF123456", "Cliente", domain.RoleUser, "")

	tests := []struct {
		name      string
		password  string
		wantValid bool
		wantRole  domain.Role
	}{
		{"admin", testAdminPassword, true, domain.RoleAdmin},
		{"stored user key", "KNV-ABCDEF123456", true, domain.RoleUser},
		{"unknown", "KNV-NOPENOPENOPE", false, domain.RoleNone},
		{"empty", "", false, domain.RoleNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(h.Validate, "/api/auth/validate", passwordRequest{Password: tt.password})
			require.Equal(t, http.StatusOK, rec.Code)

			var resp validateResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, tt.wantValid, resp.Valid)
			require.Equal(t, tt.wantRole, resp.Role)
		})
	}
}

func TestAuthHandler_Validate_SeedOnEmptyStore(t *testing.T) {
	h, repo := newAuthFixture(t)

	rec := postJSON(h.Validate, "/api/auth/validate", passwordRequest{Password: testSeedPassword})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp validateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Valid)
	require.Equal(t, domain.RoleUser, resp.Role)

	// Validation is a pure read; the seed key must not be persisted.
	require.Empty(t, repo.keys)
}

func TestAuthHandler_Quota(t *testing.T) {
	h, repo := newAuthFixture(t)

	exhausted := domain.NewAccessKey("k1", "KNV-ABCDEF123456", "Cliente", domain.RoleUser, "")
	exhausted.UsageCount = exhausted.UsageLimit
	repo.keys["k1"] = exhausted

	rec := postJSON(h.Quota, "/api/auth/quota", passwordRequest{Password: exhausted.Password})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp quotaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Allowed)
	require.Equal(t, 0, resp.Remaining)

	rec = postJSON(h.Quota, "/api/auth/quota", passwordRequest{Password: testAdminPassword})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Allowed)
	require.Equal(t, domain.AdminQuotaRemaining, resp.Remaining)
}

func TestAuthHandler_SessionLifecycle(t *testing.T) {
	h, repo := newAuthFixture(t)
	repo.keys["k1"] = domain.NewAccessKey("k1", "KNV-ABCDEF123456", "Cliente", domain.RoleUser, "")

	// Wrong password is rejected.
	rec := postJSON(h.Login, "/api/auth/session", passwordRequest{Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct password establishes the session.
	rec = postJSON(h.Login, "/api/auth/session", passwordRequest{Password: "KNV-ABCDEF123456"})
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	sessionRec := httptest.NewRecorder()
	h.Session(sessionRec, req)
	require.Equal(t, http.StatusOK, sessionRec.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(sessionRec.Body.Bytes(), &resp))
	require.True(t, resp.Authenticated)
	require.Equal(t, domain.RoleUser, resp.Role)

	// Logout clears it.
	logoutReq := httptest.NewRequest(http.MethodDelete, "/api/auth/session", nil)
	logoutRec := httptest.NewRecorder()
	h.Logout(logoutRec, logoutReq)
	require.Equal(t, http.StatusNoContent, logoutRec.Code)

	sessionRec = httptest.NewRecorder()
	h.Session(sessionRec, req)
	require.NoError(t, json.Unmarshal(sessionRec.Body.Bytes(), &resp))
	require.False(t, resp.Authenticated)
	require.Equal(t, domain.RoleNone, resp.Role)
}
