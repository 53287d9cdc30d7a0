package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kanva-ao/kanva-server/internal/config"
	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/lock"
	"github.com/kanva-ao/kanva-server/internal/notify"
	"github.com/kanva-ao/kanva-server/internal/service"
	"github.com/kanva-ao/kanva-server/internal/storage"
	"github.com/kanva-ao/kanva-server/internal/telemetry"
)

// memoryCardRepo is an in-memory repository.CardRepository.
type memoryCardRepo struct {
	cards map[string]*domain.Card
}

func newMemoryCardRepo() *memoryCardRepo {
	return &memoryCardRepo{cards: make(map[string]*domain.Card)}
}

func (m *memoryCardRepo) Create(ctx context.Context, card *domain.Card) error {
	cp := *card
	m.cards[card.ID] = &cp
	return nil
}

func (m *memoryCardRepo) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	if c, ok := m.cards[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCardNotFound
}

func (m *memoryCardRepo) List(ctx context.Context) ([]*domain.Card, error) {
	var result []*domain.Card
	for _, c := range m.cards {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *memoryCardRepo) Update(ctx context.Context, card *domain.Card) error {
	if _, ok := m.cards[card.ID]; !ok {
		return domain.ErrCardNotFound
	}
	cp := *card
	m.cards[card.ID] = &cp
	return nil
}

func (m *memoryCardRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.cards[id]; !ok {
		return domain.ErrCardNotFound
	}
	delete(m.cards, id)
	return nil
}

// memoryDesignRepo is an in-memory repository.DesignRepository.
type memoryDesignRepo struct {
	designs map[string]*domain.Design
}

func newMemoryDesignRepo() *memoryDesignRepo {
	return &memoryDesignRepo{designs: make(map[string]*domain.Design)}
}

func (m *memoryDesignRepo) Create(ctx context.Context, design *domain.Design) error {
	cp := *design
	m.designs[design.ID] = &cp
	return nil
}

func (m *memoryDesignRepo) GetByID(ctx context.Context, id string) (*domain.Design, error) {
	if d, ok := m.designs[id]; ok {
		return d, nil
	}
	return nil, domain.ErrDesignNotFound
}

func (m *memoryDesignRepo) List(ctx context.Context, category domain.DesignCategory) ([]*domain.Design, error) {
	var result []*domain.Design
	for _, d := range m.designs {
		if category == "" || d.Category == category {
			result = append(result, d)
		}
	}
	return result, nil
}

func (m *memoryDesignRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.designs[id]; !ok {
		return domain.ErrDesignNotFound
	}
	delete(m.designs, id)
	return nil
}

// newTestRouter wires the full API against in-memory backends.
func newTestRouter(t *testing.T) (http.Handler, *memoryKeyRepo) {
	t.Helper()

	logger := zerolog.Nop()
	metrics := telemetry.New()

	keyRepo := newMemoryKeyRepo()
	keys := service.NewKeyService(keyRepo, lock.NewMemoryLocker(), config.AuthConfig{
		AdminPassword:     testAdminPassword,
		SeedPassword:      testSeedPassword,
		DefaultUsageLimit: 20,
	}, logger)

	store, err := storage.NewFilesystemBackend(t.TempDir())
	require.NoError(t, err)

	cards := service.NewCardService(newMemoryCardRepo(), logger)
	designs := service.NewDesignService(service.DesignServiceDeps{
		Repo:        newMemoryDesignRepo(),
		Keys:        keys,
		Store:       store,
		Metrics:     metrics,
		MaxAttempts: 2,
	}, logger)

	sender := notify.NewMockSender(logger)
	provisioner := service.NewProvisionService(keys, sender, "https://kanva.ao", metrics, logger)

	router := NewRouter(RouterConfig{
		Auth:              NewAuthHandler(keys, service.NewSessionService(), metrics, logger),
		Keys:              NewKeysHandler(keys, metrics, logger),
		Cards:             NewCardsHandler(cards, logger),
		Designs:           NewDesignsHandler(designs, logger),
		Webhook:           NewWebhookHandler(provisioner, webhookSecret, metrics, logger),
		KeySvc:            keys,
		Metrics:           metrics,
		AllowedOrigins:    []string{"*"},
		RateLimitEnabled:  false,
		RequestsPerMinute: 60,
		Logger:            logger,
	})
	return router, keyRepo
}

func doRequest(router http.Handler, method, path, accessKey string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if accessKey != "" {
		req.Header.Set(AccessKeyHeader, accessKey)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_WorkspaceRequiresAccessKey(t *testing.T) {
	router, repo := newTestRouter(t)
	repo.keys["k1"] = domain.NewAccessKey("k1", "KNV-ABCDEF123456", "Cliente", domain.RoleUser, "")

	rec := doRequest(router, http.MethodGet, "/api/cards", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/cards", "KNV-WRONGWRONG12", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/cards", "KNV-ABCDEF123456", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_AdminRoutesRejectUserKey(t *testing.T) {
	router, repo := newTestRouter(t)
	repo.keys["k1"] = domain.NewAccessKey("k1", "KNV-ABCDEF123456", "Cliente", domain.RoleUser, "")

	rec := doRequest(router, http.MethodGet, "/api/admin/keys", "KNV-ABCDEF123456", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/admin/keys", testAdminPassword, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_AdminKeyLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	// Issue a key.
	rec := doRequest(router, http.MethodPost, "/api/admin/keys", testAdminPassword, createKeyRequest{
		Label: "Cliente: Maria",
		Role:  domain.RoleUser,
		Email: "maria@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var key domain.AccessKey
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &key))
	require.NotEmpty(t, key.ID)
	require.NotEmpty(t, key.Password)

	// The new key opens the workspace.
	rec = doRequest(router, http.MethodGet, "/api/cards", key.Password, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Deactivate, then the key stops working.
	rec = doRequest(router, http.MethodPatch, "/api/admin/keys/"+key.ID+"/status", testAdminPassword, setStatusRequest{IsActive: false})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/cards", key.Password, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// The default key cannot be deleted.
	rec = doRequest(router, http.MethodDelete, "/api/admin/keys/"+domain.DefaultKeyID, testAdminPassword, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// The issued key can.
	rec = doRequest(router, http.MethodDelete, "/api/admin/keys/"+key.ID, testAdminPassword, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_CardCRUD(t *testing.T) {
	router, repo := newTestRouter(t)
	repo.keys["k1"] = domain.NewAccessKey("k1", "KNV-ABCDEF123456", "Cliente", domain.RoleUser, "")
	const accessKey = "KNV-ABCDEF123456"

	rec := doRequest(router, http.MethodPost, "/api/cards", accessKey, cardRequest{
		Title:   "Campanha de Natal",
		Content: "Ideias para a campanha",
		Type:    domain.CardTypeIdea,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var card domain.Card
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	require.NotEmpty(t, card.ID)
	require.Equal(t, domain.CardTypeIdea, card.Type)
	require.Equal(t, domain.CardColors[0], card.Color)

	rec = doRequest(router, http.MethodPatch, "/api/cards/"+card.ID, accessKey, cardRequest{Title: "Campanha de Páscoa"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	require.Equal(t, "Campanha de Páscoa", card.Title)

	rec = doRequest(router, http.MethodDelete, "/api/cards/"+card.ID, accessKey, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/cards/"+card.ID, accessKey, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_GenerateWithoutProviderUnavailable(t *testing.T) {
	router, repo := newTestRouter(t)
	repo.keys["k1"] = domain.NewAccessKey("k1", "KNV-ABCDEF123456", "Cliente", domain.RoleUser, "")

	rec := doRequest(router, http.MethodPost, "/api/designs/generate", "KNV-ABCDEF123456", generateRequest{
		MainIdea: "Logotipo para padaria artesanal",
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
