package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/ai"
	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/storage"
)

// MockDesignRepository is a mock implementation of
// repository.DesignRepository.
type MockDesignRepository struct {
	designs   map[string]*domain.Design
	createErr error
}

func NewMockDesignRepository() *MockDesignRepository {
	return &MockDesignRepository{designs: make(map[string]*domain.Design)}
}

func (m *MockDesignRepository) Create(ctx context.Context, design *domain.Design) error {
	if m.createErr != nil {
		return m.createErr
	}
	cp := *design
	m.designs[design.ID] = &cp
	return nil
}

func (m *MockDesignRepository) GetByID(ctx context.Context, id string) (*domain.Design, error) {
	if d, ok := m.designs[id]; ok {
		return d, nil
	}
	return nil, domain.ErrDesignNotFound
}

func (m *MockDesignRepository) List(ctx context.Context, category domain.DesignCategory) ([]*domain.Design, error) {
	var result []*domain.Design
	for _, d := range m.designs {
		if category == "" || d.Category == category {
			result = append(result, d)
		}
	}
	return result, nil
}

func (m *MockDesignRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.designs[id]; !ok {
		return domain.ErrDesignNotFound
	}
	delete(m.designs, id)
	return nil
}

// stubGenerator returns a fixed image and records the prompts it saw.
type stubGenerator struct {
	prompts []string
	err     error
}

func (g *stubGenerator) GenerateImage(ctx context.Context, prompt string, refs []ai.Image) (ai.Image, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return ai.Image{}, g.err
	}
	return ai.Image{MIMEType: "image/png", Data: []byte("png-bytes")}, nil
}

// stubReviewer returns a scripted sequence of verdicts.
type stubReviewer struct {
	verdicts []ai.Review
	calls    int
}

func (r *stubReviewer) ReviewDesign(ctx context.Context, img ai.Image, brief string) (ai.Review, error) {
	if r.calls >= len(r.verdicts) {
		return ai.Review{Approved: true}, nil
	}
	v := r.verdicts[r.calls]
	r.calls++
	return v, nil
}

func newDesignFixture(t *testing.T, gen ai.ImageGenerator, rev ai.DesignReviewer) (*DesignService, *MockDesignRepository, *MockAccessKeyRepository) {
	t.Helper()

	keyRepo := NewMockAccessKeyRepository()
	keys := newTestKeyService(keyRepo)

	store, err := storage.NewFilesystemBackend(t.TempDir())
	if err != nil {
		t.Fatalf("storage setup: %v", err)
	}

	designRepo := NewMockDesignRepository()
	svc := NewDesignService(DesignServiceDeps{
		Repo:        designRepo,
		Keys:        keys,
		Generator:   gen,
		Reviewer:    rev,
		Store:       store,
		MaxAttempts: 2,
	}, zerolog.Nop())
	return svc, designRepo, keyRepo
}

func testBrief() domain.DesignBrief {
	return domain.DesignBrief{
		Category:  domain.DesignCategoryBranding,
		Objective: "Lançamento de marca",
		MainIdea:  "Logotipo para padaria artesanal",
		Style:     "minimalista",
	}
}

func TestDesignService_Generate_Success(t *testing.T) {
	gen := &stubGenerator{}
	svc, repo, keyRepo := newDesignFixture(t, gen, &stubReviewer{verdicts: []ai.Review{{Approved: true}}})

	key := domain.NewAccessKey("k1", "KNV-ABCDEF123456", "Cliente", domain.RoleUser, "")
	keyRepo.keys["k1"] = key

	design, err := svc.GenerateDesign(context.Background(), key.Password, testBrief(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if design.Category != domain.DesignCategoryBranding {
		t.Errorf("expected branding category, got %s", design.Category)
	}
	if !strings.HasPrefix(design.ImageURL, "/api/images/designs/") {
		t.Errorf("unexpected image url: %q", design.ImageURL)
	}
	if _, ok := repo.designs[design.ID]; !ok {
		t.Error("design record not persisted")
	}
	if len(gen.prompts) != 1 {
		t.Errorf("expected 1 generation, got %d", len(gen.prompts))
	}
	// Usage is charged exactly once.
	if key.UsageCount != 1 {
		t.Errorf("expected usage 1, got %d", key.UsageCount)
	}

	// The stored image is retrievable through the service.
	obj, err := svc.GetImage(context.Background(), strings.TrimPrefix(design.ImageURL, "/api/images/"))
	if err != nil {
		t.Fatalf("stored image not retrievable: %v", err)
	}
	if string(obj.Data) != "png-bytes" {
		t.Errorf("unexpected image payload: %q", obj.Data)
	}
}

func TestDesignService_Generate_RetriesOnRejection(t *testing.T) {
	gen := &stubGenerator{}
	rev := &stubReviewer{verdicts: []ai.Review{
		{Approved: false, Feedback: "texto ilegível"},
		{Approved: true},
	}}
	svc, _, keyRepo := newDesignFixture(t, gen, rev)
	keyRepo.keys["k1"] = domain.NewAccessKey("k1", "KNV-ABCDEF123456", "Cliente", domain.RoleUser, "")

	_, err := svc.GenerateDesign(context.Background(), "KNV-ABCDEF123456", testBrief(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gen.prompts) != 2 {
		t.Fatalf("expected 2 generations, got %d", len(gen.prompts))
	}
	// The retry prompt carries the reviewer's feedback.
	if !strings.Contains(gen.prompts[1], "texto ilegível") {
		t.Errorf("retry prompt missing feedback: %q", gen.prompts[1])
	}
}

func TestDesignService_Generate_AttemptsBounded(t *testing.T) {
	gen := &stubGenerator{}
	rev := &stubReviewer{verdicts: []ai.Review{
		{Approved: false, Feedback: "ruim"},
		{Approved: false, Feedback: "ainda ruim"},
		{Approved: false, Feedback: "sempre ruim"},
	}}
	svc, repo, keyRepo := newDesignFixture(t, gen, rev)
	key := domain.NewAccessKey("k1", "KNV-ABCDEF123456", "Cliente", domain.RoleUser, "")
	keyRepo.keys["k1"] = key

	design, err := svc.GenerateDesign(context.Background(), key.Password, testBrief(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The loop stops at MaxAttempts and delivers the last image anyway.
	if len(gen.prompts) != 2 {
		t.Fatalf("expected 2 generations, got %d", len(gen.prompts))
	}
	if _, ok := repo.designs[design.ID]; !ok {
		t.Error("design must be delivered even when review keeps rejecting")
	}
	if key.UsageCount != 1 {
		t.Errorf("expected usage 1, got %d", key.UsageCount)
	}
}

func TestDesignService_Generate_QuotaExceeded(t *testing.T) {
	gen := &stubGenerator{}
	svc, _, keyRepo := newDesignFixture(t, gen, nil)

	key := domain.NewAccessKey("k1", "KNV-ABCDEF123456", "Cliente", domain.RoleUser, "")
	key.UsageCount = key.UsageLimit
	keyRepo.keys["k1"] = key

	_, err := svc.GenerateDesign(context.Background(), key.Password, testBrief(), nil)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	// No model call and no usage charge on rejection.
	if len(gen.prompts) != 0 {
		t.Errorf("generator must not be called, got %d calls", len(gen.prompts))
	}
	if key.UsageCount != key.UsageLimit {
		t.Errorf("usage must not change, got %d", key.UsageCount)
	}
}

func TestDesignService_Generate_FailureDoesNotCharge(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model unavailable")}
	svc, _, keyRepo := newDesignFixture(t, gen, nil)

	key := domain.NewAccessKey("k1", "KNV-ABCDEF123456", "Cliente", domain.RoleUser, "")
	keyRepo.keys["k1"] = key

	_, err := svc.GenerateDesign(context.Background(), key.Password, testBrief(), nil)
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if key.UsageCount != 0 {
		t.Errorf("failed generation must not charge usage, got %d", key.UsageCount)
	}
}

func TestDesignService_Generate_NotConfigured(t *testing.T) {
	svc, _, keyRepo := newDesignFixture(t, nil, nil)
	keyRepo.keys["k1"] = domain.NewAccessKey("k1", "KNV-ABCDEF123456", "Cliente", domain.RoleUser, "")

	_, err := svc.GenerateDesign(context.Background(), "KNV-ABCDEF123456", testBrief(), nil)
	if !errors.Is(err, ErrGenerationNotConfigured) {
		t.Fatalf("expected ErrGenerationNotConfigured, got %v", err)
	}
}

func TestDesignService_Generate_EmptyBrief(t *testing.T) {
	svc, _, _ := newDesignFixture(t, &stubGenerator{}, nil)

	_, err := svc.GenerateDesign(context.Background(), "x", domain.DesignBrief{}, nil)
	if !errors.Is(err, domain.ErrEmptyBrief) {
		t.Fatalf("expected ErrEmptyBrief, got %v", err)
	}
}

func TestDesignService_DeleteDesign_RemovesImage(t *testing.T) {
	gen := &stubGenerator{}
	svc, repo, keyRepo := newDesignFixture(t, gen, nil)
	keyRepo.keys["k1"] = domain.NewAccessKey("k1", "KNV-ABCDEF123456", "Cliente", domain.RoleUser, "")

	design, err := svc.GenerateDesign(context.Background(), "KNV-ABCDEF123456", testBrief(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.DeleteDesign(context.Background(), design.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.designs[design.ID]; ok {
		t.Error("design record should be gone")
	}

	key := strings.TrimPrefix(design.ImageURL, "/api/images/")
	if _, err := svc.GetImage(context.Background(), key); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Errorf("expected stored image to be removed, got %v", err)
	}
}

func TestDesignService_ExpandIdea_RequiresValidKey(t *testing.T) {
	svc, _, _ := newDesignFixture(t, nil, nil)

	_, err := svc.ExpandIdea(context.Background(), "KNV-DOESNOTEXIST", "uma ideia")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}
