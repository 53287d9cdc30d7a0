package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/repository"
)

// newTestDB opens a migrated in-memory database.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(context.Background(), DefaultConfig(":memory:"), zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestKeyRepo(t *testing.T) repository.AccessKeyRepository {
	t.Helper()
	return NewAccessKeyRepository(newTestDB(t))
}

func sampleKey(id, password string) *domain.AccessKey {
	key := domain.NewAccessKey(id, password, "Cliente: Teste", domain.RoleUser, "teste@example.com")
	return key
}

func TestAccessKeyRepository_CreateAndGet(t *testing.T) {
	repo := newTestKeyRepo(t)
	ctx := context.Background()

	key := sampleKey("k1", "KNV-ABCDEF123456")
	if err := repo.Create(ctx, key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetByID(ctx, "k1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Password != key.Password {
		t.Errorf("expected password %q, got %q", key.Password, got.Password)
	}
	if got.Label != key.Label {
		t.Errorf("expected label %q, got %q", key.Label, got.Label)
	}
	if got.Email != "teste@example.com" {
		t.Errorf("expected email to round-trip, got %q", got.Email)
	}
	if got.Role != domain.RoleUser {
		t.Errorf("expected role USER, got %s", got.Role)
	}
	if !got.IsActive {
		t.Error("expected key to be active")
	}
	if got.UsageLimit != domain.DefaultUsageLimit {
		t.Errorf("expected limit %d, got %d", domain.DefaultUsageLimit, got.UsageLimit)
	}
	if got.LastUsedAt != nil {
		t.Error("fresh key must have no last_used_at")
	}

	byPassword, err := repo.GetByPassword(ctx, key.Password)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byPassword.ID != "k1" {
		t.Errorf("expected id k1, got %s", byPassword.ID)
	}
}

func TestAccessKeyRepository_DuplicatePassword(t *testing.T) {
	repo := newTestKeyRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, sampleKey("k1", "KNV-ABCDEF123456")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := repo.Create(ctx, sampleKey("k2", "KNV-ABCDEF123456"))
	if !errors.Is(err, domain.ErrKeyExists) {
		t.Errorf("expected ErrKeyExists, got %v", err)
	}
}

func TestAccessKeyRepository_GetActiveByPassword(t *testing.T) {
	repo := newTestKeyRepo(t)
	ctx := context.Background()

	key := sampleKey("k1", "KNV-ABCDEF123456")
	if err := repo.Create(ctx, key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := repo.GetActiveByPassword(ctx, key.Password); err != nil {
		t.Fatalf("active key should resolve: %v", err)
	}

	if err := repo.UpdateStatus(ctx, "k1", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := repo.GetActiveByPassword(ctx, key.Password); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("inactive key must not resolve, got %v", err)
	}
	// The plain lookup still sees it.
	if _, err := repo.GetByPassword(ctx, key.Password); err != nil {
		t.Errorf("plain lookup should still resolve: %v", err)
	}
}

func TestAccessKeyRepository_IncrementUsage(t *testing.T) {
	repo := newTestKeyRepo(t)
	ctx := context.Background()

	key := sampleKey("k1", "KNV-ABCDEF123456")
	if err := repo.Create(ctx, key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	before := time.Now().UTC().Add(-time.Second)
	for i := 0; i < 3; i++ {
		if err := repo.IncrementUsage(ctx, key.Password); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := repo.GetByID(ctx, "k1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UsageCount != 3 {
		t.Errorf("expected usage 3, got %d", got.UsageCount)
	}
	if got.LastUsedAt == nil || got.LastUsedAt.Before(before) {
		t.Errorf("expected fresh last_used_at, got %v", got.LastUsedAt)
	}
}

func TestAccessKeyRepository_IncrementUsage_MissingKeyNoop(t *testing.T) {
	repo := newTestKeyRepo(t)

	if err := repo.IncrementUsage(context.Background(), "KNV-DOESNOTEXIST"); err != nil {
		t.Errorf("missing key must be a no-op, got %v", err)
	}
}

func TestAccessKeyRepository_ResetUsage(t *testing.T) {
	repo := newTestKeyRepo(t)
	ctx := context.Background()

	key := sampleKey("k1", "KNV-ABCDEF123456")
	if err := repo.Create(ctx, key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := repo.IncrementUsage(ctx, key.Password); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := repo.ResetUsage(ctx, "k1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := repo.GetByID(ctx, "k1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UsageCount != 0 {
		t.Errorf("expected usage 0, got %d", got.UsageCount)
	}
}

func TestAccessKeyRepository_CountAndExists(t *testing.T) {
	repo := newTestKeyRepo(t)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty store, got %d", count)
	}

	if err := repo.Create(ctx, sampleKey("k1", "KNV-ABCDEF123456")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, _ = repo.Count(ctx)
	if count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	exists, err := repo.ExistsByPassword(ctx, "KNV-ABCDEF123456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected password to exist")
	}
	exists, _ = repo.ExistsByPassword(ctx, "KNV-OTHER")
	if exists {
		t.Error("unexpected existence for unknown password")
	}
}

func TestAccessKeyRepository_List(t *testing.T) {
	repo := newTestKeyRepo(t)
	ctx := context.Background()

	older := sampleKey("k1", "KNV-AAAAAA111111")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := sampleKey("k2", "KNV-BBBBBB222222")

	if err := repo.Create(ctx, older); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Create(ctx, newer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	keys, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if keys[0].ID != "k2" {
		t.Errorf("expected newest first, got %s", keys[0].ID)
	}
}

func TestAccessKeyRepository_DeleteAndStatusNotFound(t *testing.T) {
	repo := newTestKeyRepo(t)
	ctx := context.Background()

	if err := repo.Delete(ctx, "missing"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
	if err := repo.UpdateStatus(ctx, "missing", true); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}

	if err := repo.Create(ctx, sampleKey("k1", "KNV-ABCDEF123456")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(ctx, "k1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.GetByID(ctx, "k1"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
}
