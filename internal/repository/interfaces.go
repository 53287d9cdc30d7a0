// Package repository defines data access interfaces for the Kanva access server.
// These interfaces abstract database operations, allowing for different
// implementations (SQLite, PostgreSQL, in-memory for testing) while keeping
// the service layer clean.
package repository

import (
	"context"

	"github.com/kanva-ao/kanva-server/internal/domain"
)

// =============================================================================
// Access Key Repository
// =============================================================================

// AccessKeyRepository defines the interface for access key data access.
// Mutations operate on single records; there is no read-all/write-all cycle,
// so concurrent issuance, toggling and usage increments cannot clobber each
// other the way a whole-collection store would.
type AccessKeyRepository interface {
	// Create creates a new access key.
	// Returns domain.ErrKeyExists if the password is already taken.
	Create(ctx context.Context, key *domain.AccessKey) error

	// GetByID retrieves an access key by id.
	GetByID(ctx context.Context, id string) (*domain.AccessKey, error)

	// GetByPassword retrieves an access key by exact password match,
	// regardless of active status.
	GetByPassword(ctx context.Context, password string) (*domain.AccessKey, error)

	// GetActiveByPassword retrieves an active access key by exact password
	// match. This is the primary method used for validation.
	GetActiveByPassword(ctx context.Context, password string) (*domain.AccessKey, error)

	// List returns all access keys, newest first.
	List(ctx context.Context) ([]*domain.AccessKey, error)

	// Count returns the number of stored keys. A zero count means the
	// store has never been written and the seed key is synthesized.
	Count(ctx context.Context) (int64, error)

	// ExistsByPassword checks whether a key with the given password exists.
	ExistsByPassword(ctx context.Context, password string) (bool, error)

	// UpdateStatus sets the active flag for the key with the given id.
	UpdateStatus(ctx context.Context, id string, isActive bool) error

	// IncrementUsage atomically adds one to usage_count and stamps
	// last_used_at for the key with the given password.
	// A missing key is a no-op, not an error.
	IncrementUsage(ctx context.Context, password string) error

	// ResetUsage sets usage_count back to 0 for the key with the given id.
	// A missing key is a no-op, not an error.
	ResetUsage(ctx context.Context, id string) error

	// Delete deletes an access key by id.
	Delete(ctx context.Context, id string) error
}

// =============================================================================
// Card Repository
// =============================================================================

// CardRepository defines the interface for workspace card data access.
type CardRepository interface {
	// Create creates a new card.
	Create(ctx context.Context, card *domain.Card) error

	// GetByID retrieves a card by id.
	GetByID(ctx context.Context, id string) (*domain.Card, error)

	// List returns all cards, newest first.
	List(ctx context.Context) ([]*domain.Card, error)

	// Update updates an existing card.
	Update(ctx context.Context, card *domain.Card) error

	// Delete deletes a card by id.
	Delete(ctx context.Context, id string) error
}

// =============================================================================
// Design Repository
// =============================================================================

// DesignRepository defines the interface for generated design data access.
type DesignRepository interface {
	// Create creates a new design record.
	Create(ctx context.Context, design *domain.Design) error

	// GetByID retrieves a design by id.
	GetByID(ctx context.Context, id string) (*domain.Design, error)

	// List returns all designs, newest first, optionally filtered by category.
	List(ctx context.Context, category domain.DesignCategory) ([]*domain.Design, error)

	// Delete deletes a design by id.
	Delete(ctx context.Context, id string) error
}

// Repositories holds all repository instances.
type Repositories struct {
	AccessKey AccessKeyRepository
	Card      CardRepository
	Design    DesignRepository
}

// DatabaseHealth is an interface for database health checks and shutdown.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Close() error
}
