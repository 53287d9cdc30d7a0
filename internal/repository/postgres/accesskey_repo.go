package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/repository"
)

// accessKeyRepository implements repository.AccessKeyRepository for PostgreSQL.
type accessKeyRepository struct {
	db *DB
}

// NewAccessKeyRepository creates a new PostgreSQL access key repository.
func NewAccessKeyRepository(db *DB) repository.AccessKeyRepository {
	return &accessKeyRepository{db: db}
}

const accessKeyColumns = `id, password, label, email, role, is_active, created_at, usage_count, usage_limit, last_used_at`

// Create creates a new access key.
func (r *accessKeyRepository) Create(ctx context.Context, key *domain.AccessKey) error {
	query := `
		INSERT INTO access_keys (` + accessKeyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var email *string
	if key.Email != "" {
		email = &key.Email
	}

	_, err := r.db.Pool.Exec(ctx, query,
		key.ID,
		key.Password,
		key.Label,
		email,
		key.Role,
		key.IsActive,
		key.CreatedAt.UTC(),
		key.UsageCount,
		key.UsageLimit,
		key.LastUsedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrKeyExists
		}
		return fmt.Errorf("failed to create access key: %w", err)
	}

	return nil
}

// GetByID retrieves an access key by id.
func (r *accessKeyRepository) GetByID(ctx context.Context, id string) (*domain.AccessKey, error) {
	query := `SELECT ` + accessKeyColumns + ` FROM access_keys WHERE id = $1`
	return r.scanAccessKey(r.db.Pool.QueryRow(ctx, query, id))
}

// GetByPassword retrieves an access key by exact password match.
func (r *accessKeyRepository) GetByPassword(ctx context.Context, password string) (*domain.AccessKey, error) {
	query := `SELECT ` + accessKeyColumns + ` FROM access_keys WHERE password = $1`
	return r.scanAccessKey(r.db.Pool.QueryRow(ctx, query, password))
}

// GetActiveByPassword retrieves an active access key by exact password match.
func (r *accessKeyRepository) GetActiveByPassword(ctx context.Context, password string) (*domain.AccessKey, error) {
	query := `SELECT ` + accessKeyColumns + ` FROM access_keys WHERE password = $1 AND is_active`
	return r.scanAccessKey(r.db.Pool.QueryRow(ctx, query, password))
}

// List returns all access keys, newest first.
func (r *accessKeyRepository) List(ctx context.Context) ([]*domain.AccessKey, error) {
	query := `SELECT ` + accessKeyColumns + ` FROM access_keys ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list access keys: %w", err)
	}
	defer rows.Close()

	var keys []*domain.AccessKey
	for rows.Next() {
		key, err := scanAccessKeyRow(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating access keys: %w", err)
	}

	return keys, nil
}

// Count returns the number of stored keys.
func (r *accessKeyRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM access_keys`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count access keys: %w", err)
	}
	return count, nil
}

// ExistsByPassword checks whether a key with the given password exists.
func (r *accessKeyRepository) ExistsByPassword(ctx context.Context, password string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM access_keys WHERE password = $1)`, password).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check password existence: %w", err)
	}
	return exists, nil
}

// UpdateStatus sets the active flag for the key with the given id.
func (r *accessKeyRepository) UpdateStatus(ctx context.Context, id string, isActive bool) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE access_keys SET is_active = $1 WHERE id = $2`, isActive, id)
	if err != nil {
		return fmt.Errorf("failed to update access key status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrKeyNotFound
	}
	return nil
}

// IncrementUsage atomically adds one to usage_count and stamps last_used_at.
func (r *accessKeyRepository) IncrementUsage(ctx context.Context, password string) error {
	query := `
		UPDATE access_keys
		SET usage_count = usage_count + 1, last_used_at = $1
		WHERE password = $2
	`
	_, err := r.db.Pool.Exec(ctx, query, time.Now().UTC(), password)
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

// ResetUsage sets usage_count back to 0 for the key with the given id.
func (r *accessKeyRepository) ResetUsage(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE access_keys SET usage_count = 0 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to reset usage: %w", err)
	}
	return nil
}

// Delete deletes an access key by id.
func (r *accessKeyRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM access_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete access key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrKeyNotFound
	}
	return nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *accessKeyRepository) scanAccessKey(row pgx.Row) (*domain.AccessKey, error) {
	key, err := scanAccessKeyRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, err
	}
	return key, nil
}

func scanAccessKeyRow(s rowScanner) (*domain.AccessKey, error) {
	key := &domain.AccessKey{}
	var email *string
	var lastUsedAt *time.Time

	err := s.Scan(
		&key.ID,
		&key.Password,
		&key.Label,
		&email,
		&key.Role,
		&key.IsActive,
		&key.CreatedAt,
		&key.UsageCount,
		&key.UsageLimit,
		&lastUsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan access key: %w", err)
	}

	if email != nil {
		key.Email = *email
	}
	key.LastUsedAt = lastUsedAt

	return key, nil
}

// isUniqueViolation checks if an error is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Ensure accessKeyRepository implements repository.AccessKeyRepository.
var _ repository.AccessKeyRepository = (*accessKeyRepository)(nil)
