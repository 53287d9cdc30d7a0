package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/repository"
)

// accessKeyRepository implements repository.AccessKeyRepository for SQLite.
type accessKeyRepository struct {
	db *DB
}

// NewAccessKeyRepository creates a new SQLite access key repository.
func NewAccessKeyRepository(db *DB) repository.AccessKeyRepository {
	return &accessKeyRepository{db: db}
}

const accessKeyColumns = `id, password, label, email, role, is_active, created_at, usage_count, usage_limit, last_used_at`

// Create creates a new access key.
func (r *accessKeyRepository) Create(ctx context.Context, key *domain.AccessKey) error {
	query := `
		INSERT INTO access_keys (` + accessKeyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var email, lastUsedAt sql.NullString
	if key.Email != "" {
		email = sql.NullString{String: key.Email, Valid: true}
	}
	if key.LastUsedAt != nil {
		lastUsedAt = sql.NullString{String: key.LastUsedAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		key.ID,
		key.Password,
		key.Label,
		email,
		key.Role,
		boolToInt(key.IsActive),
		key.CreatedAt.UTC().Format(time.RFC3339),
		key.UsageCount,
		key.UsageLimit,
		lastUsedAt,
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
	query := `SELECT ` + accessKeyColumns + ` FROM access_keys WHERE id = ?`
	return r.scanAccessKey(r.db.QueryRowContext(ctx, query, id))
}

// GetByPassword retrieves an access key by exact password match.
func (r *accessKeyRepository) GetByPassword(ctx context.Context, password string) (*domain.AccessKey, error) {
	query := `SELECT ` + accessKeyColumns + ` FROM access_keys WHERE password = ?`
	return r.scanAccessKey(r.db.QueryRowContext(ctx, query, password))
}

// GetActiveByPassword retrieves an active access key by exact password match.
func (r *accessKeyRepository) GetActiveByPassword(ctx context.Context, password string) (*domain.AccessKey, error) {
	query := `SELECT ` + accessKeyColumns + ` FROM access_keys WHERE password = ? AND is_active = 1`
	return r.scanAccessKey(r.db.QueryRowContext(ctx, query, password))
}

// List returns all access keys, newest first.
func (r *accessKeyRepository) List(ctx context.Context) ([]*domain.AccessKey, error) {
	query := `SELECT ` + accessKeyColumns + ` FROM access_keys ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
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
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM access_keys`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count access keys: %w", err)
	}
	return count, nil
}

// ExistsByPassword checks whether a key with the given password exists.
func (r *accessKeyRepository) ExistsByPassword(ctx context.Context, password string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM access_keys WHERE password = ?`, password).Scan(&one)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check password existence: %w", err)
	}
	return true, nil
}

// UpdateStatus sets the active flag for the key with the given id.
func (r *accessKeyRepository) UpdateStatus(ctx context.Context, id string, isActive bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE access_keys SET is_active = ? WHERE id = ?`, boolToInt(isActive), id)
	if err != nil {
		return fmt.Errorf("failed to update access key status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrKeyNotFound
	}

	return nil
}

// IncrementUsage atomically adds one to usage_count and stamps last_used_at.
// The single UPDATE makes concurrent increments safe; no read-modify-write.
func (r *accessKeyRepository) IncrementUsage(ctx context.Context, password string) error {
	query := `
		UPDATE access_keys
		SET usage_count = usage_count + 1, last_used_at = ?
		WHERE password = ?
	`
	_, err := r.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), password)
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

// ResetUsage sets usage_count back to 0 for the key with the given id.
func (r *accessKeyRepository) ResetUsage(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE access_keys SET usage_count = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to reset usage: %w", err)
	}
	return nil
}

// Delete deletes an access key by id.
func (r *accessKeyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM access_keys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete access key: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrKeyNotFound
	}

	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanAccessKey scans a single access key row.
func (r *accessKeyRepository) scanAccessKey(row *sql.Row) (*domain.AccessKey, error) {
	key, err := scanAccessKeyRow(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, err
	}
	return key, nil
}

func scanAccessKeyRow(s scanner) (*domain.AccessKey, error) {
	key := &domain.AccessKey{}
	var email, lastUsedAt sql.NullString
	var createdAt string
	var isActive int

	err := s.Scan(
		&key.ID,
		&key.Password,
		&key.Label,
		&email,
		&key.Role,
		&isActive,
		&createdAt,
		&key.UsageCount,
		&key.UsageLimit,
		&lastUsedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan access key: %w", err)
	}

	key.IsActive = isActive != 0
	key.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if email.Valid {
		key.Email = email.String
	}
	if lastUsedAt.Valid {
		t, _ := time.Parse(time.RFC3339, lastUsedAt.String)
		key.LastUsedAt = &t
	}

	return key, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure accessKeyRepository implements repository.AccessKeyRepository.
var _ repository.AccessKeyRepository = (*accessKeyRepository)(nil)
