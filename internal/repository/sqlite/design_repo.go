package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/repository"
)

// designRepository implements repository.DesignRepository for SQLite.
type designRepository struct {
	db *DB
}

// NewDesignRepository creates a new SQLite design repository.
func NewDesignRepository(db *DB) repository.DesignRepository {
	return &designRepository{db: db}
}

// Create creates a new design record.
func (r *designRepository) Create(ctx context.Context, design *domain.Design) error {
	query := `
		INSERT INTO designs (id, prompt, image_url, style, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		design.ID,
		design.Prompt,
		design.ImageURL,
		design.Style,
		design.Category,
		design.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create design: %w", err)
	}

	return nil
}

// GetByID retrieves a design by id.
func (r *designRepository) GetByID(ctx context.Context, id string) (*domain.Design, error) {
	query := `SELECT id, prompt, image_url, style, category, created_at FROM designs WHERE id = ?`
	design, err := scanDesign(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrDesignNotFound
		}
		return nil, err
	}
	return design, nil
}

// List returns all designs, newest first, optionally filtered by category.
func (r *designRepository) List(ctx context.Context, category domain.DesignCategory) ([]*domain.Design, error) {
	query := `SELECT id, prompt, image_url, style, category, created_at FROM designs`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list designs: %w", err)
	}
	defer rows.Close()

	var designs []*domain.Design
	for rows.Next() {
		design, err := scanDesign(rows)
		if err != nil {
			return nil, err
		}
		designs = append(designs, design)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating designs: %w", err)
	}

	return designs, nil
}

// Delete deletes a design by id.
func (r *designRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM designs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete design: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrDesignNotFound
	}

	return nil
}

func scanDesign(s scanner) (*domain.Design, error) {
	design := &domain.Design{}
	var createdAt string

	err := s.Scan(
		&design.ID,
		&design.Prompt,
		&design.ImageURL,
		&design.Style,
		&design.Category,
		&createdAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan design: %w", err)
	}

	design.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return design, nil
}

// Ensure designRepository implements repository.DesignRepository.
var _ repository.DesignRepository = (*designRepository)(nil)
