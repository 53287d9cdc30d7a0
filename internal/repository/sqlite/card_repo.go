package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/repository"
)

// cardRepository implements repository.CardRepository for SQLite.
type cardRepository struct {
	db *DB
}

// NewCardRepository creates a new SQLite card repository.
func NewCardRepository(db *DB) repository.CardRepository {
	return &cardRepository{db: db}
}

// Create creates a new card.
func (r *cardRepository) Create(ctx context.Context, card *domain.Card) error {
	query := `
		INSERT INTO cards (id, title, content, type, color, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var imageURL sql.NullString
	if card.ImageURL != "" {
		imageURL = sql.NullString{String: card.ImageURL, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		card.ID,
		card.Title,
		card.Content,
		card.Type,
		card.Color,
		imageURL,
		card.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}

	return nil
}

// GetByID retrieves a card by id.
func (r *cardRepository) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	query := `SELECT id, title, content, type, color, image_url, created_at FROM cards WHERE id = ?`
	card, err := scanCard(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCardNotFound
		}
		return nil, err
	}
	return card, nil
}

// List returns all cards, newest first.
func (r *cardRepository) List(ctx context.Context) ([]*domain.Card, error) {
	query := `SELECT id, title, content, type, color, image_url, created_at FROM cards ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}

	return cards, nil
}

// Update updates an existing card.
func (r *cardRepository) Update(ctx context.Context, card *domain.Card) error {
	query := `UPDATE cards SET title = ?, content = ?, type = ?, color = ?, image_url = ? WHERE id = ?`

	var imageURL sql.NullString
	if card.ImageURL != "" {
		imageURL = sql.NullString{String: card.ImageURL, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query,
		card.Title,
		card.Content,
		card.Type,
		card.Color,
		imageURL,
		card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrCardNotFound
	}

	return nil
}

// Delete deletes a card by id.
func (r *cardRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrCardNotFound
	}

	return nil
}

func scanCard(s scanner) (*domain.Card, error) {
	card := &domain.Card{}
	var imageURL sql.NullString
	var createdAt string

	err := s.Scan(
		&card.ID,
		&card.Title,
		&card.Content,
		&card.Type,
		&card.Color,
		&imageURL,
		&createdAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan card: %w", err)
	}

	card.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if imageURL.Valid {
		card.ImageURL = imageURL.String
	}

	return card, nil
}

// Ensure cardRepository implements repository.CardRepository.
var _ repository.CardRepository = (*cardRepository)(nil)
