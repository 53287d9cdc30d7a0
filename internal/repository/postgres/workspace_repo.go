package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kanva-ao/kanva-server/internal/domain"
	"github.com/kanva-ao/kanva-server/internal/repository"
)

// cardRepository implements repository.CardRepository for PostgreSQL.
type cardRepository struct {
	db *DB
}

// NewCardRepository creates a new PostgreSQL card repository.
func NewCardRepository(db *DB) repository.CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Create(ctx context.Context, card *domain.Card) error {
	query := `
		INSERT INTO cards (id, title, content, type, color, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var imageURL *string
	if card.ImageURL != "" {
		imageURL = &card.ImageURL
	}

	_, err := r.db.Pool.Exec(ctx, query,
		card.ID, card.Title, card.Content, card.Type, card.Color, imageURL, card.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

func (r *cardRepository) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	query := `SELECT id, title, content, type, color, image_url, created_at FROM cards WHERE id = $1`
	card, err := scanCard(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCardNotFound
		}
		return nil, err
	}
	return card, nil
}

func (r *cardRepository) List(ctx context.Context) ([]*domain.Card, error) {
	query := `SELECT id, title, content, type, color, image_url, created_at FROM cards ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query)
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

func (r *cardRepository) Update(ctx context.Context, card *domain.Card) error {
	query := `UPDATE cards SET title = $1, content = $2, type = $3, color = $4, image_url = $5 WHERE id = $6`

	var imageURL *string
	if card.ImageURL != "" {
		imageURL = &card.ImageURL
	}

	tag, err := r.db.Pool.Exec(ctx, query, card.Title, card.Content, card.Type, card.Color, imageURL, card.ID)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCardNotFound
	}
	return nil
}

func (r *cardRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCardNotFound
	}
	return nil
}

func scanCard(s rowScanner) (*domain.Card, error) {
	card := &domain.Card{}
	var imageURL *string

	err := s.Scan(
		&card.ID,
		&card.Title,
		&card.Content,
		&card.Type,
		&card.Color,
		&imageURL,
		&card.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan card: %w", err)
	}

	if imageURL != nil {
		card.ImageURL = *imageURL
	}
	return card, nil
}

// designRepository implements repository.DesignRepository for PostgreSQL.
type designRepository struct {
	db *DB
}

// NewDesignRepository creates a new PostgreSQL design repository.
func NewDesignRepository(db *DB) repository.DesignRepository {
	return &designRepository{db: db}
}

func (r *designRepository) Create(ctx context.Context, design *domain.Design) error {
	query := `
		INSERT INTO designs (id, prompt, image_url, style, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		design.ID, design.Prompt, design.ImageURL, design.Style, design.Category, design.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create design: %w", err)
	}
	return nil
}

func (r *designRepository) GetByID(ctx context.Context, id string) (*domain.Design, error) {
	query := `SELECT id, prompt, image_url, style, category, created_at FROM designs WHERE id = $1`
	design, err := scanDesign(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDesignNotFound
		}
		return nil, err
	}
	return design, nil
}

func (r *designRepository) List(ctx context.Context, category domain.DesignCategory) ([]*domain.Design, error) {
	query := `SELECT id, prompt, image_url, style, category, created_at FROM designs`
	args := []any{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, args...)
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

func (r *designRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM designs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete design: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDesignNotFound
	}
	return nil
}

func scanDesign(s rowScanner) (*domain.Design, error) {
	design := &domain.Design{}

	err := s.Scan(
		&design.ID,
		&design.Prompt,
		&design.ImageURL,
		&design.Style,
		&design.Category,
		&design.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan design: %w", err)
	}
	return design, nil
}

// Ensure implementations satisfy the repository interfaces.
var (
	_ repository.CardRepository   = (*cardRepository)(nil)
	_ repository.DesignRepository = (*designRepository)(nil)
)
