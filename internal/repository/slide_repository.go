package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/repository/base"
)

const slideColumns = `id, slideshow_id, "order", title, content, rendered_content, notes, created_at, updated_at`

type SlideRepository struct {
	base.Repository
}

func NewSlideRepository(db base.Querier) *SlideRepository {
	return &SlideRepository{Repository: base.NewRepository(db)}
}

func scanSlide(row pgx.Row) (*model.Slide, error) {
	var s model.Slide
	err := row.Scan(
		&s.ID,
		&s.SlideshowID,
		&s.Order,
		&s.Title,
		&s.Content,
		&s.RenderedContent,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SlideRepository) Create(ctx context.Context, s *model.Slide) error {
	query := `
		INSERT INTO slides (slideshow_id, "order", title, content, rendered_content, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(ctx, query, s.SlideshowID, s.Order, s.Title, s.Content, s.RenderedContent, s.Notes).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create slide: %w", ErrDuplicate)
		}
		return fmt.Errorf("create slide: %w", err)
	}
	return nil
}

func (r *SlideRepository) get(ctx context.Context, id int64, suffix string) (*model.Slide, error) {
	query := `SELECT ` + slideColumns + ` FROM slides WHERE id = $1` + suffix

	s, err := scanSlide(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slide by id: %w", err)
	}
	return s, nil
}

func (r *SlideRepository) GetByID(ctx context.Context, id int64) (*model.Slide, error) {
	return r.get(ctx, id, "")
}

// LockByID must run inside a transaction.
func (r *SlideRepository) LockByID(ctx context.Context, id int64) (*model.Slide, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *SlideRepository) Update(ctx context.Context, s *model.Slide) error {
	query := `
		UPDATE slides
		SET "order" = $2, title = $3, content = $4, rendered_content = $5, notes = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.QueryRow(ctx, query, s.ID, s.Order, s.Title, s.Content, s.RenderedContent, s.Notes).Scan(&s.UpdatedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("update slide: %w", ErrDuplicate)
		}
		return fmt.Errorf("update slide: %w", err)
	}
	return nil
}

func (r *SlideRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM slides WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete slide: %w", err)
	}
	return nil
}

// ListBySlideshow returns the slides in presentation order.
func (r *SlideRepository) ListBySlideshow(ctx context.Context, slideshowID int64) ([]*model.Slide, error) {
	query := `SELECT ` + slideColumns + ` FROM slides WHERE slideshow_id = $1 ORDER BY "order", id`

	rows, err := r.Query(ctx, query, slideshowID)
	if err != nil {
		return nil, fmt.Errorf("list slides: %w", err)
	}
	defer rows.Close()

	var slides []*model.Slide
	for rows.Next() {
		s, err := scanSlide(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slide: %w", err)
		}
		slides = append(slides, s)
	}
	return slides, rows.Err()
}

// MaxOrder returns nil for a slideshow without slides.
func (r *SlideRepository) MaxOrder(ctx context.Context, slideshowID int64) (*int, error) {
	var max *int
	if err := r.QueryRow(ctx, `SELECT MAX("order") FROM slides WHERE slideshow_id = $1`, slideshowID).Scan(&max); err != nil {
		return nil, fmt.Errorf("get max slide order: %w", err)
	}
	return max, nil
}

func (r *SlideRepository) OrderTaken(ctx context.Context, slideshowID int64, order int, exceptID int64) (bool, error) {
	ok, err := r.Exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM slides WHERE slideshow_id = $1 AND "order" = $2 AND id <> $3)`,
		slideshowID, order, exceptID)
	if err != nil {
		return false, fmt.Errorf("check slide order: %w", err)
	}
	return ok, nil
}
