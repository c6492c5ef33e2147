package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/repository/base"
)

const slideshowColumns = `id, title, description, course_id, created_by, visibility, subject, language, country, is_published, version, created_at, updated_at`

type SlideshowRepository struct {
	base.Repository
}

func NewSlideshowRepository(db base.Querier) *SlideshowRepository {
	return &SlideshowRepository{Repository: base.NewRepository(db)}
}

func scanSlideshow(row pgx.Row) (*model.Slideshow, error) {
	var s model.Slideshow
	err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.CourseID,
		&s.CreatedBy,
		&s.Visibility,
		&s.Subject,
		&s.Language,
		&s.Country,
		&s.IsPublished,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create stores a new slideshow; Version is set by the database default.
func (r *SlideshowRepository) Create(ctx context.Context, s *model.Slideshow) error {
	query := `
		INSERT INTO slideshows (title, description, course_id, created_by, visibility, subject, language, country, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, version, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		s.Title,
		s.Description,
		s.CourseID,
		s.CreatedBy,
		s.Visibility,
		s.Subject,
		s.Language,
		s.Country,
		s.IsPublished,
	).Scan(&s.ID, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create slideshow: %w", err)
	}
	return nil
}

func (r *SlideshowRepository) get(ctx context.Context, id int64, suffix string) (*model.Slideshow, error) {
	query := `SELECT ` + slideshowColumns + ` FROM slideshows WHERE id = $1` + suffix

	s, err := scanSlideshow(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slideshow by id: %w", err)
	}
	return s, nil
}

func (r *SlideshowRepository) GetByID(ctx context.Context, id int64) (*model.Slideshow, error) {
	return r.get(ctx, id, "")
}

func (r *SlideshowRepository) LockByID(ctx context.Context, id int64) (*model.Slideshow, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *SlideshowRepository) Update(ctx context.Context, s *model.Slideshow) error {
	query := `
		UPDATE slideshows
		SET title = $2, description = $3, visibility = $4, subject = $5, language = $6,
		    country = $7, is_published = $8, version = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		s.ID,
		s.Title,
		s.Description,
		s.Visibility,
		s.Subject,
		s.Language,
		s.Country,
		s.IsPublished,
		s.Version,
	).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update slideshow: %w", err)
	}
	return nil
}

// Delete removes the slideshow; slides cascade.
func (r *SlideshowRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM slideshows WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete slideshow: %w", err)
	}
	return nil
}

func (r *SlideshowRepository) List(ctx context.Context, viewerID int64, filter model.SlideshowFilter, page model.Page) ([]*model.Slideshow, error) {
	page = page.Normalize()

	where := []string{"(created_by = $1 OR (is_published AND visibility = 'public'))"}
	args := []any{viewerID}
	if filter.MineOnly {
		where = []string{"created_by = $1"}
	}

	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.Visibility != "" {
		add("visibility = $%d", filter.Visibility)
	}
	if filter.Subject != "" {
		add("subject = $%d", filter.Subject)
	}
	if filter.Language != "" {
		add("language = $%d", filter.Language)
	}
	if filter.Country != "" {
		add("country = $%d", filter.Country)
	}
	args = append(args, page.Size, page.Offset())

	query := fmt.Sprintf(`
		SELECT %s
		FROM slideshows
		WHERE %s
		ORDER BY updated_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, slideshowColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list slideshows: %w", err)
	}
	defer rows.Close()

	var shows []*model.Slideshow
	for rows.Next() {
		s, err := scanSlideshow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slideshow: %w", err)
		}
		shows = append(shows, s)
	}
	return shows, rows.Err()
}
