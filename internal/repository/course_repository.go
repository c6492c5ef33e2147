package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/repository/base"
)

const courseColumns = `c.id, c.title, c.outline, c.language, c.country, c.subject, c.visibility, c.start_date, c.end_date, c.is_active, c.allow_join_requests, c.created_at`

type CourseRepository struct {
	base.Repository
}

func NewCourseRepository(db base.Querier) *CourseRepository {
	return &CourseRepository{Repository: base.NewRepository(db)}
}

func scanCourse(row pgx.Row, extra ...any) (*model.Course, error) {
	var c model.Course
	dest := []any{
		&c.ID,
		&c.Title,
		&c.Outline,
		&c.Language,
		&c.Country,
		&c.Subject,
		&c.Visibility,
		&c.StartDate,
		&c.EndDate,
		&c.IsActive,
		&c.AllowJoinRequests,
		&c.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CourseRepository) Create(ctx context.Context, c *model.Course) error {
	query := `
		INSERT INTO courses (title, outline, language, country, subject, visibility, start_date, end_date, is_active, allow_join_requests)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		c.Title,
		c.Outline,
		c.Language,
		c.Country,
		c.Subject,
		c.Visibility,
		c.StartDate,
		c.EndDate,
		c.IsActive,
		c.AllowJoinRequests,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

func (r *CourseRepository) get(ctx context.Context, id int64, suffix string) (*model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = $1` + suffix

	c, err := scanCourse(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get course by id: %w", err)
	}
	return c, nil
}

func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	return r.get(ctx, id, "")
}

// LockByID must run inside a transaction; the lock is released on commit or rollback.
func (r *CourseRepository) LockByID(ctx context.Context, id int64) (*model.Course, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *CourseRepository) Update(ctx context.Context, c *model.Course) error {
	query := `
		UPDATE courses
		SET title = $2, outline = $3, language = $4, country = $5, subject = $6,
		    visibility = $7, start_date = $8, end_date = $9, is_active = $10, allow_join_requests = $11
		WHERE id = $1
	`

	_, err := r.ExecAffected(
		ctx, query,
		c.ID,
		c.Title,
		c.Outline,
		c.Language,
		c.Country,
		c.Subject,
		c.Visibility,
		c.StartDate,
		c.EndDate,
		c.IsActive,
		c.AllowJoinRequests,
	)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes the course; memberships cascade.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM courses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

func (r *CourseRepository) List(ctx context.Context, viewerID int64, filter model.CourseFilter, page model.Page) ([]*model.Course, error) {
	page = page.Normalize()

	enrolled := `EXISTS (SELECT 1 FROM course_memberships m WHERE m.course_id = c.id AND m.user_id = $1 AND m.status = 'enrolled')`
	where := []string{"(c.visibility = 'public' OR " + enrolled + ")"}
	args := []any{viewerID}
	if filter.MineOnly {
		where = []string{enrolled}
	}

	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.Visibility != "" {
		add("c.visibility = $%d", filter.Visibility)
	}
	if filter.Subject != "" {
		add("c.subject = $%d", filter.Subject)
	}
	if filter.Language != "" {
		add("c.language = $%d", filter.Language)
	}
	if filter.Country != "" {
		add("c.country = $%d", filter.Country)
	}
	args = append(args, page.Size, page.Offset())

	query := fmt.Sprintf(`
		SELECT %s,
		       (SELECT COUNT(*) FROM course_memberships m WHERE m.course_id = c.id AND m.status = 'enrolled')
		FROM courses c
		WHERE %s
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $%d OFFSET $%d
	`, courseColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []*model.Course
	for rows.Next() {
		var count int
		c, err := scanCourse(rows, &count)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		c.MemberCount = count
		courses = append(courses, c)
	}
	return courses, rows.Err()
}
