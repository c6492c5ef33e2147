package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/repository/base"
)

const courseModuleColumns = `m.id, m.course_id, c.title, m.title, m."order", m.content_type, m.object_id, m.created_at`

type CourseModuleRepository struct {
	base.Repository
}

func NewCourseModuleRepository(db base.Querier) *CourseModuleRepository {
	return &CourseModuleRepository{Repository: base.NewRepository(db)}
}

func scanCourseModule(row pgx.Row) (*model.CourseModule, error) {
	var m model.CourseModule
	err := row.Scan(
		&m.ID,
		&m.CourseID,
		&m.CourseTitle,
		&m.Title,
		&m.Order,
		&m.ContentType,
		&m.ObjectID,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *CourseModuleRepository) Create(ctx context.Context, m *model.CourseModule) error {
	query := `
		INSERT INTO course_modules (course_id, title, "order", content_type, object_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, m.CourseID, m.Title, m.Order, m.ContentType, m.ObjectID).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create course module: %w", err)
	}
	return nil
}

func (r *CourseModuleRepository) GetByID(ctx context.Context, id int64) (*model.CourseModule, error) {
	query := `SELECT ` + courseModuleColumns + ` FROM course_modules m JOIN courses c ON c.id = m.course_id WHERE m.id = $1`

	m, err := scanCourseModule(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get course module by id: %w", err)
	}
	return m, nil
}

func (r *CourseModuleRepository) Update(ctx context.Context, m *model.CourseModule) error {
	query := `
		UPDATE course_modules
		SET title = $2, "order" = $3, content_type = $4, object_id = $5
		WHERE id = $1
	`

	if _, err := r.ExecAffected(ctx, query, m.ID, m.Title, m.Order, m.ContentType, m.ObjectID); err != nil {
		return fmt.Errorf("update course module: %w", err)
	}
	return nil
}

func (r *CourseModuleRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM course_modules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course module: %w", err)
	}
	return nil
}

func (r *CourseModuleRepository) ListByCourse(ctx context.Context, courseID int64) ([]*model.CourseModule, error) {
	query := `
		SELECT ` + courseModuleColumns + `
		FROM course_modules m
		JOIN courses c ON c.id = m.course_id
		WHERE m.course_id = $1
		ORDER BY m."order", m.id
	`

	rows, err := r.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("list course modules: %w", err)
	}
	defer rows.Close()

	var modules []*model.CourseModule
	for rows.Next() {
		m, err := scanCourseModule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course module: %w", err)
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}
