package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/repository/base"
)

const membershipColumns = `id, user_id, course_id, role, status, created_at`

type MembershipRepository struct {
	base.Repository
	logger *zap.Logger
}

func NewMembershipRepository(db base.Querier, logger *zap.Logger) *MembershipRepository {
	return &MembershipRepository{Repository: base.NewRepository(db), logger: logger}
}

func scanMembership(row pgx.Row) (*model.CourseMembership, error) {
	var m model.CourseMembership
	if err := row.Scan(&m.ID, &m.UserID, &m.CourseID, &m.Role, &m.Status, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MembershipRepository) getOne(ctx context.Context, where string, args ...any) (*model.CourseMembership, error) {
	query := `SELECT ` + membershipColumns + ` FROM course_memberships WHERE ` + where

	m, err := scanMembership(r.QueryRow(ctx, query, args...))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

func (r *MembershipRepository) Get(ctx context.Context, courseID, userID int64) (*model.CourseMembership, error) {
	return r.getOne(ctx, `course_id = $1 AND user_id = $2`, courseID, userID)
}

func (r *MembershipRepository) GetByID(ctx context.Context, id int64) (*model.CourseMembership, error) {
	return r.getOne(ctx, `id = $1`, id)
}

// List returns the course memberships, optionally narrowed by role and status.
func (r *MembershipRepository) List(ctx context.Context, courseID int64, role *model.CourseRole, status *model.MembershipStatus) ([]*model.CourseMembership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM course_memberships
		WHERE course_id = $1
		  AND ($2::text IS NULL OR role = $2)
		  AND ($3::text IS NULL OR status = $3)
		ORDER BY created_at, id
	`

	rows, err := r.Query(ctx, query, courseID, role, status)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var members []*model.CourseMembership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *MembershipRepository) CountEnrolledTeachersExcept(ctx context.Context, courseID, membershipID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM course_memberships
		WHERE course_id = $1 AND role = 'teacher' AND status = 'enrolled' AND id <> $2
	`

	var n int
	if err := r.QueryRow(ctx, query, courseID, membershipID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count course teachers: %w", err)
	}
	return n, nil
}

func (r *MembershipRepository) Create(ctx context.Context, m *model.CourseMembership) error {
	query := `
		INSERT INTO course_memberships (user_id, course_id, role, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, m.UserID, m.CourseID, m.Role, m.Status).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create membership: %w", ErrDuplicate)
		}
		r.logger.Error("Failed to insert membership",
			zap.Int64("course_id", m.CourseID),
			zap.Int64("user_id", m.UserID),
			zap.Error(err))
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

func (r *MembershipRepository) Update(ctx context.Context, m *model.CourseMembership) error {
	_, err := r.ExecAffected(ctx,
		`UPDATE course_memberships SET role = $2, status = $3 WHERE id = $1`,
		m.ID, m.Role, m.Status)
	if err != nil {
		return fmt.Errorf("update membership: %w", err)
	}
	return nil
}

func (r *MembershipRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM course_memberships WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

// CourseIDsForUser returns every course the user has a membership in, whatever its status.
func (r *MembershipRepository) CourseIDsForUser(ctx context.Context, userID int64) (model.IDSet, error) {
	ids, err := r.QueryIDs(ctx, `SELECT course_id FROM course_memberships WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("get course ids for user: %w", err)
	}
	return model.NewIDSet(ids...), nil
}

// TeacherIDsForUser returns the users holding the teacher role in any course the user belongs to.
func (r *MembershipRepository) TeacherIDsForUser(ctx context.Context, userID int64) (model.IDSet, error) {
	query := `
		SELECT DISTINCT t.user_id
		FROM course_memberships t
		JOIN course_memberships mine ON mine.course_id = t.course_id
		WHERE mine.user_id = $1 AND t.role = 'teacher'
	`
	ids, err := r.QueryIDs(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get teacher ids for user: %w", err)
	}
	return model.NewIDSet(ids...), nil
}
