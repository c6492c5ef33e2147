package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/repository/base"
)

const userColumns = `id, username, email, first_name, last_name, occupation, telegram_id, is_staff, is_superuser, is_active, created_at`

type UserRepository struct {
	base.Repository
}

func NewUserRepository(db base.Querier) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(db)}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Occupation,
		&user.TelegramID,
		&user.IsStaff,
		&user.IsSuperuser,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func collectUsers(rows pgx.Rows) ([]*model.User, error) {
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Create inserts a user and fills ID and CreatedAt.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (username, email, first_name, last_name, occupation, telegram_id, is_staff, is_superuser, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Occupation,
		user.TelegramID,
		user.IsStaff,
		user.IsSuperuser,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create user: %w", ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET email = $2, first_name = $3, last_name = $4, occupation = $5, telegram_id = $6, is_active = $7
		WHERE id = $1
	`

	affected, err := r.ExecAffected(
		ctx, query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Occupation,
		user.TelegramID,
		user.IsActive,
	)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("update user: %w", ErrDuplicate)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update user %d: not found", user.ID)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY id`

	rows, err := r.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}

	return collectUsers(rows)
}

// Search matches active users by username or name. The caller filters by visibility.
func (r *UserRepository) Search(ctx context.Context, q string, excludeID int64) ([]*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE is_active
		  AND id <> $2
		  AND (username ILIKE '%' || $1 || '%'
		       OR first_name ILIKE '%' || $1 || '%'
		       OR last_name ILIKE '%' || $1 || '%')
		ORDER BY username
	`

	rows, err := r.Query(ctx, query, q, excludeID)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	return collectUsers(rows)
}

func (r *UserRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	ids, err := r.QueryIDs(ctx, `SELECT id FROM users WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return ids, nil
}
