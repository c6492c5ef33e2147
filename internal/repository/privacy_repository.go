package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/repository/base"
)

const privacyColumns = `user_id, search_visibility, profile_visibility, allow_friend_requests, allow_chat_invites, show_email, show_full_name, updated_at`

type PrivacyRepository struct {
	base.Repository
}

func NewPrivacyRepository(db base.Querier) *PrivacyRepository {
	return &PrivacyRepository{Repository: base.NewRepository(db)}
}

func scanPrivacy(row pgx.Row) (*model.PrivacySettings, error) {
	var s model.PrivacySettings
	err := row.Scan(
		&s.UserID,
		&s.SearchVisibility,
		&s.ProfileVisibility,
		&s.AllowFriendRequests,
		&s.AllowChatInvites,
		&s.ShowEmail,
		&s.ShowFullName,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get returns nil when the user has no stored settings.
func (r *PrivacyRepository) Get(ctx context.Context, userID int64) (*model.PrivacySettings, error) {
	query := `SELECT ` + privacyColumns + ` FROM privacy_settings WHERE user_id = $1`

	s, err := scanPrivacy(r.QueryRow(ctx, query, userID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get privacy settings: %w", err)
	}
	return s, nil
}

// GetMany returns the stored settings keyed by user; users without a record are absent.
func (r *PrivacyRepository) GetMany(ctx context.Context, userIDs []int64) (map[int64]*model.PrivacySettings, error) {
	query := `SELECT ` + privacyColumns + ` FROM privacy_settings WHERE user_id = ANY($1)`

	rows, err := r.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("get privacy settings: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]*model.PrivacySettings, len(userIDs))
	for rows.Next() {
		s, err := scanPrivacy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan privacy settings: %w", err)
		}
		result[s.UserID] = s
	}
	return result, rows.Err()
}

func (r *PrivacyRepository) Upsert(ctx context.Context, s *model.PrivacySettings) error {
	query := `
		INSERT INTO privacy_settings (user_id, search_visibility, profile_visibility, allow_friend_requests, allow_chat_invites, show_email, show_full_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			search_visibility = EXCLUDED.search_visibility,
			profile_visibility = EXCLUDED.profile_visibility,
			allow_friend_requests = EXCLUDED.allow_friend_requests,
			allow_chat_invites = EXCLUDED.allow_chat_invites,
			show_email = EXCLUDED.show_email,
			show_full_name = EXCLUDED.show_full_name,
			updated_at = NOW()
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		s.UserID,
		s.SearchVisibility,
		s.ProfileVisibility,
		s.AllowFriendRequests,
		s.AllowChatInvites,
		s.ShowEmail,
		s.ShowFullName,
	).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert privacy settings: %w", err)
	}
	return nil
}
