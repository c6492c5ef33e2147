package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/repository/base"
)

type SuggestionRepository struct {
	base.Repository
}

func NewSuggestionRepository(db base.Querier) *SuggestionRepository {
	return &SuggestionRepository{Repository: base.NewRepository(db)}
}

// Replace should run inside a transaction so readers never see an empty list.
func (r *SuggestionRepository) Replace(ctx context.Context, userID int64, suggestions []*model.FriendSuggestion) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM friend_suggestions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear friend suggestions: %w", err)
	}
	if len(suggestions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range suggestions {
		batch.Queue(`
			INSERT INTO friend_suggestions (user_id, suggested_user_id, score, reason)
			VALUES ($1, $2, $3, $4)
		`, userID, s.SuggestedUserID, s.Score, s.Reason)
	}

	results := r.DB().SendBatch(ctx, batch)
	defer results.Close()
	for range suggestions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert friend suggestion: %w", err)
		}
	}
	return nil
}

// List returns the best-scored suggestions first.
func (r *SuggestionRepository) List(ctx context.Context, userID int64, limit int) ([]*model.FriendSuggestion, error) {
	query := `
		SELECT user_id, suggested_user_id, score, reason, created_at
		FROM friend_suggestions
		WHERE user_id = $1
		ORDER BY score DESC, suggested_user_id
		LIMIT $2
	`

	rows, err := r.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list friend suggestions: %w", err)
	}
	defer rows.Close()

	var out []*model.FriendSuggestion
	for rows.Next() {
		var s model.FriendSuggestion
		if err := rows.Scan(&s.UserID, &s.SuggestedUserID, &s.Score, &s.Reason, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan friend suggestion: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
