package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/repository/base"
)

// ChatRepository reads chat participation. Chat content is managed elsewhere.
type ChatRepository struct {
	base.Repository
}

func NewChatRepository(db base.Querier) *ChatRepository {
	return &ChatRepository{Repository: base.NewRepository(db)}
}

func (r *ChatRepository) RoomExists(ctx context.Context, roomID int64) (bool, error) {
	ok, err := r.Exists(ctx, `SELECT EXISTS (SELECT 1 FROM chat_rooms WHERE id = $1)`, roomID)
	if err != nil {
		return false, fmt.Errorf("check chat room: %w", err)
	}
	return ok, nil
}

func (r *ChatRepository) RoomIDsForUser(ctx context.Context, userID int64) (model.IDSet, error) {
	ids, err := r.QueryIDs(ctx, `SELECT chat_room_id FROM chat_participants WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("get chat rooms for user: %w", err)
	}
	return model.NewIDSet(ids...), nil
}

func (r *ChatRepository) SendersIn(ctx context.Context, roomIDs []int64) (model.IDSet, error) {
	if len(roomIDs) == 0 {
		return model.NewIDSet(), nil
	}
	ids, err := r.QueryIDs(ctx, `SELECT DISTINCT sender_id FROM chat_messages WHERE chat_room_id = ANY($1)`, roomIDs)
	if err != nil {
		return nil, fmt.Errorf("get chat senders: %w", err)
	}
	return model.NewIDSet(ids...), nil
}
