package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/repository/base"
)

// FriendRepository stores friendships as two directed rows in friendships.
type FriendRepository struct {
	base.Repository
}

func NewFriendRepository(db base.Querier) *FriendRepository {
	return &FriendRepository{Repository: base.NewRepository(db)}
}

func (r *FriendRepository) FriendIDs(ctx context.Context, userID int64) (model.IDSet, error) {
	ids, err := r.QueryIDs(ctx, `SELECT friend_id FROM friendships WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("get friend ids: %w", err)
	}
	return model.NewIDSet(ids...), nil
}

func (r *FriendRepository) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	ok, err := r.Exists(ctx, `SELECT EXISTS (SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`, a, b)
	if err != nil {
		return false, fmt.Errorf("check friendship: %w", err)
	}
	return ok, nil
}

func (r *FriendRepository) HaveMutualFriends(ctx context.Context, a, b int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM friendships fa
			JOIN friendships fb ON fb.friend_id = fa.friend_id
			WHERE fa.user_id = $1 AND fb.user_id = $2
		)
	`
	ok, err := r.Exists(ctx, query, a, b)
	if err != nil {
		return false, fmt.Errorf("check mutual friends: %w", err)
	}
	return ok, nil
}

func (r *FriendRepository) Add(ctx context.Context, a, b int64) error {
	query := `
		INSERT INTO friendships (user_id, friend_id)
		VALUES ($1, $2), ($2, $1)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.ExecAffected(ctx, query, a, b); err != nil {
		return fmt.Errorf("add friendship: %w", err)
	}
	return nil
}

const friendRequestColumns = `id, sender_id, receiver_id, message, created_at`

type FriendRequestRepository struct {
	base.Repository
}

func NewFriendRequestRepository(db base.Querier) *FriendRequestRepository {
	return &FriendRequestRepository{Repository: base.NewRepository(db)}
}

func scanFriendRequest(row pgx.Row) (*model.FriendRequest, error) {
	var req model.FriendRequest
	if err := row.Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.Message, &req.CreatedAt); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *FriendRequestRepository) Create(ctx context.Context, req *model.FriendRequest) error {
	query := `
		INSERT INTO friend_requests (sender_id, receiver_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.QueryRow(ctx, query, req.SenderID, req.ReceiverID, req.Message).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("create friend request: %w", ErrDuplicate)
		}
		return fmt.Errorf("create friend request: %w", err)
	}
	return nil
}

func (r *FriendRequestRepository) GetByID(ctx context.Context, id int64) (*model.FriendRequest, error) {
	query := `SELECT ` + friendRequestColumns + ` FROM friend_requests WHERE id = $1`

	req, err := scanFriendRequest(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get friend request: %w", err)
	}
	return req, nil
}

func (r *FriendRequestRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM friend_requests WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete friend request: %w", err)
	}
	return nil
}

func (r *FriendRequestRepository) Exists(ctx context.Context, senderID, receiverID int64) (bool, error) {
	ok, err := r.Repository.Exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM friend_requests WHERE sender_id = $1 AND receiver_id = $2)`,
		senderID, receiverID)
	if err != nil {
		return false, fmt.Errorf("check friend request: %w", err)
	}
	return ok, nil
}

func (r *FriendRequestRepository) list(ctx context.Context, column string, userID int64) ([]*model.FriendRequest, error) {
	query := `SELECT ` + friendRequestColumns + ` FROM friend_requests WHERE ` + column + ` = $1 ORDER BY created_at DESC`

	rows, err := r.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	defer rows.Close()

	var reqs []*model.FriendRequest
	for rows.Next() {
		req, err := scanFriendRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan friend request: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *FriendRequestRepository) ListIncoming(ctx context.Context, userID int64) ([]*model.FriendRequest, error) {
	return r.list(ctx, "receiver_id", userID)
}

func (r *FriendRequestRepository) ListOutgoing(ctx context.Context, userID int64) ([]*model.FriendRequest, error) {
	return r.list(ctx, "sender_id", userID)
}

func (r *FriendRequestRepository) PeerIDs(ctx context.Context, userID int64) (model.IDSet, error) {
	query := `
		SELECT receiver_id FROM friend_requests WHERE sender_id = $1
		UNION
		SELECT sender_id FROM friend_requests WHERE receiver_id = $1
	`
	ids, err := r.QueryIDs(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get friend request peers: %w", err)
	}
	return model.NewIDSet(ids...), nil
}
