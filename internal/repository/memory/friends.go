package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/repository"
)

type friendsRepo struct{ s *Store }

func (r friendsRepo) FriendIDs(_ context.Context, userID int64) (model.IDSet, error) {
	out := model.NewIDSet()
	err := r.s.with(func(t *tables) error {
		for id := range t.friends[userID] {
			out.Add(id)
		}
		return nil
	})
	return out, err
}

func (r friendsRepo) AreFriends(_ context.Context, a, b int64) (bool, error) {
	var ok bool
	err := r.s.with(func(t *tables) error {
		ok = t.friends[a].Has(b)
		return nil
	})
	return ok, err
}

func (r friendsRepo) HaveMutualFriends(_ context.Context, a, b int64) (bool, error) {
	var ok bool
	err := r.s.with(func(t *tables) error {
		ok = t.friends[a].Intersects(t.friends[b])
		return nil
	})
	return ok, err
}

func (r friendsRepo) Add(_ context.Context, a, b int64) error {
	return r.s.with(func(t *tables) error {
		for _, pair := range [][2]int64{{a, b}, {b, a}} {
			set, ok := t.friends[pair[0]]
			if !ok {
				set = model.NewIDSet()
				t.friends[pair[0]] = set
			}
			set.Add(pair[1])
		}
		return nil
	})
}

type requestsRepo struct{ s *Store }

func (r requestsRepo) Create(_ context.Context, req *model.FriendRequest) error {
	return r.s.with(func(t *tables) error {
		for _, existing := range t.requests {
			if existing.SenderID == req.SenderID && existing.ReceiverID == req.ReceiverID {
				return fmt.Errorf("create friend request: %w", repository.ErrDuplicate)
			}
		}
		req.ID = t.nextID()
		req.CreatedAt = time.Now()
		t.requests[req.ID] = *req
		return nil
	})
}

func (r requestsRepo) GetByID(_ context.Context, id int64) (*model.FriendRequest, error) {
	var out *model.FriendRequest
	err := r.s.with(func(t *tables) error {
		if req, ok := t.requests[id]; ok {
			out = &req
		}
		return nil
	})
	return out, err
}

func (r requestsRepo) Delete(_ context.Context, id int64) error {
	return r.s.with(func(t *tables) error {
		delete(t.requests, id)
		return nil
	})
}

func (r requestsRepo) Exists(_ context.Context, senderID, receiverID int64) (bool, error) {
	var found bool
	err := r.s.with(func(t *tables) error {
		for _, req := range t.requests {
			if req.SenderID == senderID && req.ReceiverID == receiverID {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r requestsRepo) list(match func(model.FriendRequest) bool) ([]*model.FriendRequest, error) {
	var out []*model.FriendRequest
	err := r.s.with(func(t *tables) error {
		for _, req := range t.requests {
			if match(req) {
				out = append(out, &req)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, err
}

func (r requestsRepo) ListIncoming(_ context.Context, userID int64) ([]*model.FriendRequest, error) {
	return r.list(func(req model.FriendRequest) bool { return req.ReceiverID == userID })
}

func (r requestsRepo) ListOutgoing(_ context.Context, userID int64) ([]*model.FriendRequest, error) {
	return r.list(func(req model.FriendRequest) bool { return req.SenderID == userID })
}

func (r requestsRepo) PeerIDs(_ context.Context, userID int64) (model.IDSet, error) {
	out := model.NewIDSet()
	err := r.s.with(func(t *tables) error {
		for _, req := range t.requests {
			switch userID {
			case req.SenderID:
				out.Add(req.ReceiverID)
			case req.ReceiverID:
				out.Add(req.SenderID)
			}
		}
		return nil
	})
	return out, err
}

type suggestionsRepo struct{ s *Store }

func (r suggestionsRepo) Replace(_ context.Context, userID int64, suggestions []*model.FriendSuggestion) error {
	return r.s.with(func(t *tables) error {
		rows := make([]model.FriendSuggestion, 0, len(suggestions))
		for _, sg := range suggestions {
			row := *sg
			row.UserID = userID
			row.CreatedAt = time.Now()
			rows = append(rows, row)
		}
		t.suggestions[userID] = rows
		return nil
	})
}

func (r suggestionsRepo) List(_ context.Context, userID int64, limit int) ([]*model.FriendSuggestion, error) {
	var out []*model.FriendSuggestion
	err := r.s.with(func(t *tables) error {
		for _, sg := range t.suggestions[userID] {
			out = append(out, &sg)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].SuggestedUserID < out[j].SuggestedUserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

type chatsRepo struct{ s *Store }

func (r chatsRepo) RoomExists(_ context.Context, roomID int64) (bool, error) {
	var ok bool
	err := r.s.with(func(t *tables) error {
		_, ok = t.rooms[roomID]
		return nil
	})
	return ok, err
}

func (r chatsRepo) RoomIDsForUser(_ context.Context, userID int64) (model.IDSet, error) {
	out := model.NewIDSet()
	err := r.s.with(func(t *tables) error {
		for roomID, participants := range t.rooms {
			if participants.Has(userID) {
				out.Add(roomID)
			}
		}
		return nil
	})
	return out, err
}

func (r chatsRepo) SendersIn(_ context.Context, roomIDs []int64) (model.IDSet, error) {
	rooms := model.NewIDSet(roomIDs...)
	out := model.NewIDSet()
	err := r.s.with(func(t *tables) error {
		for _, msg := range t.messages {
			if rooms.Has(msg.ChatRoomID) {
				out.Add(msg.SenderID)
			}
		}
		return nil
	})
	return out, err
}
