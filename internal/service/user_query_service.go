package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/policy"
	"github.com/Freeeeeet/edulite_core/internal/repository"
)

// UserQueryService answers relationship questions about users. It only reads.
type UserQueryService struct {
	store repository.Store
}

func NewUserQueryService(store repository.Store) *UserQueryService {
	return &UserQueryService{store: store}
}

// WithStore returns a copy that reads through store, typically an open transaction.
func (s *UserQueryService) WithStore(store repository.Store) *UserQueryService {
	return &UserQueryService{store: store}
}

// CourseIDsFor returns the courses the user has any membership in.
func (s *UserQueryService) CourseIDsFor(ctx context.Context, userID int64) (model.IDSet, error) {
	ids, err := s.store.Memberships().CourseIDsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("course ids for user: %w", err)
	}
	return ids, nil
}

// TeacherIDsFor returns who teaches any of the user's courses.
func (s *UserQueryService) TeacherIDsFor(ctx context.Context, userID int64) (model.IDSet, error) {
	ids, err := s.store.Memberships().TeacherIDsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("teacher ids for user: %w", err)
	}
	return ids, nil
}

func (s *UserQueryService) ChatroomIDsFor(ctx context.Context, userID int64) (model.IDSet, error) {
	ids, err := s.store.Chats().RoomIDsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("chatroom ids for user: %w", err)
	}
	return ids, nil
}

func (s *UserQueryService) FriendIDs(ctx context.Context, userID int64) (model.IDSet, error) {
	ids, err := s.store.Friends().FriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("friend ids for user: %w", err)
	}
	return ids, nil
}

// HaveMutualFriends reports whether a and b share at least one friend.
func (s *UserQueryService) HaveMutualFriends(ctx context.Context, a, b int64) (bool, error) {
	if a == b {
		return false, nil
	}
	ok, err := s.store.Friends().HaveMutualFriends(ctx, a, b)
	if err != nil {
		return false, fmt.Errorf("mutual friends: %w", err)
	}
	return ok, nil
}

// Relations loads the friend sets of the actor and the targets, and the
// pending requests between the actor and each target in either direction,
// into a policy snapshot.
// A nil actor loads only the targets.
func (s *UserQueryService) Relations(ctx context.Context, actor *model.Actor, targetIDs ...int64) (*policy.FriendGraph, error) {
	graph := policy.NewFriendGraph()

	ids := model.NewIDSet(targetIDs...)
	if !actor.IsAnonymous() {
		ids.Add(actor.UserID)
	}
	for _, id := range ids.Sorted() {
		friends, err := s.FriendIDs(ctx, id)
		if err != nil {
			return nil, err
		}
		graph.SetFriends(id, friends)
	}

	if actor.IsAnonymous() {
		return graph, nil
	}
	for _, id := range targetIDs {
		if id == actor.UserID {
			continue
		}
		for _, pair := range [][2]int64{{actor.UserID, id}, {id, actor.UserID}} {
			pending, err := s.store.FriendRequests().Exists(ctx, pair[0], pair[1])
			if err != nil {
				return nil, fmt.Errorf("pending request: %w", err)
			}
			if pending {
				graph.AddPending(pair[0], pair[1])
			}
		}
	}
	return graph, nil
}
