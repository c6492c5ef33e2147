package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/policy"
	"github.com/Freeeeeet/edulite_core/internal/repository"
)

// Suggestion reasons, in the order their signals are scored.
const (
	ReasonSameCourse  = "Same course"
	ReasonSameTeacher = "Same teacher"
	ReasonChatActive  = "Recently messaged in shared chatroom"
)

const (
	scoreSameCourse  = 1.0
	scoreSameTeacher = 1.0
	scoreChatActive  = 0.5
)

func mutualFriendsReason(n int) string {
	return fmt.Sprintf("%d mutual friends", n)
}

type SuggestionService struct {
	store   repository.Store
	queries *UserQueryService
	logger  *zap.Logger
}

func NewSuggestionService(store repository.Store, queries *UserQueryService, logger *zap.Logger) *SuggestionService {
	return &SuggestionService{store: store, queries: queries, logger: logger}
}

type userFacts struct {
	friends  model.IDSet
	courses  model.IDSet
	teachers model.IDSet
}

func (s *SuggestionService) facts(ctx context.Context, userID int64) (*userFacts, error) {
	friends, err := s.queries.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	courses, err := s.queries.CourseIDsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	teachers, err := s.queries.TeacherIDsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &userFacts{friends: friends, courses: courses, teachers: teachers}, nil
}

// ComputeSuggestions scores every active user against userID and replaces
// the stored suggestions. Self, friends and users with a pending request
// in either direction are never suggested; zero scores are dropped.
func (s *SuggestionService) ComputeSuggestions(ctx context.Context, userID int64) ([]*model.FriendSuggestion, error) {
	me, err := s.facts(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.FriendRequests().PeerIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get pending peers: %w", err)
	}
	rooms, err := s.queries.ChatroomIDsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	chatActive, err := s.store.Chats().SendersIn(ctx, rooms.Sorted())
	if err != nil {
		return nil, fmt.Errorf("get chat senders: %w", err)
	}
	candidates, err := s.store.Users().ListActiveIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	var suggestions []*model.FriendSuggestion
	for _, candidateID := range candidates {
		if candidateID == userID || me.friends.Has(candidateID) || pending.Has(candidateID) {
			continue
		}
		them, err := s.facts(ctx, candidateID)
		if err != nil {
			return nil, err
		}

		var score float64
		var reasons []string
		if n := me.friends.IntersectionSize(them.friends); n > 0 {
			score += float64(n)
			reasons = append(reasons, mutualFriendsReason(n))
		}
		if me.courses.Intersects(them.courses) {
			score += scoreSameCourse
			reasons = append(reasons, ReasonSameCourse)
		}
		if me.teachers.Intersects(them.teachers) {
			score += scoreSameTeacher
			reasons = append(reasons, ReasonSameTeacher)
		}
		if chatActive.Has(candidateID) {
			score += scoreChatActive
			reasons = append(reasons, ReasonChatActive)
		}
		if score == 0 {
			continue
		}
		suggestions = append(suggestions, &model.FriendSuggestion{
			UserID:          userID,
			SuggestedUserID: candidateID,
			Score:           score,
			Reason:          reasons[0],
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool { return suggestions[i].Score > suggestions[j].Score })

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		return tx.Suggestions().Replace(ctx, userID, suggestions)
	})
	if err != nil {
		return nil, fmt.Errorf("store suggestions: %w", err)
	}

	s.logger.Info("Friend suggestions computed",
		zap.Int64("user_id", userID),
		zap.Int("candidates", len(candidates)),
		zap.Int("suggestions", len(suggestions)))

	return suggestions, nil
}

// ComputeAll recomputes suggestions for every active user. A failure for
// one user is logged and does not stop the run.
func (s *SuggestionService) ComputeAll(ctx context.Context) error {
	ids, err := s.store.Users().ListActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	failed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.ComputeSuggestions(ctx, id); err != nil {
			failed++
			s.logger.Error("Failed to compute suggestions", zap.Int64("user_id", id), zap.Error(err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("compute suggestions: %d of %d users failed", failed, len(ids))
	}
	return nil
}

// ListSuggestions returns the actor's stored suggestions, best first.
// reason filters case-insensitively when not empty.
func (s *SuggestionService) ListSuggestions(ctx context.Context, actor *model.Actor, reason string, limit int) ([]*model.FriendSuggestion, error) {
	if actor.IsAnonymous() {
		return nil, policy.Denied("authentication required")
	}
	if limit <= 0 || limit > model.MaxPageSize {
		limit = model.MaxPageSize
	}
	all, err := s.store.Suggestions().List(ctx, actor.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	if reason == "" {
		return all, nil
	}
	filtered := all[:0]
	for _, sg := range all {
		if strings.EqualFold(sg.Reason, reason) {
			filtered = append(filtered, sg)
		}
	}
	return filtered, nil
}
