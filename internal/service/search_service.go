package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/policy"
	"github.com/Freeeeeet/edulite_core/internal/repository"
)

const minSearchQueryLength = 2

type SearchService struct {
	store   repository.Store
	policy  *policy.Evaluator
	queries *UserQueryService
	logger  *zap.Logger
}

func NewSearchService(store repository.Store, evaluator *policy.Evaluator, queries *UserQueryService, logger *zap.Logger) *SearchService {
	return &SearchService{
		store:   store,
		policy:  evaluator,
		queries: queries,
		logger:  logger,
	}
}

// SearchUsers returns the users matching query that the actor is allowed
// to find, with hidden fields blanked.
func (s *SearchService) SearchUsers(ctx context.Context, actor *model.Actor, query string, page model.Page) ([]policy.UserCard, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchQueryLength {
		return nil, policy.InvalidFields("invalid search", map[string]string{
			"q": fmt.Sprintf("search query must be at least %d characters", minSearchQueryLength),
		})
	}

	var excludeID int64
	if !actor.IsAnonymous() {
		excludeID = actor.UserID
	}
	matches, err := s.store.Users().Search(ctx, query, excludeID)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	if len(matches) == 0 {
		return []policy.UserCard{}, nil
	}

	ids := make([]int64, 0, len(matches))
	for _, u := range matches {
		ids = append(ids, u.ID)
	}
	settings, err := s.store.Privacy().GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get privacy settings: %w", err)
	}
	rel, err := s.queries.Relations(ctx, actor, ids...)
	if err != nil {
		return nil, err
	}

	cards := make([]policy.UserCard, 0, len(matches))
	for _, u := range matches {
		if !s.policy.CanBeFound(policy.Profile{OwnerID: u.ID, Settings: settings[u.ID]}, actor, rel) {
			continue
		}
		cards = append(cards, s.policy.Card(u, settings[u.ID], actor))
	}

	s.logger.Debug("User search",
		zap.String("query", query),
		zap.Int("matches", len(matches)),
		zap.Int("visible", len(cards)))

	page = page.Normalize()
	start := page.Offset()
	if start >= len(cards) {
		return []policy.UserCard{}, nil
	}
	end := min(start+page.Size, len(cards))
	return cards[start:end], nil
}
