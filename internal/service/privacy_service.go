package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/policy"
	"github.com/Freeeeeet/edulite_core/internal/repository"
)

// PrivacySettingsPatch updates the given fields only.
type PrivacySettingsPatch struct {
	SearchVisibility    *model.SearchVisibility  `json:"search_visibility" validate:"omitempty,oneof=everyone nobody friends_only friends_of_friends"`
	ProfileVisibility   *model.ProfileVisibility `json:"profile_visibility" validate:"omitempty,oneof=public private friends_only"`
	AllowFriendRequests *bool                    `json:"allow_friend_requests"`
	AllowChatInvites    *bool                    `json:"allow_chat_invites"`
	ShowEmail           *bool                    `json:"show_email"`
	ShowFullName        *bool                    `json:"show_full_name"`
}

// ProfileView is a user as seen by an actor.
type ProfileView struct {
	policy.UserCard
	Occupation  string `json:"occupation,omitempty"`
	FullProfile bool   `json:"full_profile"`
}

type PrivacyService struct {
	store   repository.Store
	policy  *policy.Evaluator
	queries *UserQueryService
	logger  *zap.Logger
}

func NewPrivacyService(store repository.Store, evaluator *policy.Evaluator, queries *UserQueryService, logger *zap.Logger) *PrivacyService {
	return &PrivacyService{
		store:   store,
		policy:  evaluator,
		queries: queries,
		logger:  logger,
	}
}

func (s *PrivacyService) requireSelfOrStaff(actor *model.Actor, userID int64) error {
	if actor.IsAnonymous() {
		return policy.Denied("authentication required")
	}
	if !actor.Is(userID) && !actor.IsPrivileged() {
		return policy.Denied("you can only manage your own privacy settings")
	}
	return nil
}

// GetSettings returns the stored settings or the defaults a new record would get.
func (s *PrivacyService) GetSettings(ctx context.Context, actor *model.Actor, userID int64) (*model.PrivacySettings, error) {
	if err := s.requireSelfOrStaff(actor, userID); err != nil {
		return nil, err
	}
	settings, err := s.store.Privacy().Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get privacy settings: %w", err)
	}
	if settings == nil {
		settings = model.DefaultPrivacySettings(userID)
	}
	return settings, nil
}

// UpdateSettings applies the patch on top of the current settings.
func (s *PrivacyService) UpdateSettings(ctx context.Context, actor *model.Actor, userID int64, patch PrivacySettingsPatch) (*model.PrivacySettings, error) {
	if err := s.requireSelfOrStaff(actor, userID); err != nil {
		return nil, err
	}
	if err := validateInput(patch); err != nil {
		return nil, err
	}

	settings, err := s.GetSettings(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	if patch.SearchVisibility != nil {
		settings.SearchVisibility = *patch.SearchVisibility
	}
	if patch.ProfileVisibility != nil {
		settings.ProfileVisibility = *patch.ProfileVisibility
	}
	if patch.AllowFriendRequests != nil {
		settings.AllowFriendRequests = *patch.AllowFriendRequests
	}
	if patch.AllowChatInvites != nil {
		settings.AllowChatInvites = *patch.AllowChatInvites
	}
	if patch.ShowEmail != nil {
		settings.ShowEmail = *patch.ShowEmail
	}
	if patch.ShowFullName != nil {
		settings.ShowFullName = *patch.ShowFullName
	}

	if err := settings.Check(); err != nil {
		if errors.Is(err, model.ErrPublicProfileHiddenFromSearch) {
			return nil, policy.InvalidFields("invalid privacy settings", map[string]string{
				"profile_visibility": err.Error(),
			})
		}
		return nil, err
	}

	if err := s.store.Privacy().Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("save privacy settings: %w", err)
	}

	s.logger.Info("Privacy settings updated",
		zap.Int64("user_id", userID),
		zap.String("search_visibility", string(settings.SearchVisibility)),
		zap.String("profile_visibility", string(settings.ProfileVisibility)))

	return settings, nil
}

// GetProfile renders the user for actor. Hidden fields are blanked, and
// the occupation is only shown to actors allowed to see the full profile.
func (s *PrivacyService) GetProfile(ctx context.Context, actor *model.Actor, userID int64) (*ProfileView, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, policy.NotFound("user not found")
	}

	settings, err := s.store.Privacy().Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get privacy settings: %w", err)
	}
	rel, err := s.queries.Relations(ctx, actor, userID)
	if err != nil {
		return nil, err
	}

	profile := policy.Profile{OwnerID: userID, Settings: settings}
	view := &ProfileView{
		UserCard:    s.policy.Card(user, settings, actor),
		FullProfile: s.policy.CanViewFullProfile(profile, actor, rel),
	}
	if view.FullProfile {
		view.Occupation = user.Occupation
	}
	return view, nil
}

// VisibleFields lists the profile fields of userID that actor may see.
func (s *PrivacyService) VisibleFields(ctx context.Context, actor *model.Actor, userID int64) (policy.FieldSet, error) {
	settings, err := s.store.Privacy().Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get privacy settings: %w", err)
	}
	return s.policy.VisibleFields(policy.Profile{OwnerID: userID, Settings: settings}, actor), nil
}
