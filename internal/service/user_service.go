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

type RegisterInput struct {
	Username   string `json:"username" validate:"notblank,max=150"`
	Email      string `json:"email" validate:"omitempty,email"`
	FirstName  string `json:"first_name" validate:"max=150"`
	LastName   string `json:"last_name" validate:"max=150"`
	Occupation string `json:"occupation" validate:"max=64"`
	TelegramID *int64 `json:"telegram_id"`
}

// UserPatch updates the given profile fields.
type UserPatch struct {
	Email      *string `json:"email" validate:"omitempty,email"`
	FirstName  *string `json:"first_name" validate:"omitempty,max=150"`
	LastName   *string `json:"last_name" validate:"omitempty,max=150"`
	Occupation *string `json:"occupation" validate:"omitempty,max=64"`
	TelegramID *int64  `json:"telegram_id"`
}

type UserService struct {
	store  repository.Store
	logger *zap.Logger
}

func NewUserService(store repository.Store, logger *zap.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
	}
}

// RegisterUser creates the user together with default privacy settings.
func (s *UserService) RegisterUser(ctx context.Context, input RegisterInput) (*model.User, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	user := &model.User{
		Username:   input.Username,
		Email:      input.Email,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Occupation: input.Occupation,
		TelegramID: input.TelegramID,
		IsActive:   true,
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return policy.Conflict("a user with this username already exists")
			}
			return err
		}
		if err := tx.Privacy().Upsert(ctx, model.DefaultPrivacySettings(user.ID)); err != nil {
			return fmt.Errorf("create privacy settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
		zap.Bool("telegram_linked", user.TelegramID != nil))

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, policy.NotFound("user not found")
	}
	return user, nil
}

// UpdateUser lets users edit their own profile. Staff may edit anyone.
func (s *UserService) UpdateUser(ctx context.Context, actor *model.Actor, userID int64, patch UserPatch) (*model.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.Is(userID) && !actor.IsPrivileged() {
		return nil, policy.Denied("you can only edit your own profile")
	}
	if err := validateInput(patch); err != nil {
		return nil, err
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Occupation != nil {
		user.Occupation = *patch.Occupation
	}
	if patch.TelegramID != nil {
		user.TelegramID = patch.TelegramID
	}

	if err := s.store.Users().Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, policy.Conflict("this telegram account is linked to another user")
		}
		return nil, err
	}

	s.logger.Info("User updated",
		zap.Int64("user_id", user.ID),
		zap.String("occupation", user.Occupation),
		zap.Int64("by_user_id", actor.UserID))

	return user, nil
}
