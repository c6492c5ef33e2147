package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Freeeeeet/edulite_core/internal/events"
	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/policy"
	"github.com/Freeeeeet/edulite_core/internal/repository"
)

type SendFriendRequestInput struct {
	ReceiverID int64  `json:"receiver_id" validate:"required,gt=0"`
	Message    string `json:"message" validate:"max=500"`
}

type FriendService struct {
	store   repository.Store
	policy  *policy.Evaluator
	queries *UserQueryService
	events  events.Publisher
	logger  *zap.Logger
}

func NewFriendService(
	store repository.Store,
	evaluator *policy.Evaluator,
	queries *UserQueryService,
	publisher events.Publisher,
	logger *zap.Logger,
) *FriendService {
	return &FriendService{
		store:   store,
		policy:  evaluator,
		queries: queries,
		events:  publisher,
		logger:  logger,
	}
}

// SendFriendRequest creates a pending request from actor to the receiver.
func (s *FriendService) SendFriendRequest(ctx context.Context, actor *model.Actor, input SendFriendRequestInput) (*model.FriendRequest, error) {
	if actor.IsAnonymous() {
		return nil, policy.Denied("authentication required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if actor.Is(input.ReceiverID) {
		return nil, policy.Invalid("you cannot send a friend request to yourself")
	}

	var req *model.FriendRequest
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		receiver, err := tx.Users().GetByID(ctx, input.ReceiverID)
		if err != nil {
			return fmt.Errorf("get receiver: %w", err)
		}
		if receiver == nil || !receiver.IsActive {
			return policy.NotFound("user not found")
		}

		rel, err := s.queries.WithStore(tx).Relations(ctx, actor, input.ReceiverID)
		if err != nil {
			return err
		}
		if rel.HasPendingRequest(input.ReceiverID, actor.UserID) {
			return policy.Conflict("this user has already sent you a friend request")
		}

		settings, err := tx.Privacy().Get(ctx, input.ReceiverID)
		if err != nil {
			return fmt.Errorf("get privacy settings: %w", err)
		}
		profile := policy.Profile{OwnerID: input.ReceiverID, Settings: settings}
		if err := s.policy.CheckFriendRequest(profile, actor, rel); err != nil {
			return err
		}

		req = &model.FriendRequest{SenderID: actor.UserID, ReceiverID: input.ReceiverID}
		if msg := strings.TrimSpace(input.Message); msg != "" {
			req.Message = &msg
		}
		if err := tx.FriendRequests().Create(ctx, req); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return policy.Conflict("a friend request to this user is already pending")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Friend request sent",
		zap.Int64("request_id", req.ID),
		zap.Int64("sender_id", req.SenderID),
		zap.Int64("receiver_id", req.ReceiverID))
	s.events.Publish(events.New(events.FriendRequestSent, req.ReceiverID, req.SenderID))

	return req, nil
}

// AcceptFriendRequest is allowed for the receiver only. It stores the
// friendship and removes the request in one transaction.
func (s *FriendService) AcceptFriendRequest(ctx context.Context, actor *model.Actor, requestID int64) error {
	var req *model.FriendRequest
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		req, err = s.requestFor(ctx, tx, actor, requestID, false)
		if err != nil {
			return err
		}
		if err := tx.Friends().Add(ctx, req.SenderID, req.ReceiverID); err != nil {
			return fmt.Errorf("add friendship: %w", err)
		}
		if err := tx.FriendRequests().Delete(ctx, req.ID); err != nil {
			return fmt.Errorf("delete friend request: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Friend request accepted",
		zap.Int64("request_id", requestID),
		zap.Int64("sender_id", req.SenderID),
		zap.Int64("receiver_id", req.ReceiverID))
	s.events.Publish(events.New(events.FriendRequestAccepted, req.SenderID, req.ReceiverID))

	return nil
}

// DeclineFriendRequest lets the receiver decline or the sender cancel. The row is deleted.
func (s *FriendService) DeclineFriendRequest(ctx context.Context, actor *model.Actor, requestID int64) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		req, err := s.requestFor(ctx, tx, actor, requestID, true)
		if err != nil {
			return err
		}
		if err := tx.FriendRequests().Delete(ctx, req.ID); err != nil {
			return fmt.Errorf("delete friend request: %w", err)
		}
		s.logger.Info("Friend request declined",
			zap.Int64("request_id", requestID),
			zap.Int64("by_user_id", actor.UserID))
		return nil
	})
}

func (s *FriendService) requestFor(ctx context.Context, tx repository.Store, actor *model.Actor, requestID int64, senderAllowed bool) (*model.FriendRequest, error) {
	if actor.IsAnonymous() {
		return nil, policy.Denied("authentication required")
	}
	req, err := tx.FriendRequests().GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get friend request: %w", err)
	}
	if req == nil {
		return nil, policy.NotFound("friend request not found")
	}
	if actor.Is(req.ReceiverID) || (senderAllowed && actor.Is(req.SenderID)) {
		return req, nil
	}
	return nil, policy.Denied("you are not allowed to act on this friend request")
}

// PendingRequests lists the actor's incoming and outgoing requests.
func (s *FriendService) PendingRequests(ctx context.Context, actor *model.Actor) (incoming, outgoing []*model.FriendRequest, err error) {
	if actor.IsAnonymous() {
		return nil, nil, policy.Denied("authentication required")
	}
	incoming, err = s.store.FriendRequests().ListIncoming(ctx, actor.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("list incoming requests: %w", err)
	}
	outgoing, err = s.store.FriendRequests().ListOutgoing(ctx, actor.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("list outgoing requests: %w", err)
	}
	return incoming, outgoing, nil
}
