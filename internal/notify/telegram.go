// Package notify delivers post-commit events to users.
package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/edulite_core/internal/events"
	"github.com/Freeeeeet/edulite_core/internal/repository"
)

// Sender is the part of *bot.Bot the notifier uses.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramHandler messages the recipient's linked Telegram chat. Recipients
// without a linked account are skipped.
type TelegramHandler struct {
	sender Sender
	store  repository.Store
	logger *zap.Logger
}

func NewTelegramHandler(sender Sender, store repository.Store, logger *zap.Logger) *TelegramHandler {
	return &TelegramHandler{sender: sender, store: store, logger: logger}
}

func (h *TelegramHandler) Handle(ctx context.Context, e events.Event) error {
	recipient, err := h.store.Users().GetByID(ctx, e.RecipientID)
	if err != nil {
		return fmt.Errorf("get recipient: %w", err)
	}
	if recipient == nil || recipient.TelegramID == nil {
		h.logger.Debug("Recipient has no telegram chat, skipping",
			zap.String("type", string(e.Type)),
			zap.Int64("recipient_id", e.RecipientID))
		return nil
	}

	text, err := h.message(ctx, e)
	if err != nil {
		return err
	}

	_, err = h.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    *recipient.TelegramID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	h.logger.Info("Notification sent",
		zap.String("type", string(e.Type)),
		zap.Int64("recipient_id", e.RecipientID))
	return nil
}

func (h *TelegramHandler) message(ctx context.Context, e events.Event) (string, error) {
	actorName := "Someone"
	if actor, err := h.store.Users().GetByID(ctx, e.ActorID); err != nil {
		return "", fmt.Errorf("get actor: %w", err)
	} else if actor != nil {
		actorName = "<b>" + html.EscapeString(actor.Username) + "</b>"
	}

	courseTitle := "a course"
	if e.CourseID != 0 {
		course, err := h.store.Courses().GetByID(ctx, e.CourseID)
		if err != nil {
			return "", fmt.Errorf("get course: %w", err)
		}
		if course != nil {
			courseTitle = "<b>" + html.EscapeString(course.Title) + "</b>"
		}
	}

	switch e.Type {
	case events.FriendRequestSent:
		return actorName + " sent you a friend request.", nil
	case events.FriendRequestAccepted:
		return actorName + " accepted your friend request.", nil
	case events.CourseInvitation:
		return actorName + " invited you to " + courseTitle + ".", nil
	case events.CourseJoinPending:
		return actorName + " asked to join " + courseTitle + ".", nil
	case events.MembershipApproved:
		return "You are now enrolled in " + courseTitle + ".", nil
	}
	return "", fmt.Errorf("unknown event type %q", e.Type)
}

// LogHandler writes events to the log. Used when no bot token is configured.
type LogHandler struct {
	logger *zap.Logger
}

func NewLogHandler(logger *zap.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

func (h *LogHandler) Handle(_ context.Context, e events.Event) error {
	h.logger.Info("Event",
		zap.String("event_id", e.ID.String()),
		zap.String("type", string(e.Type)),
		zap.Int64("recipient_id", e.RecipientID),
		zap.Int64("actor_id", e.ActorID),
		zap.Int64("course_id", e.CourseID))
	return nil
}
