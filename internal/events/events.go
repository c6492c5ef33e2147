// Package events carries side effects that must only happen after the
// state change behind them has been committed.
package events

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	FriendRequestSent     Type = "friend_request.sent"
	FriendRequestAccepted Type = "friend_request.accepted"
	CourseInvitation      Type = "course.invitation"
	CourseJoinPending     Type = "course.join_pending"
	MembershipApproved    Type = "course.membership_approved"
)

// Event is addressed to one recipient.
type Event struct {
	ID          uuid.UUID
	Type        Type
	RecipientID int64
	ActorID     int64
	CourseID    int64
	OccurredAt  time.Time
}

func New(t Type, recipientID, actorID int64) Event {
	return Event{
		ID:          uuid.New(),
		Type:        t,
		RecipientID: recipientID,
		ActorID:     actorID,
		OccurredAt:  time.Now(),
	}
}

// ForCourse sets the course the event refers to.
func (e Event) ForCourse(courseID int64) Event {
	e.CourseID = courseID
	return e
}

// Publisher accepts committed events. Publish must not block.
type Publisher interface {
	Publish(events ...Event)
}

// Discard drops everything.
type Discard struct{}

func (Discard) Publish(...Event) {}

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(events ...Event) {
	r.Events = append(r.Events, events...)
}

// Types lists the recorded event types in publish order.
func (r *Recorder) Types() []Type {
	types := make([]Type, 0, len(r.Events))
	for _, e := range r.Events {
		types = append(types, e.Type)
	}
	return types
}
