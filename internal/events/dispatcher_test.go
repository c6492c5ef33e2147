package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) Handle(_ context.Context, e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	if e.Type == CourseJoinPending {
		return errors.New("recipient unreachable")
	}
	return nil
}

func TestDispatcherDeliversQueuedEventsOnStop(t *testing.T) {
	c := &collector{}
	d := NewDispatcher(c, 8, zap.NewNop())

	d.Publish(New(FriendRequestSent, 2, 1), New(CourseJoinPending, 3, 1).ForCourse(7))
	d.Start(context.Background())
	d.Stop()

	require.Len(t, c.events, 2)
	assert.Equal(t, FriendRequestSent, c.events[0].Type)
	assert.Equal(t, int64(7), c.events[1].CourseID)
	assert.NotEqual(t, c.events[0].ID, c.events[1].ID)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	c := &collector{}
	d := NewDispatcher(c, 1, zap.NewNop())

	d.Publish(New(FriendRequestSent, 2, 1), New(FriendRequestAccepted, 1, 2))
	d.Start(context.Background())
	d.Stop()

	require.Len(t, c.events, 1)
	assert.Equal(t, FriendRequestSent, c.events[0].Type)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Publish(New(CourseInvitation, 5, 1))
	r.Publish()
	assert.Equal(t, []Type{CourseInvitation}, r.Types())
}
