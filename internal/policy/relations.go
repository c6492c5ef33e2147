package policy

import "github.com/Freeeeeet/edulite_core/internal/model"

// Relations answers the friendship facts a visibility check needs.
type Relations interface {
	AreFriends(a, b int64) bool
	HaveMutualFriends(a, b int64) bool
	HasPendingRequest(senderID, receiverID int64) bool
}

// FriendGraph is an in-memory snapshot of the relevant part of the friend
// graph. Users whose friend set was never loaded have no friends.
type FriendGraph struct {
	friends map[int64]model.IDSet
	pending map[[2]int64]struct{}
}

func NewFriendGraph() *FriendGraph {
	return &FriendGraph{
		friends: make(map[int64]model.IDSet),
		pending: make(map[[2]int64]struct{}),
	}
}

// SetFriends records the full friend set of userID.
func (g *FriendGraph) SetFriends(userID int64, friends model.IDSet) *FriendGraph {
	g.friends[userID] = friends
	return g
}

// AddFriendship records a symmetric edge.
func (g *FriendGraph) AddFriendship(a, b int64) *FriendGraph {
	g.set(a).Add(b)
	g.set(b).Add(a)
	return g
}

// AddPending records a pending request from sender to receiver.
func (g *FriendGraph) AddPending(senderID, receiverID int64) *FriendGraph {
	g.pending[[2]int64{senderID, receiverID}] = struct{}{}
	return g
}

func (g *FriendGraph) set(userID int64) model.IDSet {
	s, ok := g.friends[userID]
	if !ok {
		s = model.NewIDSet()
		g.friends[userID] = s
	}
	return s
}

func (g *FriendGraph) AreFriends(a, b int64) bool {
	return g.friends[a].Has(b)
}

// HaveMutualFriends is a single-hop existence check: at least one user is
// a friend of both a and b.
func (g *FriendGraph) HaveMutualFriends(a, b int64) bool {
	if a == b {
		return false
	}
	return g.friends[a].Intersects(g.friends[b])
}

func (g *FriendGraph) HasPendingRequest(senderID, receiverID int64) bool {
	_, ok := g.pending[[2]int64{senderID, receiverID}]
	return ok
}
