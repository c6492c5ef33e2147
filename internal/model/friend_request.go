package model

import "time"

// MaxFriendRequestMessage bounds the optional note attached to a request.
const MaxFriendRequestMessage = 500

// FriendRequest is a pending directed edge from sender to receiver.
type FriendRequest struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Message    *string   `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// FriendSuggestion is a scored candidate stored for a user.
type FriendSuggestion struct {
	UserID          int64     `json:"user_id"`
	SuggestedUserID int64     `json:"suggested_user_id"`
	Score           float64   `json:"score"`
	Reason          string    `json:"reason"`
	CreatedAt       time.Time `json:"created_at"`
}
