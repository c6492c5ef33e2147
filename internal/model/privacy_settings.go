package model

import (
	"errors"
	"time"
)

type SearchVisibility string

const (
	SearchEveryone         SearchVisibility = "everyone"
	SearchNobody           SearchVisibility = "nobody"
	SearchFriendsOnly      SearchVisibility = "friends_only"
	SearchFriendsOfFriends SearchVisibility = "friends_of_friends"
)

type ProfileVisibility string

const (
	ProfilePublic      ProfileVisibility = "public"
	ProfilePrivate     ProfileVisibility = "private"
	ProfileFriendsOnly ProfileVisibility = "friends_only"
)

// PrivacySettings is the per-user visibility configuration.
type PrivacySettings struct {
	UserID              int64             `json:"user_id"`
	SearchVisibility    SearchVisibility  `json:"search_visibility" validate:"oneof=everyone nobody friends_only friends_of_friends"`
	ProfileVisibility   ProfileVisibility `json:"profile_visibility" validate:"oneof=public private friends_only"`
	AllowFriendRequests bool              `json:"allow_friend_requests"`
	AllowChatInvites    bool              `json:"allow_chat_invites"`
	ShowEmail           bool              `json:"show_email"`
	ShowFullName        bool              `json:"show_full_name"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

var ErrPublicProfileHiddenFromSearch = errors.New("profile cannot be public if search visibility is set to nobody")

// DefaultPrivacySettings returns the values a freshly created record carries.
func DefaultPrivacySettings(userID int64) *PrivacySettings {
	return &PrivacySettings{
		UserID:              userID,
		SearchVisibility:    SearchEveryone,
		ProfileVisibility:   ProfileFriendsOnly,
		AllowFriendRequests: true,
		AllowChatInvites:    true,
		ShowEmail:           false,
		ShowFullName:        true,
	}
}

// Check enforces cross-field constraints.
func (p *PrivacySettings) Check() error {
	if p.SearchVisibility == SearchNobody && p.ProfileVisibility == ProfilePublic {
		return ErrPublicProfileHiddenFromSearch
	}
	return nil
}
