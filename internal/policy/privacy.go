package policy

import (
	"errors"

	"github.com/Freeeeeet/edulite_core/internal/model"
)

// Profile is the target of a visibility check. A nil Settings means the
// owner has no stored record; the record defaults apply.
type Profile struct {
	OwnerID  int64
	Settings *model.PrivacySettings
}

func (p Profile) settings() *model.PrivacySettings {
	if p.Settings != nil {
		return p.Settings
	}
	return model.DefaultPrivacySettings(p.OwnerID)
}

// ProfileRequest bundles the inputs of a profile check.
type ProfileRequest struct {
	Profile   Profile
	Actor     *model.Actor
	Relations Relations
}

var searchRules = Rules[ProfileRequest]{
	func(r ProfileRequest) error {
		if r.Actor.IsAnonymous() {
			return decide(r.Profile.settings().SearchVisibility == model.SearchEveryone,
				"anonymous users only find profiles visible to everyone")
		}
		return Skip
	},
	allowOwner,
	func(r ProfileRequest) error {
		owner, actor := r.Profile.OwnerID, r.Actor.UserID
		switch r.Profile.settings().SearchVisibility {
		case model.SearchEveryone:
			return Allow
		case model.SearchNobody:
			return Denyf("profile is hidden from search")
		case model.SearchFriendsOnly:
			return decide(r.Relations.AreFriends(owner, actor), "profile is searchable by friends only")
		case model.SearchFriendsOfFriends:
			if r.Relations.AreFriends(owner, actor) {
				return Allow
			}
			return decide(r.Relations.HaveMutualFriends(owner, actor), "no mutual friend")
		}
		return Denyf("unknown search visibility %q", r.Profile.settings().SearchVisibility)
	},
}

var profileRules = Rules[ProfileRequest]{
	func(r ProfileRequest) error {
		if r.Actor.IsAnonymous() {
			return decide(r.Profile.settings().ProfileVisibility == model.ProfilePublic,
				"anonymous users only view public profiles")
		}
		return Skip
	},
	allowOwner,
	allowPrivileged,
	func(r ProfileRequest) error {
		switch r.Profile.settings().ProfileVisibility {
		case model.ProfilePublic:
			return Allow
		case model.ProfilePrivate:
			return Denyf("profile is private")
		case model.ProfileFriendsOnly:
			return decide(r.Relations.AreFriends(r.Profile.OwnerID, r.Actor.UserID), "profile is visible to friends only")
		}
		return Denyf("unknown profile visibility %q", r.Profile.settings().ProfileVisibility)
	},
}

var friendRequestRules = Rules[ProfileRequest]{
	func(r ProfileRequest) error {
		if r.Actor.IsAnonymous() {
			return Denyf("authentication required")
		}
		if r.Actor.Is(r.Profile.OwnerID) {
			return Denyf("cannot send a friend request to yourself")
		}
		return Skip
	},
	func(r ProfileRequest) error {
		if r.Relations.AreFriends(r.Profile.OwnerID, r.Actor.UserID) {
			return stateDenial{"you are already friends with this user"}
		}
		if r.Relations.HasPendingRequest(r.Actor.UserID, r.Profile.OwnerID) {
			return stateDenial{"a friend request to this user is already pending"}
		}
		return Skip
	},
	func(r ProfileRequest) error {
		return decide(r.Profile.settings().AllowFriendRequests, "user does not accept friend requests")
	},
}

// stateDenial is a deny decision caused by existing relationship state
// rather than by the owner's settings.
type stateDenial struct{ reason string }

func (d stateDenial) Error() string { return d.reason + ": " + Deny.Error() }
func (d stateDenial) Unwrap() error { return Deny }

func allowOwner(r ProfileRequest) error {
	if r.Actor.Is(r.Profile.OwnerID) {
		return Allow
	}
	return Skip
}

func allowPrivileged(r ProfileRequest) error {
	if r.Actor.IsPrivileged() {
		return Allow
	}
	return Skip
}

// CanBeFound reports whether the profile appears in the actor's search results.
func (e *Evaluator) CanBeFound(p Profile, actor *model.Actor, rel Relations) bool {
	return searchRules.Allowed(ProfileRequest{Profile: p, Actor: actor, Relations: rel})
}

// CanViewFullProfile reports whether the actor may see the full profile.
func (e *Evaluator) CanViewFullProfile(p Profile, actor *model.Actor, rel Relations) bool {
	return profileRules.Allowed(ProfileRequest{Profile: p, Actor: actor, Relations: rel})
}

// CheckFriendRequest explains why the actor may not send a request, or
// returns nil. An existing friendship or pending request is a Conflict;
// every other refusal is Denied.
func (e *Evaluator) CheckFriendRequest(p Profile, actor *model.Actor, rel Relations) error {
	err := friendRequestRules.Eval(ProfileRequest{Profile: p, Actor: actor, Relations: rel})
	if err == nil {
		return nil
	}
	var state stateDenial
	if errors.As(err, &state) {
		return Conflict("%s", state.reason)
	}
	return Denied("%s", denyReason(err))
}

// CanReceiveFriendRequest reports whether the profile owner may receive a request from actor.
func (e *Evaluator) CanReceiveFriendRequest(p Profile, actor *model.Actor, rel Relations) bool {
	return e.CheckFriendRequest(p, actor, rel) == nil
}
