package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/policy"
)

func usernames(cards []policy.UserCard) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Username)
	}
	return out
}

func TestSearchUsers(t *testing.T) {
	f := newFixture(t)
	me := f.user("searcher")
	f.user("math_open")
	hidden := f.user("math_hidden")
	friendsOnly := f.user("math_friends")
	fof := f.user("math_fof")
	bridge := f.user("bridge")
	f.user("math_inactive", func(u *model.User) { u.IsActive = false })

	f.settings(hidden.UserID, func(s *model.PrivacySettings) { s.SearchVisibility = model.SearchNobody })
	f.settings(friendsOnly.UserID, func(s *model.PrivacySettings) { s.SearchVisibility = model.SearchFriendsOnly })
	f.settings(fof.UserID, func(s *model.PrivacySettings) { s.SearchVisibility = model.SearchFriendsOfFriends })
	f.befriend(me, bridge)
	f.befriend(bridge, fof)

	svc := f.search()

	cards, err := svc.SearchUsers(f.ctx, me, "  MATH ", model.Page{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"math_open", "math_fof"}, usernames(cards))
	for _, c := range cards {
		assert.Empty(t, c.Email, "email hidden by default")
		assert.NotEmpty(t, c.FullName)
	}

	f.befriend(me, friendsOnly)
	cards, err = svc.SearchUsers(f.ctx, me, "math", model.Page{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"math_open", "math_fof", "math_friends"}, usernames(cards))

	cards, err = svc.SearchUsers(f.ctx, nil, "math", model.Page{})
	require.NoError(t, err)
	assert.Equal(t, []string{"math_open"}, usernames(cards))

	cards, err = svc.SearchUsers(f.ctx, me, "math", model.Page{Number: 2, Size: 2})
	require.NoError(t, err)
	assert.Len(t, cards, 1, "pagination applies after filtering")

	cards, err = svc.SearchUsers(f.ctx, me, "searcher", model.Page{})
	require.NoError(t, err)
	assert.Empty(t, cards, "the searcher is excluded")

	_, err = svc.SearchUsers(f.ctx, me, " m ", model.Page{})
	require.True(t, policy.IsInvalid(err))
	var perr *policy.Error
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Fields(), "q")
}
