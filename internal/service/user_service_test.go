package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/policy"
)

func TestRegisterUser(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.store, zap.NewNop())

	u, err := svc.RegisterUser(f.ctx, RegisterInput{Username: "ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.True(t, u.IsActive)

	settings, err := f.store.Privacy().Get(f.ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, settings, "privacy settings are created with the user")
	assert.Equal(t, model.SearchEveryone, settings.SearchVisibility)
	assert.False(t, settings.ShowEmail)

	_, err = svc.RegisterUser(f.ctx, RegisterInput{Username: "ada"})
	assert.True(t, policy.IsConflict(err))

	_, err = svc.RegisterUser(f.ctx, RegisterInput{Username: "bob", Email: "not-an-email"})
	assert.True(t, policy.IsInvalid(err))
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.store, zap.NewNop())
	ada := f.user("ada")
	bob := f.user("bob")

	updated, err := svc.UpdateUser(f.ctx, ada, ada.UserID, UserPatch{
		Occupation: ptr(model.OccupationTeacher),
		TelegramID: ptr(int64(42)),
	})
	require.NoError(t, err)
	assert.True(t, updated.IsTeacher())
	assert.Equal(t, "ada", updated.Username)

	_, err = svc.UpdateUser(f.ctx, bob, bob.UserID, UserPatch{TelegramID: ptr(int64(42))})
	assert.True(t, policy.IsConflict(err))

	_, err = svc.UpdateUser(f.ctx, bob, ada.UserID, UserPatch{FirstName: ptr("Eve")})
	assert.True(t, policy.IsDenied(err))

	_, err = svc.GetByID(f.ctx, 9999)
	assert.True(t, policy.IsNotFound(err))
}
