package policy_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/policy"
)

func TestSlideshowAccess(t *testing.T) {
	const owner, other int64 = 10, 20

	tests := []struct {
		name       string
		visibility model.SlideshowVisibility
		published  bool
		otherReads bool
	}{
		{"public_published", model.SlideshowPublic, true, true},
		{"unlisted_published", model.SlideshowUnlisted, true, true},
		{"private_published", model.SlideshowPrivate, true, false},
		{"public_draft", model.SlideshowPublic, false, false},
		{"unlisted_draft", model.SlideshowUnlisted, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ss := &model.Slideshow{ID: 1, CreatedBy: owner, Visibility: tt.visibility, IsPublished: tt.published}
			show := policy.SlideshowTarget{Slideshow: ss}
			slide := policy.SlideTarget{Slide: &model.Slide{ID: 2, SlideshowID: 1}, Parent: ss}

			assert.True(t, policy.CanRead(show, actor(owner)))
			assert.True(t, policy.CanWrite(show, actor(owner)))
			assert.Equal(t, tt.otherReads, policy.CanRead(show, actor(other)))
			assert.Equal(t, tt.otherReads, policy.CanRead(slide, actor(other)))
			assert.Equal(t, tt.otherReads, policy.CanRead(show, nil))
			assert.False(t, policy.CanWrite(show, actor(other)))
			assert.False(t, policy.CanWrite(slide, actor(other)))
			assert.False(t, policy.CanWrite(show, &model.Actor{UserID: other, IsSuperuser: true}))
		})
	}
}

func TestViewSlideRedactsForNonOwners(t *testing.T) {
	ss := &model.Slideshow{ID: 1, CreatedBy: 10, Visibility: model.SlideshowPublic, IsPublished: true}
	slide := &model.Slide{ID: 2, SlideshowID: 1, Content: "# Intro", RenderedContent: "<h1>Intro</h1>", Notes: "say hi"}
	target := policy.SlideTarget{Slide: slide, Parent: ss}

	v := policy.ViewSlide(target, actor(20))
	assert.Nil(t, v.Content)
	assert.Nil(t, v.Notes)
	assert.Equal(t, "<h1>Intro</h1>", v.RenderedContent)

	owned := policy.ViewSlide(target, actor(10))
	require.NotNil(t, owned.Content)
	require.NotNil(t, owned.Notes)
	assert.Equal(t, "# Intro", *owned.Content)
	assert.Equal(t, "say hi", *owned.Notes)
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, policy.CheckVersion(3, nil))
	assert.NoError(t, policy.CheckVersion(3, ptr(3)))

	err := policy.CheckVersion(3, ptr(2))
	require.Error(t, err)
	assert.True(t, policy.IsConflict(err))
	var vc *policy.VersionConflict
	require.True(t, errors.As(err, &vc))
	assert.Equal(t, 3, vc.ServerVersion)
	assert.Equal(t, 2, vc.ClientVersion)
}

func TestNextSlideOrder(t *testing.T) {
	assert.Equal(t, 0, policy.NextSlideOrder(nil))
	assert.Equal(t, 4, policy.NextSlideOrder(ptr(3)))
}
