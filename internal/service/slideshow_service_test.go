package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/policy"
)

func (f *fixture) slideshow(owner *model.Actor, visibility model.SlideshowVisibility, published bool, slides ...SlideInput) *model.SlideshowView {
	c := f.course(owner, model.CoursePublic, false)
	view, err := f.slideshows().CreateSlideshow(f.ctx, owner, SlideshowInput{
		Title:       "Fractions",
		CourseID:    c.ID,
		Visibility:  visibility,
		IsPublished: published,
		Slides:      slides,
	})
	require.NoError(f.t, err)
	return view
}

func TestCreateSlideshow(t *testing.T) {
	f := newFixture(t)
	owner := f.teacher("owner")

	view := f.slideshow(owner, "", false,
		SlideInput{Title: "Intro", Content: "# Hello", Notes: "smile"},
		SlideInput{Title: "Next", Content: "*two*"},
	)
	assert.Equal(t, 1, view.Version)
	assert.Equal(t, model.SlideshowPrivate, view.Visibility)
	assert.Equal(t, owner.UserID, view.CreatedBy)
	require.Len(t, view.Slides, 2)
	assert.Equal(t, 0, view.Slides[0].Order)
	assert.Equal(t, 1, view.Slides[1].Order)
	assert.Contains(t, view.Slides[0].RenderedContent, "<h1")
	require.NotNil(t, view.Slides[0].Notes)
	assert.Equal(t, "smile", *view.Slides[0].Notes)

	_, err := f.slideshows().CreateSlideshow(f.ctx, owner, SlideshowInput{Title: "Orphan", CourseID: 9999})
	assert.True(t, policy.IsInvalid(err))

	_, err = f.slideshows().CreateSlideshow(f.ctx, owner, SlideshowInput{Title: "", CourseID: view.CourseID})
	assert.True(t, policy.IsInvalid(err))

	_, err = f.slideshows().CreateSlideshow(f.ctx, owner, SlideshowInput{
		Title:    "Clash",
		CourseID: view.CourseID,
		Slides:   []SlideInput{{Order: ptr(3)}, {Order: ptr(3)}},
	})
	assert.True(t, policy.IsConflict(err))
}

func TestGetSlideshowAccessAndRedaction(t *testing.T) {
	f := newFixture(t)
	owner := f.teacher("owner")
	viewer := f.user("viewer")
	svc := f.slideshows()

	public := f.slideshow(owner, model.SlideshowPublic, true, SlideInput{Content: "**bold**", Notes: "secret"})
	draft := f.slideshow(owner, model.SlideshowPublic, false)
	unlisted := f.slideshow(owner, model.SlideshowUnlisted, true)
	private := f.slideshow(owner, model.SlideshowPrivate, true)

	got, err := svc.GetSlideshow(f.ctx, viewer, public.ID, nil)
	require.NoError(t, err)
	require.Len(t, got.Slides, 1)
	assert.Nil(t, got.Slides[0].Content)
	assert.Nil(t, got.Slides[0].Notes)
	assert.Contains(t, got.Slides[0].RenderedContent, "<strong>bold</strong>")

	got, err = svc.GetSlideshow(f.ctx, nil, public.ID, nil)
	require.NoError(t, err, "anonymous readers see published public slideshows")
	assert.Nil(t, got.Slides[0].Content)

	_, err = svc.GetSlideshow(f.ctx, viewer, unlisted.ID, nil)
	assert.NoError(t, err)

	_, err = svc.GetSlideshow(f.ctx, viewer, draft.ID, nil)
	assert.True(t, policy.IsDenied(err))
	_, err = svc.GetSlideshow(f.ctx, viewer, private.ID, nil)
	assert.True(t, policy.IsDenied(err))
	_, err = svc.GetSlideshow(f.ctx, viewer, 9999, nil)
	assert.True(t, policy.IsNotFound(err))

	got, err = svc.GetSlideshow(f.ctx, owner, private.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, private.ID, got.ID)

	slide, err := svc.GetSlide(f.ctx, viewer, public.Slides[0].ID)
	require.NoError(t, err)
	assert.Nil(t, slide.Content)
	assert.NotEmpty(t, slide.RenderedContent)

	slide, err = svc.GetSlide(f.ctx, owner, public.Slides[0].ID)
	require.NoError(t, err)
	require.NotNil(t, slide.Content)
	assert.Equal(t, "**bold**", *slide.Content)
}

func TestGetSlideshowInitialSlides(t *testing.T) {
	f := newFixture(t)
	owner := f.teacher("owner")
	view := f.slideshow(owner, model.SlideshowPrivate, false,
		SlideInput{Title: "a"}, SlideInput{Title: "b"}, SlideInput{Title: "c"},
	)

	got, err := f.slideshows().GetSlideshow(f.ctx, owner, view.ID, ptr(1))
	require.NoError(t, err)
	assert.Equal(t, 3, got.SlideCount)
	require.Len(t, got.Slides, 1)
	assert.Equal(t, "a", got.Slides[0].Title)
	assert.Equal(t, []int64{view.Slides[1].ID, view.Slides[2].ID}, got.RemainingSlideIDs)

	_, err = f.slideshows().GetSlideshow(f.ctx, owner, view.ID, ptr(-1))
	assert.True(t, policy.IsInvalid(err))
}

func TestUpdateSlideshowVersioning(t *testing.T) {
	f := newFixture(t)
	owner := f.teacher("owner")
	other := f.user("other")
	svc := f.slideshows()
	view := f.slideshow(owner, model.SlideshowPrivate, false)

	updated, err := svc.UpdateSlideshow(f.ctx, owner, view.ID, SlideshowPatch{Version: ptr(1), Title: ptr("Decimals")})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "Decimals", updated.Title)

	_, err = svc.UpdateSlideshow(f.ctx, owner, view.ID, SlideshowPatch{Version: ptr(1), Title: ptr("Stale")})
	require.True(t, policy.IsConflict(err))
	var vc *policy.VersionConflict
	require.ErrorAs(t, err, &vc)
	assert.Equal(t, 2, vc.ServerVersion)
	assert.Equal(t, 1, vc.ClientVersion)

	stored, err := f.store.Slideshows().GetByID(f.ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "Decimals", stored.Title, "stale update leaves the row untouched")
	assert.Equal(t, 2, stored.Version)

	updated, err = svc.UpdateSlideshow(f.ctx, owner, view.ID, SlideshowPatch{IsPublished: ptr(true)})
	require.NoError(t, err, "no version token skips the check")
	assert.Equal(t, 3, updated.Version)

	_, err = svc.UpdateSlideshow(f.ctx, other, view.ID, SlideshowPatch{Title: ptr("Mine now")})
	assert.True(t, policy.IsDenied(err))

	_, err = svc.UpdateSlideshow(f.ctx, owner, view.ID, SlideshowPatch{Visibility: ptr(model.SlideshowVisibility("secret"))})
	assert.True(t, policy.IsInvalid(err))
}

func TestSlideMutationsBumpVersion(t *testing.T) {
	f := newFixture(t)
	owner := f.teacher("owner")
	other := f.user("other")
	svc := f.slideshows()
	view := f.slideshow(owner, model.SlideshowPublic, true, SlideInput{Title: "first"})

	version := func() int {
		s, err := f.store.Slideshows().GetByID(f.ctx, view.ID)
		require.NoError(t, err)
		return s.Version
	}

	added, err := svc.AddSlide(f.ctx, owner, view.ID, SlideInput{Title: "second", Content: "text"})
	require.NoError(t, err)
	assert.Equal(t, 1, added.Order)
	assert.Equal(t, 2, version())

	_, err = svc.AddSlide(f.ctx, owner, view.ID, SlideInput{Order: ptr(0)})
	assert.True(t, policy.IsConflict(err))
	assert.Equal(t, 2, version(), "failed add does not bump")

	_, err = svc.AddSlide(f.ctx, other, view.ID, SlideInput{Title: "intruder"})
	assert.True(t, policy.IsDenied(err))

	updated, err := svc.UpdateSlide(f.ctx, owner, added.ID, SlidePatch{Content: ptr("# New")})
	require.NoError(t, err)
	assert.Contains(t, updated.RenderedContent, "<h1")
	assert.Equal(t, 3, version())

	_, err = svc.UpdateSlide(f.ctx, owner, added.ID, SlidePatch{Version: ptr(2), Title: ptr("stale")})
	assert.True(t, policy.IsConflict(err))

	_, err = svc.UpdateSlide(f.ctx, owner, added.ID, SlidePatch{Order: ptr(0)})
	assert.True(t, policy.IsConflict(err), "order already used by the first slide")

	_, err = svc.UpdateSlide(f.ctx, other, added.ID, SlidePatch{Title: ptr("x")})
	assert.True(t, policy.IsDenied(err))

	require.NoError(t, svc.DeleteSlide(f.ctx, owner, added.ID))
	assert.Equal(t, 4, version())

	_, err = svc.GetSlide(f.ctx, owner, added.ID)
	assert.True(t, policy.IsNotFound(err))

	next, err := svc.AddSlide(f.ctx, owner, view.ID, SlideInput{Title: "again"})
	require.NoError(t, err)
	assert.Equal(t, 1, next.Order)
}

func TestDeleteAndListSlideshows(t *testing.T) {
	f := newFixture(t)
	owner := f.teacher("owner")
	viewer := f.user("viewer")
	svc := f.slideshows()

	public := f.slideshow(owner, model.SlideshowPublic, true)
	private := f.slideshow(owner, model.SlideshowPrivate, false)

	forViewer, err := svc.ListSlideshows(f.ctx, viewer, model.SlideshowFilter{}, model.Page{})
	require.NoError(t, err)
	require.Len(t, forViewer, 1)
	assert.Equal(t, public.ID, forViewer[0].ID)

	forOwner, err := svc.ListSlideshows(f.ctx, owner, model.SlideshowFilter{}, model.Page{})
	require.NoError(t, err)
	assert.Len(t, forOwner, 2)

	assert.True(t, policy.IsDenied(svc.DeleteSlideshow(f.ctx, viewer, private.ID)))
	require.NoError(t, svc.DeleteSlideshow(f.ctx, owner, private.ID))
	_, err = svc.GetSlideshow(f.ctx, owner, private.ID, nil)
	assert.True(t, policy.IsNotFound(err))
}

func TestSlideTitleFallback(t *testing.T) {
	f := newFixture(t)
	owner := f.teacher("owner")
	view := f.slideshow(owner, model.SlideshowPublic, true,
		SlideInput{Content: "# Intro\nbody"},
		SlideInput{Content: "plain"},
		SlideInput{Title: "Explicit", Content: "# Ignored"},
	)

	require.Len(t, view.Slides, 3)
	assert.Equal(t, "Intro", view.Slides[0].Title)
	assert.Equal(t, "Slide 2", view.Slides[1].Title)
	assert.Equal(t, "Explicit", view.Slides[2].Title)
}

func TestSlideOrderIsPerSlideshow(t *testing.T) {
	f := newFixture(t)
	owner := f.teacher("owner")
	first := f.slideshow(owner, model.SlideshowPrivate, false, SlideInput{Order: ptr(0)})
	second := f.slideshow(owner, model.SlideshowPrivate, false, SlideInput{Order: ptr(0)})

	assert.Equal(t, 0, first.Slides[0].Order)
	assert.Equal(t, 0, second.Slides[0].Order)

	added, err := f.slideshows().AddSlide(f.ctx, owner, second.ID, SlideInput{Order: ptr(1)})
	require.NoError(t, err)
	_, err = f.slideshows().AddSlide(f.ctx, owner, first.ID, SlideInput{Order: ptr(1)})
	require.NoError(t, err)

	_, err = f.slideshows().UpdateSlide(f.ctx, owner, added.ID, SlidePatch{Order: ptr(0)})
	assert.True(t, policy.IsConflict(err), "orders stay unique within one slideshow")
}

func TestConcurrentVersionedUpdates(t *testing.T) {
	f := newFixture(t)
	owner := f.teacher("owner")
	svc := f.slideshows()
	view := f.slideshow(owner, model.SlideshowPrivate, false)

	const writers = 8
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.UpdateSlideshow(f.ctx, owner, view.ID, SlideshowPatch{Version: ptr(1), Description: ptr("edit")})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var vc *policy.VersionConflict
		assert.ErrorAs(t, err, &vc)
	}
	assert.Equal(t, 1, succeeded, "only one writer holding version 1 may win")

	stored, err := f.store.Slideshows().GetByID(f.ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
}

func TestConcurrentSlideUpdatesKeepEachField(t *testing.T) {
	f := newFixture(t)
	owner := f.teacher("owner")
	svc := f.slideshows()
	view := f.slideshow(owner, model.SlideshowPrivate, false, SlideInput{Title: "old", Notes: "old"})
	slideID := view.Slides[0].ID

	var wg sync.WaitGroup
	errs := make([]error, 2)
	patches := []SlidePatch{{Title: ptr("new title")}, {Notes: ptr("new notes")}}
	for i, patch := range patches {
		wg.Add(1)
		go func(i int, patch SlidePatch) {
			defer wg.Done()
			_, errs[i] = svc.UpdateSlide(f.ctx, owner, slideID, patch)
		}(i, patch)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	stored, err := f.store.Slides().GetByID(f.ctx, slideID)
	require.NoError(t, err)
	assert.Equal(t, "new title", stored.Title)
	assert.Equal(t, "new notes", stored.Notes)

	show, err := f.store.Slideshows().GetByID(f.ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, show.Version)
}
