package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/policy"
)

func TestCourseModules(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher("teacher")
	student := f.user("student")
	pending := f.user("pending")
	svc := f.courses()
	c := f.course(teacher, model.CourseRestricted, true)
	room := f.store.AddChatRoom(teacher.UserID, student.UserID)

	m, err := svc.Join(f.ctx, student, c.ID)
	require.NoError(t, err)
	_, err = svc.UpdateMembership(f.ctx, teacher, c.ID, m.ID, policy.MembershipPatch{Status: ptr(model.StatusEnrolled)})
	require.NoError(t, err)
	_, err = svc.Join(f.ctx, pending, c.ID)
	require.NoError(t, err)

	second, err := svc.CreateModule(f.ctx, teacher, c.ID, ModuleInput{
		Title: "Week 2", Order: ptr(2), ContentType: model.ContentChatRoom, ObjectID: room,
	})
	require.NoError(t, err)
	assert.Equal(t, c.Title, second.CourseTitle)

	first, err := svc.CreateModule(f.ctx, teacher, c.ID, ModuleInput{
		Title: "Week 1", Order: ptr(1), ContentType: model.ContentChatRoom, ObjectID: room,
	})
	require.NoError(t, err)

	t.Run("members_read_in_order", func(t *testing.T) {
		modules, err := svc.ListModules(f.ctx, student, c.ID)
		require.NoError(t, err)
		require.Len(t, modules, 2)
		assert.Equal(t, first.ID, modules[0].ID)
		assert.Equal(t, second.ID, modules[1].ID)

		got, err := svc.GetModule(f.ctx, student, c.ID, second.ID)
		require.NoError(t, err)
		assert.Equal(t, "Week 2", got.Title)
	})

	t.Run("non_members_denied", func(t *testing.T) {
		_, err := svc.ListModules(f.ctx, pending, c.ID)
		assert.True(t, policy.IsDenied(err))
		_, err = svc.GetModule(f.ctx, nil, c.ID, first.ID)
		assert.True(t, policy.IsDenied(err))
		_, err = svc.ListModules(f.ctx, student, 9999)
		assert.True(t, policy.IsNotFound(err))
	})

	t.Run("students_cannot_manage", func(t *testing.T) {
		_, err := svc.CreateModule(f.ctx, student, c.ID, ModuleInput{ContentType: model.ContentChatRoom, ObjectID: room})
		assert.True(t, policy.IsDenied(err))
		_, err = svc.UpdateModule(f.ctx, student, c.ID, first.ID, ModulePatch{Title: ptr("Mine")})
		assert.True(t, policy.IsDenied(err))
		assert.True(t, policy.IsDenied(svc.DeleteModule(f.ctx, student, c.ID, first.ID)))
	})

	t.Run("target_must_exist", func(t *testing.T) {
		_, err := svc.CreateModule(f.ctx, teacher, c.ID, ModuleInput{ContentType: "chatroom", ObjectID: room})
		assert.True(t, policy.IsInvalid(err))
		_, err = svc.CreateModule(f.ctx, teacher, c.ID, ModuleInput{ContentType: "quizzes.quiz", ObjectID: room})
		assert.True(t, policy.IsInvalid(err))
		_, err = svc.CreateModule(f.ctx, teacher, c.ID, ModuleInput{ContentType: model.ContentChatRoom, ObjectID: 9999})
		require.True(t, policy.IsInvalid(err))
		var perr *policy.Error
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, perr.Fields(), "object_id")
		_, err = svc.CreateModule(f.ctx, teacher, c.ID, ModuleInput{ContentType: model.ContentChatRoom})
		assert.True(t, policy.IsInvalid(err))
	})

	t.Run("teacher_updates_and_deletes", func(t *testing.T) {
		show, err := f.slideshows().CreateSlideshow(f.ctx, teacher, SlideshowInput{Title: "Deck", CourseID: c.ID})
		require.NoError(t, err)

		updated, err := svc.UpdateModule(f.ctx, teacher, c.ID, first.ID, ModulePatch{
			ContentType: ptr(model.ContentSlideshow), ObjectID: ptr(show.ID),
		})
		require.NoError(t, err)
		assert.Equal(t, model.ContentSlideshow, updated.ContentType)
		assert.Equal(t, "Week 1", updated.Title)

		_, err = svc.UpdateModule(f.ctx, teacher, c.ID, first.ID, ModulePatch{ObjectID: ptr(int64(9999))})
		assert.True(t, policy.IsInvalid(err))

		require.NoError(t, svc.DeleteModule(f.ctx, teacher, c.ID, first.ID))
		_, err = svc.GetModule(f.ctx, student, c.ID, first.ID)
		assert.True(t, policy.IsNotFound(err))
	})

	t.Run("module_scoped_to_course", func(t *testing.T) {
		other := f.course(teacher, model.CoursePublic, false)
		_, err := svc.GetModule(f.ctx, teacher, other.ID, second.ID)
		assert.True(t, policy.IsNotFound(err))
	})
}
