package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/edulite_core/internal/events"
	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/policy"
	"github.com/Freeeeeet/edulite_core/internal/render"
	"github.com/Freeeeeet/edulite_core/internal/repository/memory"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	t         *testing.T
	ctx       context.Context
	store     *memory.Store
	events    *events.Recorder
	evaluator *policy.Evaluator
	queries   *UserQueryService
}

func newFixture(t *testing.T) *fixture {
	store := memory.NewStore()
	return &fixture{
		t:         t,
		ctx:       context.Background(),
		store:     store,
		events:    &events.Recorder{},
		evaluator: policy.NewEvaluator(policy.DefaultConfig()),
		queries:   NewUserQueryService(store),
	}
}

func (f *fixture) courses() *CourseService {
	return NewCourseService(f.store, f.evaluator, f.events, zap.NewNop())
}

func (f *fixture) slideshows() *SlideshowService {
	return NewSlideshowService(f.store, render.NewMarkdown(), zap.NewNop())
}

func (f *fixture) friends() *FriendService {
	return NewFriendService(f.store, f.evaluator, f.queries, f.events, zap.NewNop())
}

func (f *fixture) privacy() *PrivacyService {
	return NewPrivacyService(f.store, f.evaluator, f.queries, zap.NewNop())
}

func (f *fixture) search() *SearchService {
	return NewSearchService(f.store, f.evaluator, f.queries, zap.NewNop())
}

func (f *fixture) suggestions() *SuggestionService {
	return NewSuggestionService(f.store, f.queries, zap.NewNop())
}

// user creates an active user and returns the actor for it.
func (f *fixture) user(username string, opts ...func(*model.User)) *model.Actor {
	u := &model.User{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: username,
		LastName:  "Tester",
		IsActive:  true,
	}
	for _, opt := range opts {
		opt(u)
	}
	require.NoError(f.t, f.store.Users().Create(f.ctx, u))
	return model.ActorFromUser(u)
}

func asTeacher(u *model.User) { u.Occupation = model.OccupationTeacher }

func (f *fixture) teacher(username string) *model.Actor {
	return f.user(username, asTeacher)
}

func (f *fixture) settings(userID int64, mutate func(*model.PrivacySettings)) {
	s := model.DefaultPrivacySettings(userID)
	mutate(s)
	require.NoError(f.t, f.store.Privacy().Upsert(f.ctx, s))
}

func (f *fixture) befriend(a, b *model.Actor) {
	require.NoError(f.t, f.store.Friends().Add(f.ctx, a.UserID, b.UserID))
}

func (f *fixture) course(owner *model.Actor, visibility model.CourseVisibility, allowRequests bool) *model.Course {
	c, err := f.courses().CreateCourse(f.ctx, owner, CourseInput{
		Title:             "Course " + string(visibility),
		Visibility:        visibility,
		AllowJoinRequests: allowRequests,
	})
	require.NoError(f.t, err)
	return c
}

func (f *fixture) membership(courseID int64, actor *model.Actor) *model.CourseMembership {
	m, err := f.store.Memberships().Get(f.ctx, courseID, actor.UserID)
	require.NoError(f.t, err)
	return m
}
