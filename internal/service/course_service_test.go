package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/edulite_core/internal/events"
	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/policy"
)

func TestCreateCourse(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher("teacher")
	student := f.user("student")

	c := f.course(teacher, "", false)
	assert.Equal(t, model.CoursePrivate, c.Visibility)
	assert.True(t, c.IsActive)

	m := f.membership(c.ID, teacher)
	require.NotNil(t, m)
	assert.True(t, m.IsEnrolledTeacher())

	_, err := f.courses().CreateCourse(f.ctx, student, CourseInput{Title: "Nope"})
	assert.True(t, policy.IsDenied(err))

	_, err = f.courses().CreateCourse(f.ctx, nil, CourseInput{Title: "Nope"})
	assert.True(t, policy.IsDenied(err))

	_, err = f.courses().CreateCourse(f.ctx, teacher, CourseInput{Title: "   "})
	require.True(t, policy.IsInvalid(err))
	var perr *policy.Error
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Fields(), "title")
}

func TestCreateCourseOpenToAnyone(t *testing.T) {
	f := newFixture(t)
	f.evaluator = policy.NewEvaluator(policy.Config{CourseCreationRequiresTeacher: false})
	student := f.user("student")

	c, err := f.courses().CreateCourse(f.ctx, student, CourseInput{Title: "Study group"})
	require.NoError(t, err)
	assert.True(t, f.membership(c.ID, student).IsEnrolledTeacher())
}

func TestJoin(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher("teacher")
	student := f.user("student")
	svc := f.courses()

	public := f.course(teacher, model.CoursePublic, false)
	m, err := svc.Join(f.ctx, student, public.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusEnrolled, m.Status)
	assert.Equal(t, model.RoleStudent, m.Role)

	_, err = svc.Join(f.ctx, student, public.ID)
	assert.True(t, policy.IsConflict(err), "second join is a conflict")

	restricted := f.course(teacher, model.CourseRestricted, true)
	m, err = svc.Join(f.ctx, student, restricted.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, m.Status)
	assert.Equal(t, []events.Type{events.CourseJoinPending}, f.events.Types())
	assert.Equal(t, teacher.UserID, f.events.Events[0].RecipientID)

	closed := f.course(teacher, model.CourseRestricted, false)
	_, err = svc.Join(f.ctx, student, closed.ID)
	assert.True(t, policy.IsDenied(err))

	private := f.course(teacher, model.CoursePrivate, true)
	_, err = svc.Join(f.ctx, student, private.ID)
	assert.True(t, policy.IsDenied(err))

	_, err = svc.Join(f.ctx, student, 9999)
	assert.True(t, policy.IsNotFound(err))

	_, err = svc.Join(f.ctx, nil, public.ID)
	assert.True(t, policy.IsDenied(err))
}

func TestLastTeacherGuard(t *testing.T) {
	f := newFixture(t)
	owner := f.teacher("owner")
	second := f.teacher("second")
	svc := f.courses()
	c := f.course(owner, model.CoursePublic, false)
	ownerMembership := f.membership(c.ID, owner)

	err := svc.Leave(f.ctx, owner, c.ID)
	assert.True(t, policy.IsConflict(err))

	err = svc.RemoveMember(f.ctx, owner, c.ID, ownerMembership.ID)
	assert.True(t, policy.IsConflict(err))

	_, err = svc.UpdateMembership(f.ctx, owner, c.ID, ownerMembership.ID, policy.MembershipPatch{Role: ptr(model.RoleStudent)})
	assert.True(t, policy.IsConflict(err))

	_, err = svc.UpdateMembership(f.ctx, owner, c.ID, ownerMembership.ID, policy.MembershipPatch{Status: ptr(model.StatusDenied)})
	assert.True(t, policy.IsConflict(err))
	assert.NotNil(t, f.membership(c.ID, owner), "failed mutations leave the membership in place")

	_, err = svc.Invite(f.ctx, owner, c.ID, InviteInput{UserID: second.UserID, Role: model.RoleTeacher})
	require.NoError(t, err)
	_, err = svc.AcceptInvitation(f.ctx, second, c.ID)
	require.NoError(t, err)

	demoted, err := svc.UpdateMembership(f.ctx, owner, c.ID, ownerMembership.ID, policy.MembershipPatch{Role: ptr(model.RoleAssistant)})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAssistant, demoted.Role)

	err = svc.Leave(f.ctx, second, c.ID)
	assert.True(t, policy.IsConflict(err), "second is now the only teacher")

	err = svc.Leave(f.ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Nil(t, f.membership(c.ID, owner))
}

func TestInvitationFlow(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher("teacher")
	student := f.user("student")
	other := f.user("other")
	svc := f.courses()
	c := f.course(teacher, model.CoursePrivate, false)

	_, err := svc.Invite(f.ctx, student, c.ID, InviteInput{UserID: other.UserID})
	assert.True(t, policy.IsDenied(err), "only teachers invite")

	m, err := svc.Invite(f.ctx, teacher, c.ID, InviteInput{UserID: student.UserID})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInvited, m.Status)
	assert.Equal(t, model.RoleStudent, m.Role)
	assert.Equal(t, []events.Type{events.CourseInvitation}, f.events.Types())

	_, err = svc.Invite(f.ctx, teacher, c.ID, InviteInput{UserID: student.UserID})
	assert.True(t, policy.IsConflict(err))

	_, err = svc.Invite(f.ctx, teacher, c.ID, InviteInput{UserID: 9999})
	assert.True(t, policy.IsNotFound(err))

	_, err = svc.GetCourse(f.ctx, student, c.ID)
	assert.True(t, policy.IsDenied(err), "an invitation alone does not grant access")

	_, err = svc.GetCourse(f.ctx, other, c.ID)
	assert.True(t, policy.IsDenied(err))

	accepted, err := svc.AcceptInvitation(f.ctx, student, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusEnrolled, accepted.Status)

	got, err := svc.GetCourse(f.ctx, student, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = svc.AcceptInvitation(f.ctx, student, c.ID)
	assert.True(t, policy.IsNotFound(err))

	_, err = svc.Invite(f.ctx, teacher, c.ID, InviteInput{UserID: other.UserID})
	require.NoError(t, err)
	require.NoError(t, svc.DeclineInvitation(f.ctx, other, c.ID))
	assert.Nil(t, f.membership(c.ID, other), "declined invitation is deleted")
}

func TestAcceptInvitationOnJoinRequest(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher("teacher")
	student := f.user("student")
	svc := f.courses()
	c := f.course(teacher, model.CourseRestricted, true)

	_, err := svc.Join(f.ctx, student, c.ID)
	require.NoError(t, err)

	_, err = svc.AcceptInvitation(f.ctx, student, c.ID)
	assert.True(t, policy.IsNotFound(err))
	assert.True(t, policy.IsNotFound(svc.DeclineInvitation(f.ctx, student, c.ID)))
	assert.Equal(t, model.StatusPending, f.membership(c.ID, student).Status)

	_, err = svc.GetCourse(f.ctx, student, c.ID)
	assert.True(t, policy.IsDenied(err), "pending members cannot read the course")
}

func TestTeacherApprovesInvitation(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher("teacher")
	assistant := f.user("assistant")
	svc := f.courses()
	c := f.course(teacher, model.CoursePrivate, false)

	m, err := svc.Invite(f.ctx, teacher, c.ID, InviteInput{UserID: assistant.UserID, Role: model.RoleAssistant})
	require.NoError(t, err)

	approved, err := svc.UpdateMembership(f.ctx, teacher, c.ID, m.ID, policy.MembershipPatch{Status: ptr(model.StatusEnrolled)})
	require.NoError(t, err)
	assert.Equal(t, model.StatusEnrolled, approved.Status)
	assert.Equal(t, model.RoleAssistant, approved.Role)
	assert.Equal(t, []events.Type{events.CourseInvitation, events.MembershipApproved}, f.events.Types())

	_, err = svc.GetCourse(f.ctx, assistant, c.ID)
	require.NoError(t, err)
}

func TestGetCourseRequiresEnrollment(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher("teacher")
	student := f.user("student")
	staff := f.user("staff", func(u *model.User) { u.IsStaff = true })
	svc := f.courses()
	c := f.course(teacher, model.CoursePublic, false)

	_, err := svc.GetCourse(f.ctx, student, c.ID)
	assert.True(t, policy.IsDenied(err), "public courses are listed, not readable, before joining")
	_, err = svc.GetCourse(f.ctx, nil, c.ID)
	assert.True(t, policy.IsDenied(err))

	got, err := svc.GetCourse(f.ctx, staff, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = svc.Join(f.ctx, student, c.ID)
	require.NoError(t, err)
	_, err = svc.GetCourse(f.ctx, student, c.ID)
	require.NoError(t, err)

	_, err = svc.GetCourse(f.ctx, student, 9999)
	assert.True(t, policy.IsNotFound(err))
}

func TestUpdateMembershipApproveAndDeny(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher("teacher")
	alice := f.user("alice")
	bob := f.user("bob")
	svc := f.courses()
	c := f.course(teacher, model.CourseRestricted, true)

	ma, err := svc.Join(f.ctx, alice, c.ID)
	require.NoError(t, err)
	mb, err := svc.Join(f.ctx, bob, c.ID)
	require.NoError(t, err)

	_, err = svc.UpdateMembership(f.ctx, alice, c.ID, mb.ID, policy.MembershipPatch{Status: ptr(model.StatusEnrolled)})
	assert.True(t, policy.IsDenied(err))

	approved, err := svc.UpdateMembership(f.ctx, teacher, c.ID, ma.ID, policy.MembershipPatch{Status: ptr(model.StatusEnrolled)})
	require.NoError(t, err)
	assert.Equal(t, model.StatusEnrolled, approved.Status)
	assert.Contains(t, f.events.Types(), events.MembershipApproved)

	denied, err := svc.UpdateMembership(f.ctx, teacher, c.ID, mb.ID, policy.MembershipPatch{Status: ptr(model.StatusDenied)})
	require.NoError(t, err)
	assert.Nil(t, denied)
	assert.Nil(t, f.membership(c.ID, bob), "denial deletes the row")

	_, err = svc.UpdateMembership(f.ctx, teacher, c.ID, ma.ID, policy.MembershipPatch{})
	assert.True(t, policy.IsInvalid(err))

	_, err = svc.UpdateMembership(f.ctx, teacher, c.ID, ma.ID, policy.MembershipPatch{Status: ptr(model.StatusEnrolled)})
	assert.True(t, policy.IsConflict(err), "no-op update")

	_, err = svc.UpdateMembership(f.ctx, teacher, c.ID, 9999, policy.MembershipPatch{Status: ptr(model.StatusEnrolled)})
	assert.True(t, policy.IsNotFound(err))
}

func TestPendingOnlyForStudents(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher("teacher")
	student := f.user("student")
	svc := f.courses()
	c := f.course(teacher, model.CourseRestricted, true)

	m, err := svc.Join(f.ctx, student, c.ID)
	require.NoError(t, err)

	_, err = svc.UpdateMembership(f.ctx, teacher, c.ID, m.ID, policy.MembershipPatch{Role: ptr(model.RoleAssistant)})
	assert.True(t, policy.IsInvalid(err))
	assert.Equal(t, model.RoleStudent, f.membership(c.ID, student).Role)
}

func TestListMembers(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher("teacher")
	alice := f.user("alice")
	bob := f.user("bob")
	outsider := f.user("outsider")
	svc := f.courses()
	c := f.course(teacher, model.CourseRestricted, true)

	ma, err := svc.Join(f.ctx, alice, c.ID)
	require.NoError(t, err)
	_, err = svc.UpdateMembership(f.ctx, teacher, c.ID, ma.ID, policy.MembershipPatch{Status: ptr(model.StatusEnrolled)})
	require.NoError(t, err)
	_, err = svc.Join(f.ctx, bob, c.ID)
	require.NoError(t, err)

	all, err := svc.ListMembers(f.ctx, teacher, c.ID, MemberFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pending, err := svc.ListMembers(f.ctx, teacher, c.ID, MemberFilter{Status: ptr(model.StatusPending)})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, bob.UserID, pending[0].UserID)

	visible, err := svc.ListMembers(f.ctx, alice, c.ID, MemberFilter{})
	require.NoError(t, err)
	assert.Len(t, visible, 2, "students only see enrolled members")

	_, err = svc.ListMembers(f.ctx, bob, c.ID, MemberFilter{})
	assert.True(t, policy.IsDenied(err), "pending members cannot list")

	_, err = svc.ListMembers(f.ctx, outsider, c.ID, MemberFilter{})
	assert.True(t, policy.IsDenied(err))
}

func TestUpdateAndDeleteCourse(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher("teacher")
	student := f.user("student")
	svc := f.courses()
	c := f.course(teacher, model.CoursePublic, false)
	_, err := svc.Join(f.ctx, student, c.ID)
	require.NoError(t, err)

	_, err = svc.UpdateCourse(f.ctx, student, c.ID, CoursePatch{Title: ptr("Hijacked")})
	assert.True(t, policy.IsDenied(err))

	updated, err := svc.UpdateCourse(f.ctx, teacher, c.ID, CoursePatch{Title: ptr("Geometry"), Subject: ptr("math")})
	require.NoError(t, err)
	assert.Equal(t, "Geometry", updated.Title)
	assert.Equal(t, "math", updated.Subject)

	past := updated.StartDate.AddDate(0, 0, -1)
	_, err = svc.UpdateCourse(f.ctx, teacher, c.ID, CoursePatch{EndDate: &past})
	assert.True(t, policy.IsInvalid(err))

	assert.True(t, policy.IsDenied(svc.DeleteCourse(f.ctx, student, c.ID)))
	require.NoError(t, svc.DeleteCourse(f.ctx, teacher, c.ID))
	_, err = svc.GetCourse(f.ctx, teacher, c.ID)
	assert.True(t, policy.IsNotFound(err))
}

func TestListCourses(t *testing.T) {
	f := newFixture(t)
	teacher := f.teacher("teacher")
	student := f.user("student")
	svc := f.courses()
	public := f.course(teacher, model.CoursePublic, false)
	private := f.course(teacher, model.CoursePrivate, false)

	anon, err := svc.ListCourses(f.ctx, nil, model.CourseFilter{}, model.Page{})
	require.NoError(t, err)
	require.Len(t, anon, 1)
	assert.Equal(t, public.ID, anon[0].ID)

	mine, err := svc.ListCourses(f.ctx, teacher, model.CourseFilter{MineOnly: true}, model.Page{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = svc.ListCourses(f.ctx, nil, model.CourseFilter{MineOnly: true}, model.Page{})
	assert.True(t, policy.IsDenied(err))

	forStudent, err := svc.ListCourses(f.ctx, student, model.CourseFilter{}, model.Page{})
	require.NoError(t, err)
	for _, c := range forStudent {
		assert.NotEqual(t, private.ID, c.ID)
	}
}

func TestCourseServiceDiscardsEvents(t *testing.T) {
	f := newFixture(t)
	svc := NewCourseService(f.store, f.evaluator, events.Discard{}, zap.NewNop())
	teacher := f.teacher("teacher")
	student := f.user("student")
	c := f.course(teacher, model.CourseRestricted, true)

	_, err := svc.Join(f.ctx, student, c.ID)
	require.NoError(t, err)
	assert.Empty(t, f.events.Events)
}

func TestConcurrentLastTeacherRemoval(t *testing.T) {
	f := newFixture(t)
	owner := f.teacher("owner")
	second := f.teacher("second")
	svc := f.courses()
	c := f.course(owner, model.CoursePrivate, false)

	_, err := svc.Invite(f.ctx, owner, c.ID, InviteInput{UserID: second.UserID, Role: model.RoleTeacher})
	require.NoError(t, err)
	_, err = svc.AcceptInvitation(f.ctx, second, c.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, actor := range []*model.Actor{owner, second} {
		wg.Add(1)
		go func(i int, actor *model.Actor) {
			defer wg.Done()
			errs[i] = svc.Leave(f.ctx, actor, c.ID)
		}(i, actor)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			assert.True(t, policy.IsConflict(err))
		}
	}
	assert.Equal(t, 1, failed, "exactly one teacher must stay")

	role, status := model.RoleTeacher, model.StatusEnrolled
	teachers, err := f.store.Memberships().List(f.ctx, c.ID, &role, &status)
	require.NoError(t, err)
	assert.Len(t, teachers, 1)
}
