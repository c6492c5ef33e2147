package policy

import "github.com/Freeeeeet/edulite_core/internal/model"

// CanCreateCourse checks the creation toggle against the actor.
func (e *Evaluator) CanCreateCourse(actor *model.Actor) error {
	if actor.IsAnonymous() {
		return Denied("authentication required")
	}
	if e.cfg.CourseCreationRequiresTeacher && !actor.IsTeacher() {
		return Denied("only teachers can create courses")
	}
	return nil
}

// RequireCourseTeacher passes only for an enrolled teacher membership.
func RequireCourseTeacher(m *model.CourseMembership) error {
	if m == nil || !m.IsEnrolledTeacher() {
		return Denied("only course teachers can perform this action")
	}
	return nil
}

// RequireCourseMember passes only for an enrolled membership of any role.
func RequireCourseMember(m *model.CourseMembership) error {
	if m == nil || m.Status != model.StatusEnrolled {
		return Denied("you must be a course member to perform this action")
	}
	return nil
}

// JoinStatus decides the status of a self-service join. existing is the
// caller's current membership, if any.
func JoinStatus(c *model.Course, existing *model.CourseMembership) (model.MembershipStatus, error) {
	if existing != nil {
		return "", Conflict("you are already a member of this course")
	}
	switch {
	case c.Visibility == model.CoursePublic:
		return model.StatusEnrolled, nil
	case c.Visibility == model.CourseRestricted && c.AllowJoinRequests:
		return model.StatusPending, nil
	}
	return "", Denied("this course does not allow joining")
}

// CheckInvite validates a teacher invitation for a user who may already be a member.
func CheckInvite(existing *model.CourseMembership, role model.CourseRole) error {
	if !model.ValidRole(role) {
		return Invalid("unknown role %q", role)
	}
	if existing != nil {
		return Conflict("user is already a member of this course")
	}
	return nil
}

// CheckInvitationResponse requires the caller's own membership to be exactly
// invited. Pending join requests are a separate track and report not-found.
func CheckInvitationResponse(m *model.CourseMembership) error {
	if m == nil || m.Status != model.StatusInvited {
		return NotFound("no pending invitation for this course")
	}
	return nil
}

// GuardLastTeacher rejects a mutation that removes m from the enrolled
// teachers when otherTeachers (enrolled teachers excluding m) is zero.
// next is the membership after the mutation, nil for deletion.
func GuardLastTeacher(m, next *model.CourseMembership, otherTeachers int) error {
	if !m.IsEnrolledTeacher() || otherTeachers > 0 {
		return nil
	}
	if next != nil && next.IsEnrolledTeacher() {
		return nil
	}
	if next == nil {
		return Conflict("cannot remove the last teacher in the course")
	}
	return Conflict("cannot demote the last teacher in the course")
}

// MembershipPatch is a teacher's partial update of a membership.
type MembershipPatch struct {
	Status *model.MembershipStatus `json:"status"`
	Role   *model.CourseRole       `json:"role"`
}

// MembershipAction is what a patch resolves to.
type MembershipAction int

const (
	ActionUpdate MembershipAction = iota + 1
	ActionDelete
)

// PlanMembershipUpdate resolves a patch against the current membership.
// Denials delete the row. Approvals move pending or invited to enrolled.
// Role changes are subject to the last-teacher guard.
func PlanMembershipUpdate(m *model.CourseMembership, patch MembershipPatch, otherTeachers int) (MembershipAction, *model.CourseMembership, error) {
	if patch.Status == nil && patch.Role == nil {
		return 0, nil, Invalid("nothing to update: provide status or role")
	}

	if patch.Status != nil && *patch.Status == model.StatusDenied {
		if err := GuardLastTeacher(m, nil, otherTeachers); err != nil {
			return 0, nil, err
		}
		return ActionDelete, nil, nil
	}

	next := *m
	if patch.Status != nil {
		switch *patch.Status {
		case model.StatusEnrolled:
			if m.Status == model.StatusPending || m.Status == model.StatusInvited {
				next.Status = model.StatusEnrolled
			}
		default:
			return 0, nil, Invalid("status must be %q or %q", model.StatusEnrolled, model.StatusDenied)
		}
	}
	if patch.Role != nil {
		if !model.ValidRole(*patch.Role) {
			return 0, nil, Invalid("unknown role %q", *patch.Role)
		}
		next.Role = *patch.Role
	}

	if next.Status == model.StatusPending && next.Role != model.RoleStudent {
		return 0, nil, Invalid("only students can have pending status")
	}
	if next.Status == m.Status && next.Role == m.Role {
		return 0, nil, Conflict("membership already has the requested role and status")
	}
	if err := GuardLastTeacher(m, &next, otherTeachers); err != nil {
		return 0, nil, err
	}
	return ActionUpdate, &next, nil
}
