package model

import "time"

type CourseRole string

const (
	RoleStudent   CourseRole = "student"
	RoleAssistant CourseRole = "assistant"
	RoleTeacher   CourseRole = "teacher"
)

type MembershipStatus string

const (
	StatusEnrolled MembershipStatus = "enrolled" // full member
	StatusPending  MembershipStatus = "pending"  // join request awaiting a teacher
	StatusInvited  MembershipStatus = "invited"  // teacher invitation awaiting the user
)

// StatusDenied is accepted as a patch value only; denied memberships are deleted, never stored.
const StatusDenied MembershipStatus = "denied"

// CourseMembership links a user to a course. At most one per (user, course).
type CourseMembership struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	CourseID  int64            `json:"course_id"`
	Role      CourseRole       `json:"role"`
	Status    MembershipStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// IsEnrolledTeacher reports the membership kind the last-teacher guard protects.
func (m *CourseMembership) IsEnrolledTeacher() bool {
	return m.Role == RoleTeacher && m.Status == StatusEnrolled
}

// ValidRole reports whether r is a known course role.
func ValidRole(r CourseRole) bool {
	switch r {
	case RoleStudent, RoleAssistant, RoleTeacher:
		return true
	}
	return false
}
