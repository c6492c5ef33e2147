package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/edulite_core/internal/events"
	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/policy"
	"github.com/Freeeeeet/edulite_core/internal/repository"
)

// CourseInput creates a course. Visibility defaults to private.
type CourseInput struct {
	Title             string                 `json:"title" validate:"notblank,max=128"`
	Outline           string                 `json:"outline" validate:"max=1000"`
	Language          string                 `json:"language" validate:"max=32"`
	Country           string                 `json:"country" validate:"max=64"`
	Subject           string                 `json:"subject" validate:"max=64"`
	Visibility        model.CourseVisibility `json:"visibility" validate:"omitempty,oneof=public restricted private"`
	StartDate         *time.Time             `json:"start_date"`
	EndDate           *time.Time             `json:"end_date"`
	AllowJoinRequests bool                   `json:"allow_join_requests"`
}

// CoursePatch updates the given fields only.
type CoursePatch struct {
	Title             *string                 `json:"title" validate:"omitempty,notblank,max=128"`
	Outline           *string                 `json:"outline" validate:"omitempty,max=1000"`
	Language          *string                 `json:"language" validate:"omitempty,max=32"`
	Country           *string                 `json:"country" validate:"omitempty,max=64"`
	Subject           *string                 `json:"subject" validate:"omitempty,max=64"`
	Visibility        *model.CourseVisibility `json:"visibility" validate:"omitempty,oneof=public restricted private"`
	StartDate         *time.Time              `json:"start_date"`
	EndDate           *time.Time              `json:"end_date"`
	IsActive          *bool                   `json:"is_active"`
	AllowJoinRequests *bool                   `json:"allow_join_requests"`
}

type InviteInput struct {
	UserID int64            `json:"user_id" validate:"required,gt=0"`
	Role   model.CourseRole `json:"role" validate:"omitempty,oneof=student assistant teacher"`
}

// MemberFilter narrows ListMembers.
type MemberFilter struct {
	Role   *model.CourseRole
	Status *model.MembershipStatus
}

type CourseService struct {
	store  repository.Store
	policy *policy.Evaluator
	events events.Publisher
	logger *zap.Logger
}

func NewCourseService(store repository.Store, evaluator *policy.Evaluator, publisher events.Publisher, logger *zap.Logger) *CourseService {
	return &CourseService{
		store:  store,
		policy: evaluator,
		events: publisher,
		logger: logger,
	}
}

func checkDates(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return policy.InvalidFields("invalid course dates", map[string]string{
			"end_date": "end date must be on or after the start date",
		})
	}
	return nil
}

func requireActor(actor *model.Actor) error {
	if actor.IsAnonymous() {
		return policy.Denied("authentication required")
	}
	return nil
}

// lockCourse reads the course under a row lock, or reports it missing.
func lockCourse(ctx context.Context, tx repository.Store, courseID int64) (*model.Course, error) {
	course, err := tx.Courses().LockByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("lock course: %w", err)
	}
	if course == nil {
		return nil, policy.NotFound("course not found")
	}
	return course, nil
}

func membershipOf(ctx context.Context, tx repository.Store, courseID int64, actor *model.Actor) (*model.CourseMembership, error) {
	if actor.IsAnonymous() {
		return nil, nil
	}
	m, err := tx.Memberships().Get(ctx, courseID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

func (s *CourseService) requireTeacher(ctx context.Context, tx repository.Store, courseID int64, actor *model.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	m, err := membershipOf(ctx, tx, courseID, actor)
	if err != nil {
		return err
	}
	return policy.RequireCourseTeacher(m)
}

// CreateCourse stores the course and enrolls the creator as its teacher.
func (s *CourseService) CreateCourse(ctx context.Context, actor *model.Actor, input CourseInput) (*model.Course, error) {
	if err := s.policy.CanCreateCourse(actor); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	course := &model.Course{
		Title:             input.Title,
		Outline:           input.Outline,
		Language:          input.Language,
		Country:           input.Country,
		Subject:           input.Subject,
		Visibility:        input.Visibility,
		StartDate:         time.Now().UTC(),
		EndDate:           input.EndDate,
		IsActive:          true,
		AllowJoinRequests: input.AllowJoinRequests,
	}
	if course.Visibility == "" {
		course.Visibility = model.CoursePrivate
	}
	if input.StartDate != nil {
		course.StartDate = *input.StartDate
	}
	if err := checkDates(course.StartDate, course.EndDate); err != nil {
		return nil, err
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Courses().Create(ctx, course); err != nil {
			return err
		}
		return tx.Memberships().Create(ctx, &model.CourseMembership{
			UserID:   actor.UserID,
			CourseID: course.ID,
			Role:     model.RoleTeacher,
			Status:   model.StatusEnrolled,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}

	s.logger.Info("Course created",
		zap.Int64("course_id", course.ID),
		zap.Int64("teacher_id", actor.UserID),
		zap.String("visibility", string(course.Visibility)))

	return course, nil
}

// GetCourse returns the course to its enrolled members and to staff.
func (s *CourseService) GetCourse(ctx context.Context, actor *model.Actor, courseID int64) (*model.Course, error) {
	course, err := getCourse(ctx, s.store, courseID)
	if err != nil {
		return nil, err
	}
	if actor.IsPrivileged() {
		return course, nil
	}
	if err := s.requireMember(ctx, s.store, courseID, actor); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) UpdateCourse(ctx context.Context, actor *model.Actor, courseID int64, patch CoursePatch) (*model.Course, error) {
	if err := validateInput(patch); err != nil {
		return nil, err
	}

	var course *model.Course
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		if course, err = lockCourse(ctx, tx, courseID); err != nil {
			return err
		}
		if err := s.requireTeacher(ctx, tx, courseID, actor); err != nil {
			return err
		}

		applyCoursePatch(course, patch)
		if err := checkDates(course.StartDate, course.EndDate); err != nil {
			return err
		}
		if err := tx.Courses().Update(ctx, course); err != nil {
			return fmt.Errorf("update course: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Course updated", zap.Int64("course_id", courseID), zap.Int64("by_user_id", actor.UserID))
	return course, nil
}

func applyCoursePatch(c *model.Course, p CoursePatch) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Outline != nil {
		c.Outline = *p.Outline
	}
	if p.Language != nil {
		c.Language = *p.Language
	}
	if p.Country != nil {
		c.Country = *p.Country
	}
	if p.Subject != nil {
		c.Subject = *p.Subject
	}
	if p.Visibility != nil {
		c.Visibility = *p.Visibility
	}
	if p.StartDate != nil {
		c.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		c.EndDate = p.EndDate
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	if p.AllowJoinRequests != nil {
		c.AllowJoinRequests = *p.AllowJoinRequests
	}
}

func (s *CourseService) DeleteCourse(ctx context.Context, actor *model.Actor, courseID int64) error {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}
		if err := s.requireTeacher(ctx, tx, courseID, actor); err != nil {
			return err
		}
		if err := tx.Courses().Delete(ctx, courseID); err != nil {
			return fmt.Errorf("delete course: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Course deleted", zap.Int64("course_id", courseID), zap.Int64("by_user_id", actor.UserID))
	return nil
}

// ListCourses returns public courses plus the actor's enrolled courses, newest first.
func (s *CourseService) ListCourses(ctx context.Context, actor *model.Actor, filter model.CourseFilter, page model.Page) ([]*model.Course, error) {
	var viewerID int64
	if !actor.IsAnonymous() {
		viewerID = actor.UserID
	} else if filter.MineOnly {
		return nil, policy.Denied("authentication required")
	}
	courses, err := s.store.Courses().List(ctx, viewerID, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// Join enrolls the actor in a public course or files a join request for a
// restricted course that accepts them.
func (s *CourseService) Join(ctx context.Context, actor *model.Actor, courseID int64) (*model.CourseMembership, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var (
		m        *model.CourseMembership
		teachers []*model.CourseMembership
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		course, err := lockCourse(ctx, tx, courseID)
		if err != nil {
			return err
		}
		existing, err := membershipOf(ctx, tx, courseID, actor)
		if err != nil {
			return err
		}
		status, err := policy.JoinStatus(course, existing)
		if err != nil {
			return err
		}

		m = &model.CourseMembership{
			UserID:   actor.UserID,
			CourseID: courseID,
			Role:     model.RoleStudent,
			Status:   status,
		}
		if err := tx.Memberships().Create(ctx, m); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return policy.Conflict("you are already a member of this course")
			}
			return err
		}

		if status == model.StatusPending {
			role, enrolled := model.RoleTeacher, model.StatusEnrolled
			if teachers, err = tx.Memberships().List(ctx, courseID, &role, &enrolled); err != nil {
				return fmt.Errorf("list course teachers: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Course join",
		zap.Int64("course_id", courseID),
		zap.Int64("user_id", actor.UserID),
		zap.String("status", string(m.Status)))
	for _, t := range teachers {
		s.events.Publish(events.New(events.CourseJoinPending, t.UserID, actor.UserID).ForCourse(courseID))
	}

	return m, nil
}

// Leave removes the actor's own membership in any status.
func (s *CourseService) Leave(ctx context.Context, actor *model.Actor, courseID int64) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}
		m, err := membershipOf(ctx, tx, courseID, actor)
		if err != nil {
			return err
		}
		if m == nil {
			return policy.NotFound("you are not a member of this course")
		}
		return s.deleteGuarded(ctx, tx, m)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Course left", zap.Int64("course_id", courseID), zap.Int64("user_id", actor.UserID))
	return nil
}

// deleteGuarded deletes m unless it is the course's last enrolled teacher.
func (s *CourseService) deleteGuarded(ctx context.Context, tx repository.Store, m *model.CourseMembership) error {
	others, err := tx.Memberships().CountEnrolledTeachersExcept(ctx, m.CourseID, m.ID)
	if err != nil {
		return err
	}
	if err := policy.GuardLastTeacher(m, nil, others); err != nil {
		return err
	}
	if err := tx.Memberships().Delete(ctx, m.ID); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

// Invite creates an invited membership for a user without one. Teachers only.
func (s *CourseService) Invite(ctx context.Context, actor *model.Actor, courseID int64, input InviteInput) (*model.CourseMembership, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = model.RoleStudent
	}

	var m *model.CourseMembership
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}
		if err := s.requireTeacher(ctx, tx, courseID, actor); err != nil {
			return err
		}

		invitee, err := tx.Users().GetByID(ctx, input.UserID)
		if err != nil {
			return fmt.Errorf("get invitee: %w", err)
		}
		if invitee == nil || !invitee.IsActive {
			return policy.NotFound("user not found")
		}
		existing, err := tx.Memberships().Get(ctx, courseID, input.UserID)
		if err != nil {
			return fmt.Errorf("get membership: %w", err)
		}
		if err := policy.CheckInvite(existing, input.Role); err != nil {
			return err
		}

		m = &model.CourseMembership{
			UserID:   input.UserID,
			CourseID: courseID,
			Role:     input.Role,
			Status:   model.StatusInvited,
		}
		return tx.Memberships().Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Course invitation created",
		zap.Int64("course_id", courseID),
		zap.Int64("user_id", input.UserID),
		zap.String("role", string(input.Role)),
		zap.Int64("by_user_id", actor.UserID))
	s.events.Publish(events.New(events.CourseInvitation, input.UserID, actor.UserID).ForCourse(courseID))

	return m, nil
}

// AcceptInvitation enrolls the actor. Only an invited membership can be accepted.
func (s *CourseService) AcceptInvitation(ctx context.Context, actor *model.Actor, courseID int64) (*model.CourseMembership, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var m *model.CourseMembership
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}
		var err error
		if m, err = membershipOf(ctx, tx, courseID, actor); err != nil {
			return err
		}
		if err := policy.CheckInvitationResponse(m); err != nil {
			return err
		}
		m.Status = model.StatusEnrolled
		if err := tx.Memberships().Update(ctx, m); err != nil {
			return fmt.Errorf("update membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Course invitation accepted", zap.Int64("course_id", courseID), zap.Int64("user_id", actor.UserID))
	return m, nil
}

// DeclineInvitation deletes the actor's invited membership.
func (s *CourseService) DeclineInvitation(ctx context.Context, actor *model.Actor, courseID int64) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}
		m, err := membershipOf(ctx, tx, courseID, actor)
		if err != nil {
			return err
		}
		if err := policy.CheckInvitationResponse(m); err != nil {
			return err
		}
		if err := tx.Memberships().Delete(ctx, m.ID); err != nil {
			return fmt.Errorf("delete membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Course invitation declined", zap.Int64("course_id", courseID), zap.Int64("user_id", actor.UserID))
	return nil
}

// getCourseMembership resolves a membership id within a course.
func getCourseMembership(ctx context.Context, tx repository.Store, courseID, membershipID int64) (*model.CourseMembership, error) {
	m, err := tx.Memberships().GetByID(ctx, membershipID)
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	if m == nil || m.CourseID != courseID {
		return nil, policy.NotFound("membership not found")
	}
	return m, nil
}

// UpdateMembership applies a teacher's approve, deny or role change. A
// denial deletes the membership and returns nil.
func (s *CourseService) UpdateMembership(ctx context.Context, actor *model.Actor, courseID, membershipID int64, patch policy.MembershipPatch) (*model.CourseMembership, error) {
	var (
		before, after *model.CourseMembership
		action        policy.MembershipAction
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}
		if err := s.requireTeacher(ctx, tx, courseID, actor); err != nil {
			return err
		}
		var err error
		if before, err = getCourseMembership(ctx, tx, courseID, membershipID); err != nil {
			return err
		}
		others, err := tx.Memberships().CountEnrolledTeachersExcept(ctx, courseID, before.ID)
		if err != nil {
			return err
		}

		action, after, err = policy.PlanMembershipUpdate(before, patch, others)
		if err != nil {
			return err
		}
		switch action {
		case policy.ActionDelete:
			return tx.Memberships().Delete(ctx, before.ID)
		default:
			return tx.Memberships().Update(ctx, after)
		}
	})
	if err != nil {
		return nil, err
	}

	if action == policy.ActionDelete {
		s.logger.Info("Membership denied",
			zap.Int64("course_id", courseID),
			zap.Int64("user_id", before.UserID),
			zap.String("previous_status", string(before.Status)))
		return nil, nil
	}

	s.logger.Info("Membership updated",
		zap.Int64("course_id", courseID),
		zap.Int64("user_id", after.UserID),
		zap.String("role", string(after.Role)),
		zap.String("status", string(after.Status)))
	if before.Status != model.StatusEnrolled && after.Status == model.StatusEnrolled {
		s.events.Publish(events.New(events.MembershipApproved, after.UserID, actor.UserID).ForCourse(courseID))
	}
	return after, nil
}

// RemoveMember deletes a membership in any status. Teachers only.
func (s *CourseService) RemoveMember(ctx context.Context, actor *model.Actor, courseID, membershipID int64) error {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}
		if err := s.requireTeacher(ctx, tx, courseID, actor); err != nil {
			return err
		}
		m, err := getCourseMembership(ctx, tx, courseID, membershipID)
		if err != nil {
			return err
		}
		return s.deleteGuarded(ctx, tx, m)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Member removed",
		zap.Int64("course_id", courseID),
		zap.Int64("membership_id", membershipID),
		zap.Int64("by_user_id", actor.UserID))
	return nil
}

// ListMembers is open to enrolled members. Teachers see every status;
// other members see enrolled memberships only.
func (s *CourseService) ListMembers(ctx context.Context, actor *model.Actor, courseID int64, filter MemberFilter) ([]*model.CourseMembership, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if _, err := getCourse(ctx, s.store, courseID); err != nil {
		return nil, err
	}

	m, err := membershipOf(ctx, s.store, courseID, actor)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireCourseMember(m); err != nil {
		return nil, err
	}

	status := filter.Status
	if !m.IsEnrolledTeacher() {
		enrolled := model.StatusEnrolled
		if status != nil && *status != enrolled {
			return []*model.CourseMembership{}, nil
		}
		status = &enrolled
	}

	members, err := s.store.Memberships().List(ctx, courseID, filter.Role, status)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}
