package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/policy"
	"github.com/Freeeeeet/edulite_core/internal/repository"
)

// ModuleInput creates a course module. Order defaults to 0.
type ModuleInput struct {
	Title       string `json:"title" validate:"max=128"`
	Order       *int   `json:"order" validate:"omitempty,gte=0"`
	ContentType string `json:"content_type" validate:"required"`
	ObjectID    int64  `json:"object_id" validate:"required,gt=0"`
}

type ModulePatch struct {
	Title       *string `json:"title" validate:"omitempty,max=128"`
	Order       *int    `json:"order" validate:"omitempty,gte=0"`
	ContentType *string `json:"content_type" validate:"omitempty,min=1"`
	ObjectID    *int64  `json:"object_id" validate:"omitempty,gt=0"`
}

func (s *CourseService) requireMember(ctx context.Context, tx repository.Store, courseID int64, actor *model.Actor) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	m, err := membershipOf(ctx, tx, courseID, actor)
	if err != nil {
		return err
	}
	return policy.RequireCourseMember(m)
}

func getCourse(ctx context.Context, r repository.Store, courseID int64) (*model.Course, error) {
	course, err := r.Courses().GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	if course == nil {
		return nil, policy.NotFound("course not found")
	}
	return course, nil
}

func getCourseModule(ctx context.Context, r repository.Store, courseID, moduleID int64) (*model.CourseModule, error) {
	m, err := r.CourseModules().GetByID(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("get course module: %w", err)
	}
	if m == nil || m.CourseID != courseID {
		return nil, policy.NotFound("module not found")
	}
	return m, nil
}

// checkModuleTarget requires a known content type whose object exists.
func checkModuleTarget(ctx context.Context, tx repository.Store, contentType string, objectID int64) error {
	if !model.WellFormedContentType(contentType) {
		return policy.InvalidFields("invalid module", map[string]string{
			"content_type": "content type must be in the format 'app_label.model'",
		})
	}

	var (
		exists bool
		err    error
	)
	switch contentType {
	case model.ContentChatRoom:
		exists, err = tx.Chats().RoomExists(ctx, objectID)
	case model.ContentSlideshow:
		var show *model.Slideshow
		show, err = tx.Slideshows().GetByID(ctx, objectID)
		exists = show != nil
	default:
		return policy.InvalidFields("invalid module", map[string]string{
			"content_type": "invalid content type",
		})
	}
	if err != nil {
		return fmt.Errorf("resolve module target: %w", err)
	}
	if !exists {
		return policy.InvalidFields("invalid module", map[string]string{
			"object_id": "target object does not exist for the given content type",
		})
	}
	return nil
}

// ListModules returns the course modules in display order. Enrolled members only.
func (s *CourseService) ListModules(ctx context.Context, actor *model.Actor, courseID int64) ([]*model.CourseModule, error) {
	if _, err := getCourse(ctx, s.store, courseID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, s.store, courseID, actor); err != nil {
		return nil, err
	}
	modules, err := s.store.CourseModules().ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list course modules: %w", err)
	}
	return modules, nil
}

func (s *CourseService) GetModule(ctx context.Context, actor *model.Actor, courseID, moduleID int64) (*model.CourseModule, error) {
	if _, err := getCourse(ctx, s.store, courseID); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, s.store, courseID, actor); err != nil {
		return nil, err
	}
	return getCourseModule(ctx, s.store, courseID, moduleID)
}

// CreateModule adds a module to the course. Teachers only.
func (s *CourseService) CreateModule(ctx context.Context, actor *model.Actor, courseID int64, input ModuleInput) (*model.CourseModule, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var m *model.CourseModule
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		course, err := lockCourse(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if err := s.requireTeacher(ctx, tx, courseID, actor); err != nil {
			return err
		}
		if err := checkModuleTarget(ctx, tx, input.ContentType, input.ObjectID); err != nil {
			return err
		}

		m = &model.CourseModule{
			CourseID:    courseID,
			CourseTitle: course.Title,
			Title:       input.Title,
			ContentType: input.ContentType,
			ObjectID:    input.ObjectID,
		}
		if input.Order != nil {
			m.Order = *input.Order
		}
		return tx.CourseModules().Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Module created",
		zap.Int64("course_id", courseID),
		zap.Int64("module_id", m.ID),
		zap.Int64("by_user_id", actor.UserID))
	return m, nil
}

func (s *CourseService) UpdateModule(ctx context.Context, actor *model.Actor, courseID, moduleID int64, patch ModulePatch) (*model.CourseModule, error) {
	if err := validateInput(patch); err != nil {
		return nil, err
	}

	var m *model.CourseModule
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}
		if err := s.requireTeacher(ctx, tx, courseID, actor); err != nil {
			return err
		}
		var err error
		if m, err = getCourseModule(ctx, tx, courseID, moduleID); err != nil {
			return err
		}

		if patch.Title != nil {
			m.Title = *patch.Title
		}
		if patch.Order != nil {
			m.Order = *patch.Order
		}
		if patch.ContentType != nil || patch.ObjectID != nil {
			if patch.ContentType != nil {
				m.ContentType = *patch.ContentType
			}
			if patch.ObjectID != nil {
				m.ObjectID = *patch.ObjectID
			}
			if err := checkModuleTarget(ctx, tx, m.ContentType, m.ObjectID); err != nil {
				return err
			}
		}
		return tx.CourseModules().Update(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Module updated",
		zap.Int64("course_id", courseID),
		zap.Int64("module_id", moduleID),
		zap.Int64("by_user_id", actor.UserID))
	return m, nil
}

func (s *CourseService) DeleteModule(ctx context.Context, actor *model.Actor, courseID, moduleID int64) error {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}
		if err := s.requireTeacher(ctx, tx, courseID, actor); err != nil {
			return err
		}
		if _, err := getCourseModule(ctx, tx, courseID, moduleID); err != nil {
			return err
		}
		return tx.CourseModules().Delete(ctx, moduleID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Module deleted",
		zap.Int64("course_id", courseID),
		zap.Int64("module_id", moduleID),
		zap.Int64("by_user_id", actor.UserID))
	return nil
}
