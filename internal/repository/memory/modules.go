package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/edulite_core/internal/model"
)

type modulesRepo struct{ s *Store }

func withCourseTitle(t *tables, m model.CourseModule) *model.CourseModule {
	m.CourseTitle = t.courses[m.CourseID].Title
	return &m
}

func (r modulesRepo) Create(_ context.Context, m *model.CourseModule) error {
	return r.s.with(func(t *tables) error {
		if _, ok := t.courses[m.CourseID]; !ok {
			return fmt.Errorf("create course module: course %d not found", m.CourseID)
		}
		m.ID = t.nextID()
		m.CreatedAt = time.Now()
		t.modules[m.ID] = *m
		return nil
	})
}

func (r modulesRepo) GetByID(_ context.Context, id int64) (*model.CourseModule, error) {
	var out *model.CourseModule
	err := r.s.with(func(t *tables) error {
		if m, ok := t.modules[id]; ok {
			out = withCourseTitle(t, m)
		}
		return nil
	})
	return out, err
}

func (r modulesRepo) Update(_ context.Context, m *model.CourseModule) error {
	return r.s.with(func(t *tables) error {
		current, ok := t.modules[m.ID]
		if !ok {
			return fmt.Errorf("update course module %d: not found", m.ID)
		}
		current.Title, current.Order = m.Title, m.Order
		current.ContentType, current.ObjectID = m.ContentType, m.ObjectID
		t.modules[m.ID] = current
		return nil
	})
}

func (r modulesRepo) Delete(_ context.Context, id int64) error {
	return r.s.with(func(t *tables) error {
		delete(t.modules, id)
		return nil
	})
}

func (r modulesRepo) ListByCourse(_ context.Context, courseID int64) ([]*model.CourseModule, error) {
	var out []*model.CourseModule
	err := r.s.with(func(t *tables) error {
		for _, m := range t.modules {
			if m.CourseID == courseID {
				out = append(out, withCourseTitle(t, m))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}
