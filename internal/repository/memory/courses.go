package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/repository"
)

type coursesRepo struct{ s *Store }

func (r coursesRepo) Create(_ context.Context, c *model.Course) error {
	return r.s.with(func(t *tables) error {
		c.ID = t.nextID()
		c.CreatedAt = time.Now()
		t.courses[c.ID] = *c
		return nil
	})
}

func (r coursesRepo) GetByID(_ context.Context, id int64) (*model.Course, error) {
	var out *model.Course
	err := r.s.with(func(t *tables) error {
		if c, ok := t.courses[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

// LockByID is GetByID: InTx already holds the store lock.
func (r coursesRepo) LockByID(ctx context.Context, id int64) (*model.Course, error) {
	return r.GetByID(ctx, id)
}

func (r coursesRepo) Update(_ context.Context, c *model.Course) error {
	return r.s.with(func(t *tables) error {
		if _, ok := t.courses[c.ID]; !ok {
			return fmt.Errorf("update course %d: not found", c.ID)
		}
		t.courses[c.ID] = *c
		return nil
	})
}

func (r coursesRepo) Delete(_ context.Context, id int64) error {
	return r.s.with(func(t *tables) error {
		delete(t.courses, id)
		for mid, m := range t.memberships {
			if m.CourseID == id {
				delete(t.memberships, mid)
			}
		}
		for mid, m := range t.modules {
			if m.CourseID == id {
				delete(t.modules, mid)
			}
		}
		for sid, ss := range t.slideshows {
			if ss.CourseID == id {
				deleteSlideshow(t, sid)
			}
		}
		return nil
	})
}

func enrolled(t *tables, courseID, userID int64) bool {
	for _, m := range t.memberships {
		if m.CourseID == courseID && m.UserID == userID && m.Status == model.StatusEnrolled {
			return true
		}
	}
	return false
}

func (r coursesRepo) List(_ context.Context, viewerID int64, filter model.CourseFilter, p model.Page) ([]*model.Course, error) {
	var out []*model.Course
	err := r.s.with(func(t *tables) error {
		for _, c := range t.courses {
			member := enrolled(t, c.ID, viewerID)
			switch {
			case filter.MineOnly && !member:
				continue
			case !member && c.Visibility != model.CoursePublic:
				continue
			case filter.Visibility != "" && c.Visibility != filter.Visibility,
				filter.Subject != "" && c.Subject != filter.Subject,
				filter.Language != "" && c.Language != filter.Language,
				filter.Country != "" && c.Country != filter.Country:
				continue
			}
			for _, m := range t.memberships {
				if m.CourseID == c.ID && m.Status == model.StatusEnrolled {
					c.MemberCount++
				}
			}
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, p), err
}

type membershipsRepo struct{ s *Store }

func (r membershipsRepo) find(match func(model.CourseMembership) bool) (*model.CourseMembership, error) {
	var out *model.CourseMembership
	err := r.s.with(func(t *tables) error {
		for _, m := range t.memberships {
			if match(m) {
				out = &m
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r membershipsRepo) Get(_ context.Context, courseID, userID int64) (*model.CourseMembership, error) {
	return r.find(func(m model.CourseMembership) bool { return m.CourseID == courseID && m.UserID == userID })
}

func (r membershipsRepo) GetByID(_ context.Context, id int64) (*model.CourseMembership, error) {
	return r.find(func(m model.CourseMembership) bool { return m.ID == id })
}

func (r membershipsRepo) List(_ context.Context, courseID int64, role *model.CourseRole, status *model.MembershipStatus) ([]*model.CourseMembership, error) {
	var out []*model.CourseMembership
	err := r.s.with(func(t *tables) error {
		for _, m := range t.memberships {
			if m.CourseID != courseID ||
				(role != nil && m.Role != *role) ||
				(status != nil && m.Status != *status) {
				continue
			}
			out = append(out, &m)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r membershipsRepo) CountEnrolledTeachersExcept(_ context.Context, courseID, membershipID int64) (int, error) {
	n := 0
	err := r.s.with(func(t *tables) error {
		for _, m := range t.memberships {
			if m.CourseID == courseID && m.ID != membershipID && m.IsEnrolledTeacher() {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r membershipsRepo) Create(_ context.Context, m *model.CourseMembership) error {
	return r.s.with(func(t *tables) error {
		for _, existing := range t.memberships {
			if existing.CourseID == m.CourseID && existing.UserID == m.UserID {
				return fmt.Errorf("create membership: %w", repository.ErrDuplicate)
			}
		}
		m.ID = t.nextID()
		m.CreatedAt = time.Now()
		t.memberships[m.ID] = *m
		return nil
	})
}

func (r membershipsRepo) Update(_ context.Context, m *model.CourseMembership) error {
	return r.s.with(func(t *tables) error {
		current, ok := t.memberships[m.ID]
		if !ok {
			return fmt.Errorf("update membership %d: not found", m.ID)
		}
		current.Role, current.Status = m.Role, m.Status
		t.memberships[m.ID] = current
		return nil
	})
}

func (r membershipsRepo) Delete(_ context.Context, id int64) error {
	return r.s.with(func(t *tables) error {
		delete(t.memberships, id)
		return nil
	})
}

func (r membershipsRepo) CourseIDsForUser(_ context.Context, userID int64) (model.IDSet, error) {
	out := model.NewIDSet()
	err := r.s.with(func(t *tables) error {
		for _, m := range t.memberships {
			if m.UserID == userID {
				out.Add(m.CourseID)
			}
		}
		return nil
	})
	return out, err
}

func (r membershipsRepo) TeacherIDsForUser(_ context.Context, userID int64) (model.IDSet, error) {
	out := model.NewIDSet()
	err := r.s.with(func(t *tables) error {
		mine := model.NewIDSet()
		for _, m := range t.memberships {
			if m.UserID == userID {
				mine.Add(m.CourseID)
			}
		}
		for _, m := range t.memberships {
			if m.Role == model.RoleTeacher && mine.Has(m.CourseID) {
				out.Add(m.UserID)
			}
		}
		return nil
	})
	return out, err
}
