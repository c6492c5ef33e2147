package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/repository"
)

type usersRepo struct{ s *Store }

func (r usersRepo) Create(_ context.Context, user *model.User) error {
	return r.s.with(func(t *tables) error {
		for _, u := range t.users {
			if u.Username == user.Username ||
				(user.TelegramID != nil && u.TelegramID != nil && *u.TelegramID == *user.TelegramID) {
				return fmt.Errorf("create user: %w", repository.ErrDuplicate)
			}
		}
		user.ID = t.nextID()
		user.CreatedAt = time.Now()
		t.users[user.ID] = *user
		return nil
	})
}

func (r usersRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	var out *model.User
	err := r.s.with(func(t *tables) error {
		if u, ok := t.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r usersRepo) GetByIDs(_ context.Context, ids []int64) ([]*model.User, error) {
	var out []*model.User
	err := r.s.with(func(t *tables) error {
		for _, id := range model.NewIDSet(ids...).Sorted() {
			if u, ok := t.users[id]; ok {
				out = append(out, &u)
			}
		}
		return nil
	})
	return out, err
}

func (r usersRepo) Update(_ context.Context, user *model.User) error {
	return r.s.with(func(t *tables) error {
		current, ok := t.users[user.ID]
		if !ok {
			return fmt.Errorf("update user %d: not found", user.ID)
		}
		if user.TelegramID != nil {
			for id, u := range t.users {
				if id != user.ID && u.TelegramID != nil && *u.TelegramID == *user.TelegramID {
					return fmt.Errorf("update user: %w", repository.ErrDuplicate)
				}
			}
		}
		user.Username, user.CreatedAt = current.Username, current.CreatedAt
		user.IsStaff, user.IsSuperuser = current.IsStaff, current.IsSuperuser
		t.users[user.ID] = *user
		return nil
	})
}

func (r usersRepo) Search(_ context.Context, query string, excludeID int64) ([]*model.User, error) {
	q := strings.ToLower(query)
	var out []*model.User
	err := r.s.with(func(t *tables) error {
		for _, u := range t.users {
			if !u.IsActive || u.ID == excludeID {
				continue
			}
			if strings.Contains(strings.ToLower(u.Username), q) ||
				strings.Contains(strings.ToLower(u.FirstName), q) ||
				strings.Contains(strings.ToLower(u.LastName), q) {
				out = append(out, &u)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, err
}

func (r usersRepo) ListActiveIDs(_ context.Context) ([]int64, error) {
	set := model.NewIDSet()
	err := r.s.with(func(t *tables) error {
		for id, u := range t.users {
			if u.IsActive {
				set.Add(id)
			}
		}
		return nil
	})
	return set.Sorted(), err
}

type privacyRepo struct{ s *Store }

func (r privacyRepo) Get(_ context.Context, userID int64) (*model.PrivacySettings, error) {
	var out *model.PrivacySettings
	err := r.s.with(func(t *tables) error {
		if p, ok := t.privacy[userID]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r privacyRepo) GetMany(_ context.Context, userIDs []int64) (map[int64]*model.PrivacySettings, error) {
	out := make(map[int64]*model.PrivacySettings, len(userIDs))
	err := r.s.with(func(t *tables) error {
		for _, id := range userIDs {
			if p, ok := t.privacy[id]; ok {
				out[id] = &p
			}
		}
		return nil
	})
	return out, err
}

func (r privacyRepo) Upsert(_ context.Context, settings *model.PrivacySettings) error {
	return r.s.with(func(t *tables) error {
		settings.UpdatedAt = time.Now()
		t.privacy[settings.UserID] = *settings
		return nil
	})
}
