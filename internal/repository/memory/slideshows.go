package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/repository"
)

type slideshowsRepo struct{ s *Store }

func (r slideshowsRepo) Create(_ context.Context, ss *model.Slideshow) error {
	return r.s.with(func(t *tables) error {
		now := time.Now()
		ss.ID = t.nextID()
		ss.Version = 1
		ss.CreatedAt, ss.UpdatedAt = now, now
		t.slideshows[ss.ID] = *ss
		return nil
	})
}

func (r slideshowsRepo) GetByID(_ context.Context, id int64) (*model.Slideshow, error) {
	var out *model.Slideshow
	err := r.s.with(func(t *tables) error {
		if ss, ok := t.slideshows[id]; ok {
			out = &ss
		}
		return nil
	})
	return out, err
}

func (r slideshowsRepo) LockByID(ctx context.Context, id int64) (*model.Slideshow, error) {
	return r.GetByID(ctx, id)
}

func (r slideshowsRepo) Update(_ context.Context, ss *model.Slideshow) error {
	return r.s.with(func(t *tables) error {
		if _, ok := t.slideshows[ss.ID]; !ok {
			return fmt.Errorf("update slideshow %d: not found", ss.ID)
		}
		ss.UpdatedAt = time.Now()
		t.slideshows[ss.ID] = *ss
		return nil
	})
}

func deleteSlideshow(t *tables, id int64) {
	delete(t.slideshows, id)
	for sid, sl := range t.slides {
		if sl.SlideshowID == id {
			delete(t.slides, sid)
		}
	}
}

func (r slideshowsRepo) Delete(_ context.Context, id int64) error {
	return r.s.with(func(t *tables) error {
		deleteSlideshow(t, id)
		return nil
	})
}

func (r slideshowsRepo) List(_ context.Context, viewerID int64, filter model.SlideshowFilter, p model.Page) ([]*model.Slideshow, error) {
	var out []*model.Slideshow
	err := r.s.with(func(t *tables) error {
		for _, ss := range t.slideshows {
			own := ss.CreatedBy == viewerID
			switch {
			case filter.MineOnly && !own:
				continue
			case !own && !(ss.IsPublished && ss.Visibility == model.SlideshowPublic):
				continue
			case filter.Visibility != "" && ss.Visibility != filter.Visibility,
				filter.Subject != "" && ss.Subject != filter.Subject,
				filter.Language != "" && ss.Language != filter.Language,
				filter.Country != "" && ss.Country != filter.Country:
				continue
			}
			out = append(out, &ss)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, p), err
}

type slidesRepo struct{ s *Store }

func orderTaken(t *tables, slideshowID int64, order int, exceptID int64) bool {
	for _, sl := range t.slides {
		if sl.SlideshowID == slideshowID && sl.Order == order && sl.ID != exceptID {
			return true
		}
	}
	return false
}

func (r slidesRepo) Create(_ context.Context, sl *model.Slide) error {
	return r.s.with(func(t *tables) error {
		if orderTaken(t, sl.SlideshowID, sl.Order, 0) {
			return fmt.Errorf("create slide: %w", repository.ErrDuplicate)
		}
		now := time.Now()
		sl.ID = t.nextID()
		sl.CreatedAt, sl.UpdatedAt = now, now
		t.slides[sl.ID] = *sl
		return nil
	})
}

func (r slidesRepo) GetByID(_ context.Context, id int64) (*model.Slide, error) {
	var out *model.Slide
	err := r.s.with(func(t *tables) error {
		if sl, ok := t.slides[id]; ok {
			out = &sl
		}
		return nil
	})
	return out, err
}

func (r slidesRepo) LockByID(ctx context.Context, id int64) (*model.Slide, error) {
	return r.GetByID(ctx, id)
}

func (r slidesRepo) Update(_ context.Context, sl *model.Slide) error {
	return r.s.with(func(t *tables) error {
		if _, ok := t.slides[sl.ID]; !ok {
			return fmt.Errorf("update slide %d: not found", sl.ID)
		}
		if orderTaken(t, sl.SlideshowID, sl.Order, sl.ID) {
			return fmt.Errorf("update slide: %w", repository.ErrDuplicate)
		}
		sl.UpdatedAt = time.Now()
		t.slides[sl.ID] = *sl
		return nil
	})
}

func (r slidesRepo) Delete(_ context.Context, id int64) error {
	return r.s.with(func(t *tables) error {
		delete(t.slides, id)
		return nil
	})
}

func (r slidesRepo) ListBySlideshow(_ context.Context, slideshowID int64) ([]*model.Slide, error) {
	var out []*model.Slide
	err := r.s.with(func(t *tables) error {
		for _, sl := range t.slides {
			if sl.SlideshowID == slideshowID {
				out = append(out, &sl)
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

func (r slidesRepo) MaxOrder(_ context.Context, slideshowID int64) (*int, error) {
	var max *int
	err := r.s.with(func(t *tables) error {
		for _, sl := range t.slides {
			if sl.SlideshowID == slideshowID && (max == nil || sl.Order > *max) {
				order := sl.Order
				max = &order
			}
		}
		return nil
	})
	return max, err
}

func (r slidesRepo) OrderTaken(_ context.Context, slideshowID int64, order int, exceptID int64) (bool, error) {
	var taken bool
	err := r.s.with(func(t *tables) error {
		taken = orderTaken(t, slideshowID, order, exceptID)
		return nil
	})
	return taken, err
}
