package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/policy"
	"github.com/Freeeeeet/edulite_core/internal/render"
	"github.com/Freeeeeet/edulite_core/internal/repository"
)

type SlideInput struct {
	Order   *int   `json:"order" validate:"omitempty,gte=0"`
	Title   string `json:"title" validate:"max=200"`
	Content string `json:"content"`
	Notes   string `json:"notes"`
}

type SlideshowInput struct {
	Title       string                    `json:"title" validate:"notblank,max=200"`
	Description string                    `json:"description"`
	CourseID    int64                     `json:"course_id" validate:"required,gt=0"`
	Visibility  model.SlideshowVisibility `json:"visibility" validate:"omitempty,oneof=public unlisted private"`
	Subject     string                    `json:"subject" validate:"max=64"`
	Language    string                    `json:"language" validate:"max=32"`
	Country     string                    `json:"country" validate:"max=64"`
	IsPublished bool                      `json:"is_published"`
	Slides      []SlideInput              `json:"slides" validate:"dive"`
}

// SlideshowPatch updates the given fields. Version, when set, must match the stored version.
type SlideshowPatch struct {
	Version     *int                       `json:"version"`
	Title       *string                    `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string                    `json:"description"`
	Visibility  *model.SlideshowVisibility `json:"visibility" validate:"omitempty,oneof=public unlisted private"`
	Subject     *string                    `json:"subject" validate:"omitempty,max=64"`
	Language    *string                    `json:"language" validate:"omitempty,max=32"`
	Country     *string                    `json:"country" validate:"omitempty,max=64"`
	IsPublished *bool                      `json:"is_published"`
}

// SlidePatch updates the given fields. Version refers to the parent slideshow.
type SlidePatch struct {
	Version *int    `json:"version"`
	Order   *int    `json:"order" validate:"omitempty,gte=0"`
	Title   *string `json:"title" validate:"omitempty,max=200"`
	Content *string `json:"content"`
	Notes   *string `json:"notes"`
}

type SlideshowService struct {
	store    repository.Store
	renderer render.Renderer
	logger   *zap.Logger
}

func NewSlideshowService(store repository.Store, renderer render.Renderer, logger *zap.Logger) *SlideshowService {
	return &SlideshowService{store: store, renderer: renderer, logger: logger}
}

var errDuplicateOrder = policy.Conflict("a slide with this order already exists in the slideshow")

func (s *SlideshowService) newSlide(slideshowID int64, order int, in SlideInput) (*model.Slide, error) {
	rendered, err := s.renderer.Render(in.Content)
	if err != nil {
		return nil, err
	}
	return &model.Slide{
		SlideshowID:     slideshowID,
		Order:           order,
		Title:           in.Title,
		Content:         in.Content,
		RenderedContent: rendered,
		Notes:           in.Notes,
	}, nil
}

// CreateSlideshow stores the slideshow and its nested slides. The actor becomes the owner.
func (s *SlideshowService) CreateSlideshow(ctx context.Context, actor *model.Actor, input SlideshowInput) (*model.SlideshowView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	show := &model.Slideshow{
		Title:       input.Title,
		Description: input.Description,
		CourseID:    input.CourseID,
		CreatedBy:   actor.UserID,
		Visibility:  input.Visibility,
		Subject:     input.Subject,
		Language:    input.Language,
		Country:     input.Country,
		IsPublished: input.IsPublished,
	}
	if show.Visibility == "" {
		show.Visibility = model.SlideshowPrivate
	}

	var slides []*model.Slide
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		course, err := tx.Courses().GetByID(ctx, input.CourseID)
		if err != nil {
			return fmt.Errorf("get course: %w", err)
		}
		if course == nil {
			return policy.InvalidFields("invalid slideshow", map[string]string{"course_id": "course not found"})
		}
		if err := tx.Slideshows().Create(ctx, show); err != nil {
			return err
		}

		var maxOrder *int
		for _, in := range input.Slides {
			order := policy.NextSlideOrder(maxOrder)
			if in.Order != nil {
				order = *in.Order
			}
			slide, err := s.newSlide(show.ID, order, in)
			if err != nil {
				return err
			}
			if err := tx.Slides().Create(ctx, slide); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return errDuplicateOrder
				}
				return err
			}
			if maxOrder == nil || order > *maxOrder {
				maxOrder = &order
			}
			slides = append(slides, slide)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slideshow created",
		zap.Int64("slideshow_id", show.ID),
		zap.Int64("course_id", show.CourseID),
		zap.Int64("owner_id", actor.UserID),
		zap.Int("slides", len(slides)))

	return buildView(show, slides, actor, nil), nil
}

func buildView(show *model.Slideshow, slides []*model.Slide, actor *model.Actor, initial *int) *model.SlideshowView {
	view := &model.SlideshowView{
		Slideshow:         *show,
		SlideCount:        len(slides),
		Slides:            []model.SlideView{},
		RemainingSlideIDs: []int64{},
	}
	for i, sl := range slides {
		if initial != nil && i >= *initial {
			view.RemainingSlideIDs = append(view.RemainingSlideIDs, sl.ID)
			continue
		}
		view.Slides = append(view.Slides, policy.ViewSlide(policy.SlideTarget{Slide: sl, Parent: show}, actor))
	}
	return view
}

func getSlideshow(ctx context.Context, r repository.Slideshows, id int64, lock bool) (*model.Slideshow, error) {
	get := r.GetByID
	if lock {
		get = r.LockByID
	}
	show, err := get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get slideshow: %w", err)
	}
	if show == nil {
		return nil, policy.NotFound("slideshow not found")
	}
	return show, nil
}

// GetSlideshow returns the slideshow with its slides. A non-nil initial
// limits the returned slides to the first N and lists the rest by id.
func (s *SlideshowService) GetSlideshow(ctx context.Context, actor *model.Actor, id int64, initial *int) (*model.SlideshowView, error) {
	if initial != nil && *initial < 0 {
		return nil, policy.InvalidFields("invalid request", map[string]string{"initial": "must be zero or greater"})
	}
	show, err := getSlideshow(ctx, s.store.Slideshows(), id, false)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckRead(policy.SlideshowTarget{Slideshow: show}, actor); err != nil {
		return nil, err
	}
	slides, err := s.store.Slides().ListBySlideshow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list slides: %w", err)
	}
	return buildView(show, slides, actor, initial), nil
}

// ListSlideshows returns the actor's own slideshows and published public ones.
func (s *SlideshowService) ListSlideshows(ctx context.Context, actor *model.Actor, filter model.SlideshowFilter, page model.Page) ([]*model.Slideshow, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	shows, err := s.store.Slideshows().List(ctx, actor.UserID, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list slideshows: %w", err)
	}
	return shows, nil
}

// UpdateSlideshow checks the version under a row lock before touching any
// field, then stores the patch with the version incremented by one.
func (s *SlideshowService) UpdateSlideshow(ctx context.Context, actor *model.Actor, id int64, patch SlideshowPatch) (*model.Slideshow, error) {
	if err := validateInput(patch); err != nil {
		return nil, err
	}

	var show *model.Slideshow
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		if show, err = s.lockForWrite(ctx, tx, id, actor, patch.Version); err != nil {
			return err
		}

		if patch.Title != nil {
			show.Title = *patch.Title
		}
		if patch.Description != nil {
			show.Description = *patch.Description
		}
		if patch.Visibility != nil {
			show.Visibility = *patch.Visibility
		}
		if patch.Subject != nil {
			show.Subject = *patch.Subject
		}
		if patch.Language != nil {
			show.Language = *patch.Language
		}
		if patch.Country != nil {
			show.Country = *patch.Country
		}
		if patch.IsPublished != nil {
			show.IsPublished = *patch.IsPublished
		}
		return bumpVersion(ctx, tx, show)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slideshow updated",
		zap.Int64("slideshow_id", id),
		zap.Int("version", show.Version))
	return show, nil
}

// lockForWrite locks the slideshow, then checks ownership and the client version.
func (s *SlideshowService) lockForWrite(ctx context.Context, tx repository.Store, id int64, actor *model.Actor, version *int) (*model.Slideshow, error) {
	show, err := getSlideshow(ctx, tx.Slideshows(), id, true)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckWrite(policy.SlideshowTarget{Slideshow: show}, actor); err != nil {
		return nil, err
	}
	if err := policy.CheckVersion(show.Version, version); err != nil {
		s.logger.Info("Slideshow version conflict",
			zap.Int64("slideshow_id", id),
			zap.Int("server_version", show.Version),
			zap.Int("client_version", *version))
		return nil, err
	}
	return show, nil
}

func bumpVersion(ctx context.Context, tx repository.Store, show *model.Slideshow) error {
	show.Version++
	if err := tx.Slideshows().Update(ctx, show); err != nil {
		return fmt.Errorf("update slideshow: %w", err)
	}
	return nil
}

func (s *SlideshowService) DeleteSlideshow(ctx context.Context, actor *model.Actor, id int64) error {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := s.lockForWrite(ctx, tx, id, actor, nil); err != nil {
			return err
		}
		if err := tx.Slideshows().Delete(ctx, id); err != nil {
			return fmt.Errorf("delete slideshow: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Slideshow deleted", zap.Int64("slideshow_id", id), zap.Int64("by_user_id", actor.UserID))
	return nil
}

// AddSlide appends a slide, or places it at the given order when free.
func (s *SlideshowService) AddSlide(ctx context.Context, actor *model.Actor, slideshowID int64, input SlideInput) (*model.SlideView, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var (
		show  *model.Slideshow
		slide *model.Slide
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		if show, err = s.lockForWrite(ctx, tx, slideshowID, actor, nil); err != nil {
			return err
		}

		var order int
		if input.Order != nil {
			order = *input.Order
		} else {
			maxOrder, err := tx.Slides().MaxOrder(ctx, slideshowID)
			if err != nil {
				return err
			}
			order = policy.NextSlideOrder(maxOrder)
		}
		if taken, err := tx.Slides().OrderTaken(ctx, slideshowID, order, 0); err != nil {
			return err
		} else if taken {
			return errDuplicateOrder
		}

		if slide, err = s.newSlide(slideshowID, order, input); err != nil {
			return err
		}
		if err := tx.Slides().Create(ctx, slide); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return errDuplicateOrder
			}
			return err
		}
		return bumpVersion(ctx, tx, show)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slide created",
		zap.Int64("slide_id", slide.ID),
		zap.Int64("slideshow_id", slideshowID),
		zap.Int("order", slide.Order),
		zap.Int("version", show.Version))

	view := policy.ViewSlide(policy.SlideTarget{Slide: slide, Parent: show}, actor)
	return &view, nil
}

func getSlide(ctx context.Context, tx repository.Store, slideID int64) (*model.Slide, error) {
	return findSlide(ctx, tx.Slides().GetByID, slideID)
}

// relockSlide rereads the slide under a row lock once the parent is locked.
func relockSlide(ctx context.Context, tx repository.Store, slideID int64) (*model.Slide, error) {
	return findSlide(ctx, tx.Slides().LockByID, slideID)
}

func findSlide(ctx context.Context, get func(context.Context, int64) (*model.Slide, error), slideID int64) (*model.Slide, error) {
	slide, err := get(ctx, slideID)
	if err != nil {
		return nil, fmt.Errorf("get slide: %w", err)
	}
	if slide == nil {
		return nil, policy.NotFound("slide not found")
	}
	return slide, nil
}

// GetSlide applies the parent slideshow's read access and redaction.
func (s *SlideshowService) GetSlide(ctx context.Context, actor *model.Actor, slideID int64) (*model.SlideView, error) {
	slide, err := getSlide(ctx, s.store, slideID)
	if err != nil {
		return nil, err
	}
	show, err := getSlideshow(ctx, s.store.Slideshows(), slide.SlideshowID, false)
	if err != nil {
		return nil, err
	}
	target := policy.SlideTarget{Slide: slide, Parent: show}
	if err := policy.CheckRead(target, actor); err != nil {
		return nil, err
	}
	view := policy.ViewSlide(target, actor)
	return &view, nil
}

func (s *SlideshowService) UpdateSlide(ctx context.Context, actor *model.Actor, slideID int64, patch SlidePatch) (*model.SlideView, error) {
	if err := validateInput(patch); err != nil {
		return nil, err
	}

	var (
		show  *model.Slideshow
		slide *model.Slide
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		if slide, err = getSlide(ctx, tx, slideID); err != nil {
			return err
		}
		if show, err = s.lockForWrite(ctx, tx, slide.SlideshowID, actor, patch.Version); err != nil {
			return err
		}
		if slide, err = relockSlide(ctx, tx, slideID); err != nil {
			return err
		}

		if patch.Order != nil && *patch.Order != slide.Order {
			taken, err := tx.Slides().OrderTaken(ctx, slide.SlideshowID, *patch.Order, slide.ID)
			if err != nil {
				return err
			}
			if taken {
				return errDuplicateOrder
			}
			slide.Order = *patch.Order
		}
		if patch.Title != nil {
			slide.Title = *patch.Title
		}
		if patch.Notes != nil {
			slide.Notes = *patch.Notes
		}
		if patch.Content != nil {
			slide.Content = *patch.Content
			if slide.RenderedContent, err = s.renderer.Render(slide.Content); err != nil {
				return err
			}
		}

		if err := tx.Slides().Update(ctx, slide); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return errDuplicateOrder
			}
			return err
		}
		return bumpVersion(ctx, tx, show)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slide updated",
		zap.Int64("slide_id", slideID),
		zap.Int64("slideshow_id", show.ID),
		zap.Int("version", show.Version))

	view := policy.ViewSlide(policy.SlideTarget{Slide: slide, Parent: show}, actor)
	return &view, nil
}

func (s *SlideshowService) DeleteSlide(ctx context.Context, actor *model.Actor, slideID int64) error {
	var show *model.Slideshow
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		slide, err := getSlide(ctx, tx, slideID)
		if err != nil {
			return err
		}
		if show, err = s.lockForWrite(ctx, tx, slide.SlideshowID, actor, nil); err != nil {
			return err
		}
		if err := tx.Slides().Delete(ctx, slideID); err != nil {
			return fmt.Errorf("delete slide: %w", err)
		}
		return bumpVersion(ctx, tx, show)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Slide deleted",
		zap.Int64("slide_id", slideID),
		zap.Int64("slideshow_id", show.ID),
		zap.Int("version", show.Version))
	return nil
}
