package policy

import "github.com/Freeeeeet/edulite_core/internal/model"

// Target is the resource of a slideshow check: a slideshow itself or a
// slide resolved together with its parent.
type Target interface {
	parent() *model.Slideshow
}

type SlideshowTarget struct {
	Slideshow *model.Slideshow
}

func (t SlideshowTarget) parent() *model.Slideshow { return t.Slideshow }

type SlideTarget struct {
	Slide  *model.Slide
	Parent *model.Slideshow
}

func (t SlideTarget) parent() *model.Slideshow { return t.Parent }

// IsOwner reports whether actor created the slideshow behind t.
func IsOwner(t Target, actor *model.Actor) bool {
	return actor.Is(t.parent().CreatedBy)
}

// CanRead: owner always; others only for published public or unlisted slideshows.
func CanRead(t Target, actor *model.Actor) bool {
	if IsOwner(t, actor) {
		return true
	}
	s := t.parent()
	if !s.IsPublished {
		return false
	}
	return s.Visibility == model.SlideshowPublic || s.Visibility == model.SlideshowUnlisted
}

// CanWrite: owner only.
func CanWrite(t Target, actor *model.Actor) bool {
	return IsOwner(t, actor)
}

// CheckRead turns CanRead into an outcome. Unreadable slideshows are reported
// as denied so that callers can decide whether to hide existence.
func CheckRead(t Target, actor *model.Actor) error {
	if !CanRead(t, actor) {
		return Denied("you do not have permission to view this slideshow")
	}
	return nil
}

func CheckWrite(t Target, actor *model.Actor) error {
	if !CanWrite(t, actor) {
		return Denied("only the slideshow owner can modify it")
	}
	return nil
}

// ViewSlide renders a slide for actor. Raw content and speaker notes are
// stripped for anyone but the owner, whatever the slideshow's visibility.
func ViewSlide(t SlideTarget, actor *model.Actor) model.SlideView {
	v := model.SlideView{
		ID:              t.Slide.ID,
		Order:           t.Slide.Order,
		Title:           t.Slide.DisplayTitle(),
		RenderedContent: t.Slide.RenderedContent,
		CreatedAt:       t.Slide.CreatedAt,
		UpdatedAt:       t.Slide.UpdatedAt,
	}
	if IsOwner(t, actor) {
		content, notes := t.Slide.Content, t.Slide.Notes
		v.Content = &content
		v.Notes = &notes
	}
	return v
}

// CheckVersion compares the client's token with the stored version. A nil
// token skips the check.
func CheckVersion(current int, client *int) error {
	if client == nil || *client == current {
		return nil
	}
	return &VersionConflict{ServerVersion: current, ClientVersion: *client}
}

// NextSlideOrder appends after the highest existing order, or starts at 0.
func NextSlideOrder(maxOrder *int) int {
	if maxOrder == nil {
		return 0
	}
	return *maxOrder + 1
}
