package model

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
)

type SlideshowVisibility string

const (
	SlideshowPublic   SlideshowVisibility = "public"   // discoverable when published
	SlideshowUnlisted SlideshowVisibility = "unlisted" // viewable by link when published
	SlideshowPrivate  SlideshowVisibility = "private"  // owner only
)

type Slideshow struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	CourseID    int64               `json:"course_id"`
	CreatedBy   int64               `json:"created_by"`
	Visibility  SlideshowVisibility `json:"visibility"`
	Subject     string              `json:"subject"`
	Language    string              `json:"language"`
	Country     string              `json:"country"`
	IsPublished bool                `json:"is_published"`
	Version     int                 `json:"version"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// SlideshowFilter narrows slideshow listings.
type SlideshowFilter struct {
	Visibility SlideshowVisibility
	Subject    string
	Language   string
	Country    string
	MineOnly   bool
}

type Slide struct {
	ID              int64     `json:"id"`
	SlideshowID     int64     `json:"slideshow_id"`
	Order           int       `json:"order"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	RenderedContent string    `json:"rendered_content"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

var (
	firstH1 = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	anyTag  = regexp.MustCompile(`<[^>]+>`)
)

// DisplayTitle is the explicit title, else the text of the first <h1> in the
// rendered content, else "Slide N" counting from one.
func (s *Slide) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	if m := firstH1.FindStringSubmatch(s.RenderedContent); m != nil {
		return strings.TrimSpace(html.UnescapeString(anyTag.ReplaceAllString(m[1], "")))
	}
	return fmt.Sprintf("Slide %d", s.Order+1)
}

// SlideView is the outward shape of a slide; Content and Notes are nil when redacted.
type SlideView struct {
	ID              int64     `json:"id"`
	Order           int       `json:"order"`
	Title           string    `json:"title"`
	Content         *string   `json:"content,omitempty"`
	RenderedContent string    `json:"rendered_content"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SlideshowView is a slideshow with its (possibly partial) slides.
type SlideshowView struct {
	Slideshow
	SlideCount        int         `json:"slide_count"`
	Slides            []SlideView `json:"slides"`
	RemainingSlideIDs []int64     `json:"remaining_slide_ids"`
}
