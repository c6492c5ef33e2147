package model

import (
	"strings"
	"time"
)

// Content types a course module can point at, as "app_label.model".
const (
	ContentChatRoom  = "chat.chatroom"
	ContentSlideshow = "slideshows.slideshow"
)

// CourseModule is an ordered unit of a course linked to one content object.
type CourseModule struct {
	ID          int64     `json:"id"`
	CourseID    int64     `json:"course"`
	CourseTitle string    `json:"course_title"`
	Title       string    `json:"title"`
	Order       int       `json:"order"`
	ContentType string    `json:"content_type"`
	ObjectID    int64     `json:"object_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// WellFormedContentType reports whether ct has the "app_label.model" shape.
func WellFormedContentType(ct string) bool {
	app, name, ok := strings.Cut(ct, ".")
	return ok && app != "" && name != ""
}
