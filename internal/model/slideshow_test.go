package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlideDisplayTitle(t *testing.T) {
	tests := []struct {
		name  string
		slide Slide
		want  string
	}{
		{"explicit", Slide{Title: "Agenda", RenderedContent: "<h1>Other</h1>"}, "Agenda"},
		{"first_h1", Slide{RenderedContent: `<p>x</p><h1 id="intro">Intro <em>to</em> sets</h1><h1>Second</h1>`}, "Intro to sets"},
		{"escaped", Slide{RenderedContent: "<h1>Q&amp;A</h1>"}, "Q&A"},
		{"fallback", Slide{Order: 4, RenderedContent: "<h2>Not a title</h2>"}, "Slide 5"},
		{"empty", Slide{}, "Slide 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.slide.DisplayTitle())
		})
	}
}
