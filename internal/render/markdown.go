// Package render turns slide markdown into HTML.
package render

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Renderer converts slide source to the stored rendered_content.
type Renderer interface {
	Render(source string) (string, error)
}

// Markdown renders GitHub-flavoured markdown. Raw HTML in the source is
// dropped by goldmark's default (unsafe rendering is off).
type Markdown struct {
	once sync.Once
	md   goldmark.Markdown
}

func NewMarkdown() *Markdown {
	return &Markdown{}
}

func (m *Markdown) engine() goldmark.Markdown {
	m.once.Do(func() {
		m.md = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.DefinitionList,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		)
	})
	return m.md
}

func (m *Markdown) Render(source string) (string, error) {
	if source == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := m.engine().Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
