// Package render formats stored posts for output: a colored terminal
// listing, a Markdown page, or JSON.
package render

import (
	"fmt"
	"io"
	"time"

	"buzzing/internal/store"
)

// Input is the full input for a post formatter.
type Input struct {
	Source      store.Source
	Posts       []store.Post
	Locale      string
	GeneratedAt time.Time
}

// Formatter writes formatted posts to w.
type Formatter interface {
	Format(w io.Writer, input Input) error
}

// New returns the formatter for a format name.
func New(format string, color bool) (Formatter, error) {
	switch format {
	case "terminal":
		return NewTerminal(color), nil
	case "markdown":
		return NewMarkdown(), nil
	case "json":
		return NewJSON(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want terminal, markdown or json)", format)
	}
}

// localeTitle returns the post title in the requested locale, falling
// back to the original when the translation is missing.
func localeTitle(post store.Post, locale string) string {
	if tr, ok := post.Translations[locale]; ok && tr.Title != "" {
		return tr.Title
	}
	return post.TitleOriginal
}

func localeSummary(post store.Post, locale string) string {
	if tr, ok := post.Translations[locale]; ok && tr.Summary != "" {
		return tr.Summary
	}
	return post.SummaryOriginal
}
