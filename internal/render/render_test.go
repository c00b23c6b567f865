package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"buzzing/internal/store"
)

func testInput() Input {
	return Input{
		Source: store.Source{
			Name:        "hn",
			DisplayName: "Hacker News",
			Description: "Top stories from Hacker News.",
		},
		Posts: []store.Post{
			{
				ID:            "id-1",
				ExternalID:    "1001",
				TitleOriginal: "A faster allocator",
				SourceURL:     "https://example.com/alloc",
				OriginURL:     "https://news.ycombinator.com/item?id=1001",
				SourceDomain:  "example.com",
				Author:        "pg",
				Score:         312,
				Tags:          []string{"performance"},
				Translations: store.Translations{
					"zh": {Title: "更快的分配器"},
				},
				PublishedAt: time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC),
			},
			{
				ID:              "id-2",
				ExternalID:      "1002",
				TitleOriginal:   "Ask HN: Favorite papers?",
				SummaryOriginal: "Looking for systems papers.",
				SourceURL:       "https://news.ycombinator.com/item?id=1002",
				Score:           88,
				PublishedAt:     time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
			},
		},
		Locale:      "en",
		GeneratedAt: time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC),
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"terminal", "markdown", "json"} {
		if _, err := New(format, false); err != nil {
			t.Errorf("New(%q): %v", format, err)
		}
	}
	if _, err := New("xml", false); err == nil {
		t.Error("New(xml): expected error")
	}
}

func TestTerminalFormat(t *testing.T) {
	var buf bytes.Buffer
	f := NewTerminal(false)
	if err := f.Format(&buf, testInput()); err != nil {
		t.Fatalf("format: %v", err)
	}

	out := buf.String()
	checks := []string{
		"Hacker News — 2 posts",
		"[312] 2026-08-01 12:30  A faster allocator",
		"https://example.com/alloc",
		"performance",
		"[88] 2026-08-01 09:00  Ask HN: Favorite papers?",
	}
	for _, want := range checks {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n\nfull output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("colorless output contains ANSI escapes")
	}
}

func TestTerminalFormat_Color(t *testing.T) {
	var buf bytes.Buffer
	f := NewTerminal(true)
	if err := f.Format(&buf, testInput()); err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.Contains(buf.String(), "\033[1m") {
		t.Error("colored output missing bold escape")
	}
}

func TestMarkdownFormat(t *testing.T) {
	var buf bytes.Buffer
	f := NewMarkdown()
	if err := f.Format(&buf, testInput()); err != nil {
		t.Fatalf("format: %v", err)
	}

	out := buf.String()
	checks := []string{
		"# Hacker News",
		"Top stories from Hacker News.",
		"## [A faster allocator](https://example.com/alloc)",
		"2026-08-01 · example.com · by pg · score 312",
		"`performance`",
		"## [Ask HN: Favorite papers?](https://news.ycombinator.com/item?id=1002)",
		"Looking for systems papers.",
	}
	for _, want := range checks {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n\nfull output:\n%s", want, out)
		}
	}
}

func TestMarkdownFormat_Empty(t *testing.T) {
	input := testInput()
	input.Posts = nil

	var buf bytes.Buffer
	if err := NewMarkdown().Format(&buf, input); err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.Contains(buf.String(), "No posts found.") {
		t.Error("missing 'No posts found.'")
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSON().Format(&buf, testInput()); err != nil {
		t.Fatalf("format: %v", err)
	}

	var listing jsonListing
	if err := json.Unmarshal(buf.Bytes(), &listing); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if listing.Source.Name != "hn" || listing.Source.DisplayName != "Hacker News" {
		t.Errorf("source = %+v", listing.Source)
	}
	if listing.GeneratedAt != "2026-08-01T13:00:00Z" {
		t.Errorf("generated_at = %q", listing.GeneratedAt)
	}
	if len(listing.Posts) != 2 {
		t.Fatalf("posts = %d, want 2", len(listing.Posts))
	}
	first := listing.Posts[0]
	if first.Title != "A faster allocator" || first.Score != 312 || first.Domain != "example.com" {
		t.Errorf("first post = %+v", first)
	}
	if first.PublishedAt != "2026-08-01T12:30:00Z" {
		t.Errorf("published_at = %q", first.PublishedAt)
	}
}

func TestFormat_LocaleFallback(t *testing.T) {
	input := testInput()
	input.Locale = "zh"

	var buf bytes.Buffer
	if err := NewJSON().Format(&buf, input); err != nil {
		t.Fatalf("format: %v", err)
	}

	var listing jsonListing
	if err := json.Unmarshal(buf.Bytes(), &listing); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if listing.Posts[0].Title != "更快的分配器" {
		t.Errorf("translated title = %q", listing.Posts[0].Title)
	}
	// The second post carries no zh translation and keeps the original.
	if listing.Posts[1].Title != "Ask HN: Favorite papers?" {
		t.Errorf("fallback title = %q", listing.Posts[1].Title)
	}
}
