package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDevtoFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/articles" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("top"); got != "7" {
			t.Errorf("top = %q, want 7", got)
		}
		w.Write([]byte(`[
			{"id":101,"title":"Profiling Go services","description":"A walkthrough.",
			 "url":"https://dev.to/jane/profiling","canonical_url":"https://blog.jane.dev/profiling",
			 "cover_image":"https://img.dev/cover.png","published_at":"2026-08-26T09:15:30Z",
			 "public_reactions_count":88,"tag_list":["go","performance"],
			 "user":{"name":"Jane Doe","username":"jane"}},
			{"id":102,"title":"Quiet piece","description":"","url":"https://dev.to/joe/quiet",
			 "canonical_url":"","published_at":"2026-08-26T10:00:00Z","public_reactions_count":3,
			 "tag_list":[],"user":{"name":"","username":"joe"}}
		]`))
	}))
	defer srv.Close()
	old := devtoAPIBaseURL
	devtoAPIBaseURL = srv.URL
	defer func() { devtoAPIBaseURL = old }()

	cands, err := NewDevto(NewClient(), 50, 10).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}

	c := cands[0]
	if c.ExternalID != "101" || c.Score != 88 {
		t.Errorf("candidate = %+v", c)
	}
	if c.SourceURL != "https://blog.jane.dev/profiling" {
		t.Errorf("canonical url not preferred: %q", c.SourceURL)
	}
	if c.OriginURL != "https://dev.to/jane/profiling" {
		t.Errorf("origin = %q", c.OriginURL)
	}
	if c.SourceDomain != "blog.jane.dev" {
		t.Errorf("domain = %q", c.SourceDomain)
	}
	if c.Author != "Jane Doe" || c.AuthorURL != "https://dev.to/jane" {
		t.Errorf("author = %q %q", c.Author, c.AuthorURL)
	}
	if c.ThumbnailURL != "https://img.dev/cover.png" {
		t.Errorf("thumbnail = %q", c.ThumbnailURL)
	}
}
