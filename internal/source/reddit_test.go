package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func redditListingJSON(posts ...string) string {
	out := `{"data":{"children":[`
	for i, p := range posts {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"data":%s}`, p)
	}
	return out + `]}}`
}

func TestRedditFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/r/popular.json":
			w.Write([]byte(redditListingJSON(
				`{"id":"aaa","title":"Big link","author":"u1","subreddit":"technology","score":900,
				  "url":"https://example.net/story","permalink":"/r/technology/comments/aaa/big_link/",
				  "created_utc":1756300000,"is_self":false,"thumbnail":"https://thumb.redd.it/a.jpg",
				  "link_flair_text":"News","over_18":false,"stickied":false}`,
				`{"id":"bbb","title":"Pinned","subreddit":"technology","score":5000,
				  "created_utc":1756300000,"stickied":true}`,
			)))
		case "/r/golang/hot.json":
			w.Write([]byte(redditListingJSON(
				`{"id":"aaa","title":"Big link (crosspost)","author":"u1","subreddit":"golang","score":910,
				  "url":"https://example.net/story","permalink":"/r/golang/comments/aaa/","created_utc":1756300000}`,
				`{"id":"ccc","title":"Self post","author":"u2","subreddit":"golang","score":150,
				  "permalink":"/r/golang/comments/ccc/self_post/","created_utc":1756300300,"is_self":true,
				  "thumbnail":"self"}`,
			)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	old := redditAPIBaseURL
	redditAPIBaseURL = srv.URL
	defer func() { redditAPIBaseURL = old }()

	drv := NewReddit(NewClient(), []string{"golang"}, 25, 100)
	drv.pause = 0

	cands, err := drv.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	// aaa deduped across listings, bbb stickied, ccc kept; sorted by score.
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(cands), cands)
	}

	link := cands[0]
	if link.ExternalID != "aaa" || link.Score != 900 {
		t.Errorf("first = %+v", link)
	}
	if link.SourceDomain != "example.net" {
		t.Errorf("domain = %q", link.SourceDomain)
	}
	if link.ThumbnailURL != "https://thumb.redd.it/a.jpg" {
		t.Errorf("thumbnail = %q", link.ThumbnailURL)
	}
	if len(link.Tags) != 2 || link.Tags[0] != "r/technology" || link.Tags[1] != "News" {
		t.Errorf("tags = %v", link.Tags)
	}

	self := cands[1]
	if self.SourceURL != "https://reddit.com/r/golang/comments/ccc/self_post/" {
		t.Errorf("self url = %q", self.SourceURL)
	}
	if self.SourceDomain != "reddit.com" {
		t.Errorf("self domain = %q", self.SourceDomain)
	}
	if self.ThumbnailURL != "" {
		t.Errorf("non-http thumbnail kept: %q", self.ThumbnailURL)
	}
}

func TestRedditFetch_BrokenSubredditIsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/r/popular.json" {
			w.Write([]byte(redditListingJSON(
				`{"id":"aaa","title":"Works","author":"u1","subreddit":"news","score":500,
				  "url":"https://example.net/a","permalink":"/r/news/comments/aaa/","created_utc":1756300000}`,
			)))
			return
		}
		http.Error(w, "banned", http.StatusNotFound)
	}))
	defer srv.Close()
	old := redditAPIBaseURL
	redditAPIBaseURL = srv.URL
	defer func() { redditAPIBaseURL = old }()

	drv := NewReddit(NewClient(), []string{"quarantined"}, 25, 100)
	drv.pause = 0

	cands, err := drv.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(cands) != 1 || cands[0].ExternalID != "aaa" {
		t.Errorf("cands = %+v", cands)
	}
}
