package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func rssFeedXML(items string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Feed</title>` + items + `</channel></rss>`
}

func TestNatureFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, rssFeedXML(`
<item>
  <title>A new result</title>
  <link>https://www.nature.com/articles/d41586-026-01234-5</link>
  <description>Summary of the result.</description>
  <pubDate>Wed, 26 Aug 2026 08:30:45 GMT</pubDate>
  <dc:creator xmlns:dc="http://purl.org/dc/elements/1.1/">A. Researcher</dc:creator>
</item>
<item>
  <title></title>
  <link>https://www.nature.com/articles/broken</link>
</item>`))
	}))
	defer srv.Close()

	drv := NewNature(30)
	drv.feedURLs = []string{srv.URL}

	cands, err := drv.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}

	c := cands[0]
	if c.ExternalID != "d41586-026-01234-5" {
		t.Errorf("external id = %q", c.ExternalID)
	}
	if c.SourceDomain != "nature.com" {
		t.Errorf("domain = %q", c.SourceDomain)
	}
	if c.Author != "A. Researcher" {
		t.Errorf("author = %q", c.Author)
	}
	if c.Score != 0 {
		t.Errorf("score = %d", c.Score)
	}
	if sec := c.PublishedAt.Second(); sec != 0 {
		t.Errorf("published_at not truncated: %v", c.PublishedAt)
	}
}

func TestSkyNewsFetch_MergesFeeds(t *testing.T) {
	shared := `
<item><title>Shared story</title><link>https://news.sky.com/story/shared-13200001</link>
<pubDate>Thu, 27 Aug 2026 10:00:00 GMT</pubDate>
<enclosure url="https://e3.365dm.com/shared.jpg" type="image/jpeg"/></item>`

	home := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, rssFeedXML(shared+`
<item><title>Home only</title><link>https://news.sky.com/story/home-13200002</link>
<pubDate>Thu, 27 Aug 2026 09:00:00 GMT</pubDate></item>`))
	}))
	defer home.Close()
	uk := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, rssFeedXML(shared+`
<item><title>UK only</title><link>https://news.sky.com/story/uk-13200003</link>
<pubDate>Thu, 27 Aug 2026 11:00:00 GMT</pubDate></item>`))
	}))
	defer uk.Close()
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer dead.Close()

	drv := NewSkyNews(30)
	drv.feedURLs = []string{home.URL, uk.URL, dead.URL}

	cands, err := drv.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(cands) != 3 {
		t.Fatalf("got %d candidates, want 3 deduped: %+v", len(cands), cands)
	}

	// Newest first across feeds.
	if cands[0].ExternalID != "13200003" || cands[1].ExternalID != "13200001" || cands[2].ExternalID != "13200002" {
		t.Errorf("order = %s %s %s", cands[0].ExternalID, cands[1].ExternalID, cands[2].ExternalID)
	}
	if cands[1].ThumbnailURL != "https://e3.365dm.com/shared.jpg" {
		t.Errorf("enclosure thumbnail = %q", cands[1].ThumbnailURL)
	}
}

func TestArsTechnicaFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel><title>Ars</title>
<item>
  <title>Chip deep dive</title>
  <link>https://arstechnica.com/gadgets/2026/08/chip-deep-dive/</link>
  <description>All about the chip.</description>
  <pubDate>Thu, 27 Aug 2026 12:15:30 GMT</pubDate>
  <dc:creator>Ars Writer</dc:creator>
  <category>Gadgets</category><category>Hardware</category>
  <media:thumbnail url="https://cdn.arstechnica.net/chip.jpg"/>
</item>
</channel></rss>`)
	}))
	defer srv.Close()

	drv := NewArsTechnica(30)
	drv.feedURLs = []string{srv.URL}

	cands, err := drv.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}

	c := cands[0]
	if c.ExternalID != "chip-deep-dive" {
		t.Errorf("external id = %q", c.ExternalID)
	}
	if c.Author != "Ars Writer" {
		t.Errorf("author = %q", c.Author)
	}
	if len(c.Tags) != 2 || c.Tags[0] != "Gadgets" {
		t.Errorf("tags = %v", c.Tags)
	}
	if c.ThumbnailURL != "https://cdn.arstechnica.net/chip.jpg" {
		t.Errorf("media thumbnail = %q", c.ThumbnailURL)
	}
}
