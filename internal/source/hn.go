package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

const (
	hnAPIBase         = "https://hacker-news.firebaseio.com/v0"
	hnItemConcurrency = 10
	hnItemPageBase    = "https://news.ycombinator.com/item?id="
	hnUserPageBase    = "https://news.ycombinator.com/user?id="
)

// hnAPIBaseURL allows tests to override the API endpoint.
var hnAPIBaseURL = hnAPIBase

// hnItem is a Hacker News item from the Firebase API.
type hnItem struct {
	ID      int    `json:"id"`
	Type    string `json:"type"`
	By      string `json:"by"`
	Time    int64  `json:"time"`
	Title   string `json:"title"`
	Text    string `json:"text"`
	URL     string `json:"url"`
	Score   int    `json:"score"`
	Deleted bool   `json:"deleted"`
	Dead    bool   `json:"dead"`
}

func (it hnItem) valid(minScore int) bool {
	return it.Type == "story" && !it.Deleted && !it.Dead && it.Title != "" && it.Score >= minScore
}

// hnClient wraps the Firebase endpoints shared by the HN driver family.
type hnClient struct {
	http *Client
}

func (c *hnClient) storyIDs(ctx context.Context, list string) ([]int, error) {
	var ids []int
	url := fmt.Sprintf("%s/%s.json", hnAPIBaseURL, list)
	if err := c.http.GetJSON(ctx, url, &ids, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", list, err)
	}
	return ids, nil
}

// items fetches item details with bounded concurrency. A single failed
// item fetch is dropped, not fatal; order follows the input IDs.
func (c *hnClient) items(ctx context.Context, ids []int) ([]hnItem, error) {
	results := make([]*hnItem, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(hnItemConcurrency)

	var mu sync.Mutex
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			var item hnItem
			url := fmt.Sprintf("%s/item/%d.json", hnAPIBaseURL, id)
			if err := c.http.GetJSON(ctx, url, &item, nil); err != nil {
				return nil // skip item, keep the run alive
			}
			mu.Lock()
			results[i] = &item
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]hnItem, 0, len(ids))
	for _, item := range results {
		if item != nil {
			items = append(items, *item)
		}
	}
	return items, nil
}

// hnDetectTags sniffs tags from an HN title: community prefixes and
// media-type markers.
func hnDetectTags(title string) []string {
	var tags []string

	switch {
	case strings.HasPrefix(title, "Show HN:"):
		tags = append(tags, "Show HN")
	case strings.HasPrefix(title, "Ask HN:"):
		tags = append(tags, "Ask HN")
	case strings.HasPrefix(title, "Tell HN:"):
		tags = append(tags, "Tell HN")
	case strings.HasPrefix(title, "Launch HN:"):
		tags = append(tags, "Launch HN")
	}

	if strings.Contains(title, "[video]") {
		tags = append(tags, "Video")
	}
	if strings.Contains(title, "[pdf]") {
		tags = append(tags, "PDF")
	}

	return tags
}

func hnAuthorURL(by string) string {
	if by == "" {
		return ""
	}
	return hnUserPageBase + by
}

// HN fetches front-page stories from Hacker News.
type HN struct {
	client   *hnClient
	list     string // "topstories", "beststories", "newstories"
	limit    int
	minScore int
}

// NewHN creates the Hacker News driver. variant selects the listing:
// "top" (default), "best", or "new".
func NewHN(httpClient *Client, variant string, limit, minScore int) (*HN, error) {
	list := "topstories"
	switch variant {
	case "", "top":
	case "best":
		list = "beststories"
	case "new":
		list = "newstories"
	default:
		return nil, fmt.Errorf("hn: unknown variant %q", variant)
	}
	if limit <= 0 {
		limit = 100
	}
	if minScore <= 0 {
		minScore = 100
	}
	return &HN{client: &hnClient{http: httpClient}, list: list, limit: limit, minScore: minScore}, nil
}

func (h *HN) Meta() Meta {
	return Meta{
		Name:        "hn",
		DisplayName: "Hacker News",
		Description: "Y Combinator's tech community, surfacing the discussions developers and founders care about",
		APIEndpoint: hnAPIBase,
		MinScore:    h.minScore,
		MaxPosts:    DefaultMaxPosts,
	}
}

func (h *HN) ScorePolicy() ScorePolicy {
	return ScorePolicy{Mode: UpdateAbsoluteDelta, Threshold: 10}
}

func (h *HN) Fetch(ctx context.Context) ([]Candidate, error) {
	ids, err := h.client.storyIDs(ctx, h.list)
	if err != nil {
		return nil, fmt.Errorf("hn: %w", err)
	}
	if len(ids) > h.limit {
		ids = ids[:h.limit]
	}

	items, err := h.client.items(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hn: %w", err)
	}

	var cands []Candidate
	for _, item := range items {
		if !item.valid(h.minScore) {
			continue
		}

		sourceURL := item.URL
		if sourceURL == "" {
			sourceURL = hnItemPageBase + strconv.Itoa(item.ID)
		}

		cands = append(cands, Candidate{
			ExternalID:   strconv.Itoa(item.ID),
			Title:        item.Title,
			Lang:         "en",
			SourceURL:    sourceURL,
			SourceDomain: Domain(sourceURL, "news.ycombinator.com"),
			Author:       item.By,
			AuthorURL:    hnAuthorURL(item.By),
			Score:        item.Score,
			Tags:         hnDetectTags(item.Title),
			PublishedAt:  TruncateToMinute(unixTime(item.Time)),
		})
	}
	return cands, nil
}
