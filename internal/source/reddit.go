package source

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

const redditAPIBase = "https://www.reddit.com"

var redditAPIBaseURL = redditAPIBase

// redditDefaultSubreddits are the communities polled when the config
// does not name its own list.
var redditDefaultSubreddits = []string{
	"technology",
	"programming",
	"webdev",
	"javascript",
	"python",
	"machinelearning",
	"artificial",
	"startups",
	"entrepreneur",
	"science",
}

type redditPost struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Subreddit     string  `json:"subreddit"`
	Score         int     `json:"score"`
	URL           string  `json:"url"`
	Permalink     string  `json:"permalink"`
	CreatedUTC    float64 `json:"created_utc"`
	IsSelf        bool    `json:"is_self"`
	Thumbnail     string  `json:"thumbnail"`
	LinkFlairText string  `json:"link_flair_text"`
	Over18        bool    `json:"over_18"`
	Stickied      bool    `json:"stickied"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Reddit aggregates hot posts across r/popular and a configurable set
// of subreddits through the public JSON API.
type Reddit struct {
	http           *Client
	subreddits     []string
	includePopular bool
	limit          int
	minScore       int

	// pause between subreddit requests, shortened in tests
	pause time.Duration
}

func NewReddit(httpClient *Client, subreddits []string, limit, minScore int) *Reddit {
	if len(subreddits) == 0 {
		subreddits = redditDefaultSubreddits
	}
	if limit <= 0 {
		limit = 25
	}
	if minScore <= 0 {
		minScore = 100
	}
	return &Reddit{
		http:           httpClient,
		subreddits:     subreddits,
		includePopular: true,
		limit:          limit,
		minScore:       minScore,
		pause:          100 * time.Millisecond,
	}
}

func (r *Reddit) Meta() Meta {
	return Meta{
		Name:        "reddit",
		DisplayName: "Reddit",
		Description: "The front page of the internet, hot discussions across communities",
		APIEndpoint: redditAPIBase,
		MinScore:    r.minScore,
		MaxPosts:    DefaultMaxPosts,
	}
}

func (r *Reddit) ScorePolicy() ScorePolicy {
	return ScorePolicy{Mode: UpdateAbsoluteDelta, Threshold: 50}
}

// listing fetches one subreddit listing. Failures are soft: Reddit rate
// limits aggressively and one broken community should not sink a run.
func (r *Reddit) listing(ctx context.Context, path string, limit int) []redditPost {
	var resp redditListing
	url := fmt.Sprintf("%s%s.json?limit=%d&raw_json=1", redditAPIBaseURL, path, limit)
	if err := r.http.GetJSON(ctx, url, &resp, nil); err != nil {
		return nil
	}

	var posts []redditPost
	for _, child := range resp.Data.Children {
		p := child.Data
		if p.Stickied || p.Over18 {
			continue
		}
		posts = append(posts, p)
	}
	return posts
}

func (r *Reddit) Fetch(ctx context.Context) ([]Candidate, error) {
	var all []redditPost

	if r.includePopular {
		all = append(all, r.listing(ctx, "/r/popular", 50)...)
	}

	for _, sub := range r.subreddits {
		all = append(all, r.listing(ctx, "/r/"+sub+"/hot", r.limit)...)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.pause):
		}
	}

	// Dedup across listings; r/popular overlaps the explicit set.
	seen := make(map[string]bool, len(all))
	var unique []redditPost
	for _, p := range all {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		if p.Score >= r.minScore && p.Title != "" {
			unique = append(unique, p)
		}
	}

	sort.Slice(unique, func(i, j int) bool { return unique[i].Score > unique[j].Score })

	cands := make([]Candidate, 0, len(unique))
	for _, p := range unique {
		sourceURL := p.URL
		domain := Domain(p.URL, "reddit.com")
		if p.IsSelf {
			sourceURL = "https://reddit.com" + p.Permalink
			domain = "reddit.com"
		}

		tags := []string{"r/" + p.Subreddit}
		if p.LinkFlairText != "" {
			tags = append(tags, p.LinkFlairText)
		}

		thumbnail := ""
		if strings.HasPrefix(p.Thumbnail, "http") {
			thumbnail = p.Thumbnail
		}

		cands = append(cands, Candidate{
			ExternalID:   p.ID,
			Title:        p.Title,
			Lang:         "en",
			SourceURL:    sourceURL,
			OriginURL:    "https://reddit.com" + p.Permalink,
			SourceDomain: domain,
			ThumbnailURL: thumbnail,
			Author:       p.Author,
			AuthorURL:    "https://reddit.com/user/" + p.Author,
			Score:        p.Score,
			Tags:         tags,
			PublishedAt:  unixTime(int64(p.CreatedUTC)),
		})
	}
	return cands, nil
}
