package source

import (
	"context"
	"fmt"
	"time"
)

const lobstersAPIBase = "https://lobste.rs"

var lobstersAPIBaseURL = lobstersAPIBase

type lobstersStory struct {
	ShortID          string    `json:"short_id"`
	CreatedAt        time.Time `json:"created_at"`
	Title            string    `json:"title"`
	URL              string    `json:"url"`
	Score            int       `json:"score"`
	DescriptionPlain string    `json:"description_plain"`
	SubmitterUser    string    `json:"submitter_user"`
	Tags             []string  `json:"tags"`
	CommentsURL      string    `json:"comments_url"`
}

// Lobsters fetches the hottest stories from lobste.rs.
type Lobsters struct {
	http     *Client
	listing  string // "hottest" or "newest"
	limit    int
	minScore int
}

func NewLobsters(httpClient *Client, listing string, limit, minScore int) (*Lobsters, error) {
	switch listing {
	case "":
		listing = "hottest"
	case "hottest", "newest":
	default:
		return nil, fmt.Errorf("lobsters: unknown listing %q", listing)
	}
	if limit <= 0 {
		limit = 50
	}
	if minScore <= 0 {
		minScore = 5
	}
	return &Lobsters{http: httpClient, listing: listing, limit: limit, minScore: minScore}, nil
}

func (l *Lobsters) Meta() Meta {
	return Meta{
		Name:        "lobsters",
		DisplayName: "Lobsters",
		Description: "A computing-focused link aggregation community run by programmers",
		APIEndpoint: lobstersAPIBase,
		MinScore:    l.minScore,
		MaxPosts:    DefaultMaxPosts,
	}
}

func (l *Lobsters) ScorePolicy() ScorePolicy {
	return ScorePolicy{Mode: UpdateIncreaseOnly, Threshold: 10}
}

func (l *Lobsters) Fetch(ctx context.Context) ([]Candidate, error) {
	var stories []lobstersStory
	url := fmt.Sprintf("%s/%s.json", lobstersAPIBaseURL, l.listing)
	if err := l.http.GetJSON(ctx, url, &stories, nil); err != nil {
		return nil, fmt.Errorf("lobsters: %w", err)
	}

	var cands []Candidate
	for _, story := range stories {
		if story.Score < l.minScore || story.Title == "" || story.ShortID == "" {
			continue
		}
		if len(cands) >= l.limit {
			break
		}

		sourceURL := story.URL
		if sourceURL == "" {
			sourceURL = story.CommentsURL
		}

		cands = append(cands, Candidate{
			ExternalID:   story.ShortID,
			Title:        story.Title,
			Summary:      story.DescriptionPlain,
			Lang:         "en",
			SourceURL:    sourceURL,
			OriginURL:    story.CommentsURL,
			SourceDomain: Domain(sourceURL, "lobste.rs"),
			Author:       story.SubmitterUser,
			AuthorURL:    "https://lobste.rs/~" + story.SubmitterUser,
			Score:        story.Score,
			Tags:         story.Tags,
			PublishedAt:  TruncateToMinute(story.CreatedAt),
		})
	}
	return cands, nil
}
