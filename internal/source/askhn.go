package source

import (
	"context"
	"fmt"
	"strconv"
)

const askHNSummaryMax = 500

// AskHN fetches "Ask HN" discussions. The story text doubles as the
// summary, trimmed to a sane length.
type AskHN struct {
	client   *hnClient
	limit    int
	minScore int
}

func NewAskHN(httpClient *Client, limit, minScore int) *AskHN {
	if limit <= 0 {
		limit = 30
	}
	if minScore <= 0 {
		minScore = 10
	}
	return &AskHN{client: &hnClient{http: httpClient}, limit: limit, minScore: minScore}
}

func (a *AskHN) Meta() Meta {
	return Meta{
		Name:        "askhn",
		DisplayName: "Ask HN",
		Description: "Questions and discussions raised by the Hacker News community",
		APIEndpoint: hnAPIBase,
		MinScore:    a.minScore,
		MaxPosts:    DefaultMaxPosts,
	}
}

func (a *AskHN) ScorePolicy() ScorePolicy {
	return ScorePolicy{Mode: UpdateIncreaseOnly, Threshold: 30}
}

func (a *AskHN) Fetch(ctx context.Context) ([]Candidate, error) {
	ids, err := a.client.storyIDs(ctx, "askstories")
	if err != nil {
		return nil, fmt.Errorf("askhn: %w", err)
	}
	if len(ids) > a.limit {
		ids = ids[:a.limit]
	}

	items, err := a.client.items(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("askhn: %w", err)
	}

	var cands []Candidate
	for _, item := range items {
		if !item.valid(a.minScore) {
			continue
		}

		itemPage := hnItemPageBase + strconv.Itoa(item.ID)

		summary := item.Text
		if r := []rune(summary); len(r) > askHNSummaryMax {
			summary = string(r[:askHNSummaryMax])
		}

		cands = append(cands, Candidate{
			ExternalID:   strconv.Itoa(item.ID),
			Title:        item.Title,
			Summary:      summary,
			Lang:         "en",
			SourceURL:    itemPage,
			OriginURL:    itemPage,
			SourceDomain: "news.ycombinator.com",
			Author:       item.By,
			AuthorURL:    hnAuthorURL(item.By),
			Score:        item.Score,
			Tags:         []string{"Ask HN"},
			PublishedAt:  TruncateToMinute(unixTime(item.Time)),
		})
	}
	return cands, nil
}
