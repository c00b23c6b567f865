package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ShowHN fetches "Show HN" submissions from the dedicated listing.
type ShowHN struct {
	client   *hnClient
	limit    int
	minScore int
}

func NewShowHN(httpClient *Client, limit, minScore int) *ShowHN {
	if limit <= 0 {
		limit = 30
	}
	if minScore <= 0 {
		minScore = 10
	}
	return &ShowHN{client: &hnClient{http: httpClient}, limit: limit, minScore: minScore}
}

func (s *ShowHN) Meta() Meta {
	return Meta{
		Name:        "showhn",
		DisplayName: "Show HN",
		Description: "Projects and products the Hacker News community is showing off",
		APIEndpoint: hnAPIBase,
		MinScore:    s.minScore,
		MaxPosts:    DefaultMaxPosts,
	}
}

func (s *ShowHN) ScorePolicy() ScorePolicy {
	return ScorePolicy{Mode: UpdateAbsoluteDelta, Threshold: 10}
}

func (s *ShowHN) Fetch(ctx context.Context) ([]Candidate, error) {
	ids, err := s.client.storyIDs(ctx, "showstories")
	if err != nil {
		return nil, fmt.Errorf("showhn: %w", err)
	}
	if len(ids) > s.limit {
		ids = ids[:s.limit]
	}

	items, err := s.client.items(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("showhn: %w", err)
	}

	var cands []Candidate
	for _, item := range items {
		if !item.valid(s.minScore) {
			continue
		}

		itemPage := hnItemPageBase + strconv.Itoa(item.ID)
		sourceURL := item.URL
		if sourceURL == "" {
			sourceURL = itemPage
		}

		tags := []string{"Show HN"}
		if strings.Contains(item.Title, "[video]") {
			tags = append(tags, "Video")
		}

		cands = append(cands, Candidate{
			ExternalID:   strconv.Itoa(item.ID),
			Title:        item.Title,
			Lang:         "en",
			SourceURL:    sourceURL,
			OriginURL:    itemPage,
			SourceDomain: Domain(sourceURL, "news.ycombinator.com"),
			Author:       item.By,
			AuthorURL:    hnAuthorURL(item.By),
			Score:        item.Score,
			Tags:         tags,
			PublishedAt:  TruncateToMinute(unixTime(item.Time)),
		})
	}
	return cands, nil
}
