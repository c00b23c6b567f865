package source

import (
	"context"
	"fmt"
	"time"
)

const devtoAPIBase = "https://dev.to/api"

var devtoAPIBaseURL = devtoAPIBase

type devtoArticle struct {
	ID                   int       `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	URL                  string    `json:"url"`
	CanonicalURL         string    `json:"canonical_url"`
	CoverImage           string    `json:"cover_image"`
	PublishedAt          time.Time `json:"published_at"`
	PublicReactionsCount int       `json:"public_reactions_count"`
	TagList              []string  `json:"tag_list"`
	User                 struct {
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"user"`
}

// Devto fetches top articles of the past week from the Forem API.
type Devto struct {
	http     *Client
	limit    int
	minScore int
}

func NewDevto(httpClient *Client, limit, minScore int) *Devto {
	if limit <= 0 {
		limit = 50
	}
	if minScore <= 0 {
		minScore = 10
	}
	return &Devto{http: httpClient, limit: limit, minScore: minScore}
}

func (d *Devto) Meta() Meta {
	return Meta{
		Name:        "devto",
		DisplayName: "Dev.to",
		Description: "A developer community sharing programming articles, tutorials and discussions",
		APIEndpoint: devtoAPIBase,
		MinScore:    d.minScore,
		MaxPosts:    DefaultMaxPosts,
	}
}

func (d *Devto) ScorePolicy() ScorePolicy {
	return ScorePolicy{Mode: UpdateAbsoluteDelta, Threshold: 5}
}

func (d *Devto) Fetch(ctx context.Context) ([]Candidate, error) {
	var articles []devtoArticle
	url := fmt.Sprintf("%s/articles?per_page=%d&top=7", devtoAPIBaseURL, d.limit)
	if err := d.http.GetJSON(ctx, url, &articles, nil); err != nil {
		return nil, fmt.Errorf("devto: %w", err)
	}

	var cands []Candidate
	for _, art := range articles {
		if art.PublicReactionsCount < d.minScore || art.Title == "" {
			continue
		}

		sourceURL := art.CanonicalURL
		if sourceURL == "" {
			sourceURL = art.URL
		}

		author := art.User.Name
		if author == "" {
			author = art.User.Username
		}

		cands = append(cands, Candidate{
			ExternalID:   fmt.Sprintf("%d", art.ID),
			Title:        art.Title,
			Summary:      art.Description,
			Lang:         "en",
			SourceURL:    sourceURL,
			OriginURL:    art.URL,
			SourceDomain: Domain(sourceURL, "dev.to"),
			ThumbnailURL: art.CoverImage,
			Author:       author,
			AuthorURL:    "https://dev.to/" + art.User.Username,
			Score:        art.PublicReactionsCount,
			Tags:         art.TagList,
			PublishedAt:  TruncateToMinute(art.PublishedAt),
		})
	}
	return cands, nil
}
