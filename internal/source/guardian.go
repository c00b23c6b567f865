package source

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const guardianAPIBase = "https://content.guardianapis.com"

var guardianAPIBaseURL = guardianAPIBase

type guardianArticle struct {
	ID                 string    `json:"id"`
	SectionName        string    `json:"sectionName"`
	WebPublicationDate time.Time `json:"webPublicationDate"`
	WebTitle           string    `json:"webTitle"`
	WebURL             string    `json:"webUrl"`
	Fields             struct {
		Thumbnail string `json:"thumbnail"`
		TrailText string `json:"trailText"`
	} `json:"fields"`
}

type guardianSearchResponse struct {
	Response struct {
		Results []guardianArticle `json:"results"`
	} `json:"response"`
}

// Guardian fetches the latest articles from the Guardian Open Platform.
// Articles carry no score, so existing posts never get updated.
type Guardian struct {
	http   *Client
	apiKey string
	limit  int
}

// NewGuardian creates the driver. An empty apiKey falls back to the
// platform's public "test" key.
func NewGuardian(httpClient *Client, apiKey string, limit int) *Guardian {
	if apiKey == "" {
		apiKey = "test"
	}
	if limit <= 0 {
		limit = 30
	}
	return &Guardian{http: httpClient, apiKey: apiKey, limit: limit}
}

func (g *Guardian) Meta() Meta {
	return Meta{
		Name:        "guardian",
		DisplayName: "The Guardian",
		Description: "News with a global outlook from the British daily",
		APIEndpoint: guardianAPIBase,
		MinScore:    0,
		MaxPosts:    DefaultMaxPosts,
	}
}

func (g *Guardian) ScorePolicy() ScorePolicy {
	return ScorePolicy{Mode: UpdateNever}
}

func (g *Guardian) Fetch(ctx context.Context) ([]Candidate, error) {
	var resp guardianSearchResponse
	url := fmt.Sprintf("%s/search?api-key=%s&page-size=%d&order-by=newest&show-fields=thumbnail,trailText",
		guardianAPIBaseURL, g.apiKey, g.limit)
	if err := g.http.GetJSON(ctx, url, &resp, nil); err != nil {
		return nil, fmt.Errorf("guardian: %w", err)
	}

	var cands []Candidate
	for _, art := range resp.Response.Results {
		if art.ID == "" || art.WebTitle == "" {
			continue
		}

		var tags []string
		if art.SectionName != "" {
			tags = append(tags, art.SectionName)
		}

		cands = append(cands, Candidate{
			ExternalID:   strings.ReplaceAll(art.ID, "/", "-"),
			Title:        art.WebTitle,
			Summary:      art.Fields.TrailText,
			Lang:         "en",
			SourceURL:    art.WebURL,
			OriginURL:    art.WebURL,
			SourceDomain: Domain(art.WebURL, "theguardian.com"),
			ThumbnailURL: art.Fields.Thumbnail,
			Tags:         tags,
			PublishedAt:  TruncateToMinute(art.WebPublicationDate),
		})
	}
	return cands, nil
}
