package render

import (
	"encoding/json"
	"io"
)

type jsonListing struct {
	Source      jsonSource `json:"source"`
	GeneratedAt string     `json:"generated_at"`
	Posts       []jsonPost `json:"posts"`
}

type jsonSource struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type jsonPost struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Summary      string   `json:"summary,omitempty"`
	URL          string   `json:"url"`
	OriginURL    string   `json:"origin_url,omitempty"`
	Domain       string   `json:"domain,omitempty"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Author       string   `json:"author,omitempty"`
	Score        int      `json:"score"`
	Tags         []string `json:"tags,omitempty"`
	PublishedAt  string   `json:"published_at"`
}

// JSONFormatter formats posts as JSON.
type JSONFormatter struct{}

// NewJSON creates a JSON formatter.
func NewJSON() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes the posts as JSON to w.
func (f *JSONFormatter) Format(w io.Writer, input Input) error {
	out := jsonListing{
		Source: jsonSource{
			Name:        input.Source.Name,
			DisplayName: input.Source.DisplayName,
		},
		GeneratedAt: input.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Posts:       make([]jsonPost, 0, len(input.Posts)),
	}

	for _, post := range input.Posts {
		out.Posts = append(out.Posts, jsonPost{
			ID:           post.ID,
			Title:        localeTitle(post, input.Locale),
			Summary:      localeSummary(post, input.Locale),
			URL:          post.SourceURL,
			OriginURL:    post.OriginURL,
			Domain:       post.SourceDomain,
			ThumbnailURL: post.ThumbnailURL,
			Author:       post.Author,
			Score:        post.Score,
			Tags:         post.Tags,
			PublishedAt:  post.PublishedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
