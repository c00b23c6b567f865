package source

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	watchaAPIBase  = "https://watcha.cn/api/v2"
	watchaSiteBase = "https://watcha.cn"
)

var watchaAPIBaseURL = watchaAPIBase

type watchaProduct struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Slogan       string `json:"slogan"`
	Organization string `json:"organization"`
	AvatarURL    string `json:"avatar_url"`
	ImageURL     string `json:"image_url"`
	Status       string `json:"status"`
	Categories   []struct {
		Name string `json:"name"`
	} `json:"categories"`
	Stats struct {
		HotScore float64 `json:"hot_score"`
	} `json:"stats"`
	CreateAt   time.Time `json:"create_at"`
	WebsiteURL string    `json:"website_url"`
}

type watchaListResponse struct {
	Data struct {
		Items []watchaProduct `json:"items"`
	} `json:"data"`
}

type watchaDetailResponse struct {
	Data struct {
		WebsiteURL string `json:"website_url"`
	} `json:"data"`
}

// Watcha fetches hot AI products from watcha.cn. Content is Chinese.
// Listings carry no publication time worth keeping, so the publication
// date is the day the product first showed up here.
type Watcha struct {
	http       *Client
	includeNew bool
	limit      int

	now func() time.Time
}

func NewWatcha(httpClient *Client, limit int) *Watcha {
	if limit <= 0 {
		limit = 30
	}
	return &Watcha{http: httpClient, includeNew: true, limit: limit, now: time.Now}
}

func (w *Watcha) Meta() Meta {
	return Meta{
		Name:        "watcha",
		DisplayName: "观猹",
		Description: "An AI product review community surfacing the newest and hottest AI apps",
		APIEndpoint: watchaAPIBase,
		MinScore:    0,
		MaxPosts:    DefaultMaxPosts,
	}
}

func (w *Watcha) ScorePolicy() ScorePolicy {
	return ScorePolicy{Mode: UpdateIncreaseOnly, Threshold: 20}
}

// products fetches a listing and drops anything not published. Soft
// failure, matching the other half of the merged feed.
func (w *Watcha) products(ctx context.Context, path string) []watchaProduct {
	var resp watchaListResponse
	if err := w.http.GetJSON(ctx, watchaAPIBaseURL+path, &resp, nil); err != nil {
		return nil
	}

	var items []watchaProduct
	for _, item := range resp.Data.Items {
		if item.Status == "PUBLISHED" {
			items = append(items, item)
		}
	}
	return items
}

// websiteURL fetches the product detail page for its outbound link.
// The listing endpoint omits it.
func (w *Watcha) websiteURL(ctx context.Context, slug string) string {
	var resp watchaDetailResponse
	if err := w.http.GetJSON(ctx, watchaAPIBaseURL+"/products/"+slug, &resp, nil); err != nil {
		return ""
	}
	return resp.Data.WebsiteURL
}

func (w *Watcha) Fetch(ctx context.Context) ([]Candidate, error) {
	all := w.products(ctx, fmt.Sprintf("/hot/products?skip=0&limit=%d", w.limit))

	if w.includeNew {
		for _, p := range w.products(ctx, "/products?skip=0&limit=30&order_by=publish_at") {
			if p.Stats.HotScore >= 10 {
				all = append(all, p)
			}
		}
	}

	seen := make(map[int]bool, len(all))
	var unique []watchaProduct
	for _, p := range all {
		if p.ID == 0 || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		unique = append(unique, p)
	}

	// Newest first, then hottest. Gives fresh products exposure instead
	// of a pure score ranking.
	sort.Slice(unique, func(i, j int) bool {
		if !unique[i].CreateAt.Equal(unique[j].CreateAt) {
			return unique[i].CreateAt.After(unique[j].CreateAt)
		}
		return unique[i].Stats.HotScore > unique[j].Stats.HotScore
	})

	firstSeen := FirstSeenDate(w.now())

	var cands []Candidate
	for _, p := range unique {
		title := p.Name
		if p.Slogan != "" {
			title = p.Name + " - " + p.Slogan
		}

		pageURL := watchaSiteBase + "/products/" + p.Slug
		sourceURL := w.websiteURL(ctx, p.Slug)
		domain := "watcha.cn"
		if sourceURL == "" {
			sourceURL = pageURL
		} else {
			domain = Domain(sourceURL, "watcha.cn")
		}

		var tags []string
		if p.Organization != "" {
			tags = append(tags, p.Organization)
		}
		for _, c := range p.Categories {
			if len(tags) >= 4 {
				break
			}
			tags = append(tags, c.Name)
		}

		thumbnail := p.ImageURL
		if thumbnail == "" {
			thumbnail = p.AvatarURL
		}

		cands = append(cands, Candidate{
			ExternalID:   fmt.Sprintf("%d", p.ID),
			Title:        title,
			Lang:         "zh",
			SourceURL:    sourceURL,
			OriginURL:    pageURL,
			SourceDomain: domain,
			ThumbnailURL: thumbnail,
			Author:       p.Organization,
			Score:        int(math.Round(p.Stats.HotScore)),
			Tags:         tags,
			PublishedAt:  firstSeen,
		})
	}
	return cands, nil
}
