package source

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	phSiteBase = "https://www.producthunt.com"
	phAPIURL   = "https://api.producthunt.com/v2/api/graphql"
)

var (
	phSiteBaseURL = phSiteBase
	phAPIBaseURL  = phAPIURL

	phNextDataRe = regexp.MustCompile(`__NEXT_DATA__\s*=\s*(\{[\s\S]*\})`)
)

type phProduct struct {
	ID           string
	Name         string
	Slug         string
	Tagline      string
	WebsiteURL   string
	ThumbnailURL string
	VotesCount   int
	Topics       []string
}

const phGraphQLQuery = `
query {
  posts(first: 50, order: RANKING) {
    edges {
      node {
        id
        name
        slug
        tagline
        url
        website
        votesCount
        createdAt
        thumbnail { url }
        media { url type }
        topics { edges { node { name } } }
      }
    }
  }
}`

// ProductHunt fetches the day's ranking. With an API token it uses the
// GraphQL API; without one it scrapes the homepage, first out of the
// embedded Next.js payload and then out of the rendered HTML. Products
// carry the date they were first seen, not Product Hunt's own time.
type ProductHunt struct {
	http     *Client
	apiToken string
	minVotes int

	now func() time.Time
}

func NewProductHunt(httpClient *Client, apiToken string, minVotes int) *ProductHunt {
	if minVotes <= 0 {
		minVotes = 10
	}
	return &ProductHunt{http: httpClient, apiToken: apiToken, minVotes: minVotes, now: time.Now}
}

func (p *ProductHunt) Meta() Meta {
	return Meta{
		Name:        "ph",
		DisplayName: "Product Hunt",
		Description: "The newest and hottest tech products and startup launches",
		APIEndpoint: phSiteBase,
		MinScore:    p.minVotes,
		MaxPosts:    DefaultMaxPosts,
	}
}

func (p *ProductHunt) ScorePolicy() ScorePolicy {
	return ScorePolicy{Mode: UpdateIncreaseOnly, Threshold: 30}
}

func (p *ProductHunt) Fetch(ctx context.Context) ([]Candidate, error) {
	var products []phProduct

	if p.apiToken != "" {
		products = p.fetchAPI(ctx)
	}
	if len(products) == 0 {
		var err error
		products, err = p.fetchHomepage(ctx)
		if err != nil {
			return nil, fmt.Errorf("producthunt: %w", err)
		}
	}

	var valid []phProduct
	for _, prod := range products {
		if prod.VotesCount >= p.minVotes && prod.Name != "" {
			valid = append(valid, prod)
		}
	}
	sort.Slice(valid, func(i, j int) bool { return valid[i].VotesCount > valid[j].VotesCount })

	firstSeen := FirstSeenDate(p.now())

	cands := make([]Candidate, 0, len(valid))
	for _, prod := range valid {
		title := prod.Name
		if prod.Tagline != "" {
			title = prod.Name + " - " + prod.Tagline
		}

		pageURL := phSiteBase + "/posts/" + prod.Slug
		sourceURL := prod.WebsiteURL
		if sourceURL == "" {
			sourceURL = pageURL
		}

		tags := prod.Topics
		if len(tags) > 3 {
			tags = tags[:3]
		}
		if len(tags) == 0 {
			tags = []string{"Product"}
		}

		cands = append(cands, Candidate{
			ExternalID: prod.ID,
			Title:      title,
			Lang:       "en",
			SourceURL:  sourceURL,
			OriginURL:  pageURL,
			// Outbound links are tracking redirects, so the real domain
			// cannot be recovered from them.
			SourceDomain: "producthunt.com",
			ThumbnailURL: prod.ThumbnailURL,
			Score:        prod.VotesCount,
			Tags:         tags,
			PublishedAt:  firstSeen,
		})
	}
	return cands, nil
}

func (p *ProductHunt) fetchAPI(ctx context.Context) []phProduct {
	var resp struct {
		Data struct {
			Posts struct {
				Edges []struct {
					Node struct {
						ID         string `json:"id"`
						Name       string `json:"name"`
						Slug       string `json:"slug"`
						Tagline    string `json:"tagline"`
						Website    string `json:"website"`
						VotesCount int    `json:"votesCount"`
						Thumbnail  struct {
							URL string `json:"url"`
						} `json:"thumbnail"`
						Media []struct {
							URL  string `json:"url"`
							Type string `json:"type"`
						} `json:"media"`
						Topics struct {
							Edges []struct {
								Node struct {
									Name string `json:"name"`
								} `json:"node"`
							} `json:"edges"`
						} `json:"topics"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"posts"`
		} `json:"data"`
	}

	body := map[string]string{"query": phGraphQLQuery}
	headers := map[string]string{"Authorization": "Bearer " + p.apiToken}
	if err := p.http.PostJSON(ctx, phAPIBaseURL, body, &resp, headers); err != nil {
		return nil
	}

	var products []phProduct
	for _, edge := range resp.Data.Posts.Edges {
		n := edge.Node

		thumbnail := n.Thumbnail.URL
		for _, m := range n.Media {
			if m.Type == "image" {
				thumbnail = m.URL
				break
			}
		}

		var topics []string
		for _, t := range n.Topics.Edges {
			topics = append(topics, t.Node.Name)
		}

		slug := n.Slug
		if slug == "" {
			slug = n.ID
		}

		products = append(products, phProduct{
			ID:           n.ID,
			Name:         n.Name,
			Slug:         slug,
			Tagline:      n.Tagline,
			WebsiteURL:   n.Website,
			ThumbnailURL: thumbnail,
			VotesCount:   n.VotesCount,
			Topics:       topics,
		})
	}
	return products
}

func (p *ProductHunt) fetchHomepage(ctx context.Context) ([]phProduct, error) {
	headers := map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		"Accept":     "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	}
	body, err := p.http.Get(ctx, phSiteBaseURL, headers)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}

	var products []phProduct
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		content := s.Text()
		if !strings.Contains(content, "__NEXT_DATA__") {
			return true
		}
		match := phNextDataRe.FindStringSubmatch(content)
		if match == nil {
			return true
		}
		var data any
		if err := json.Unmarshal([]byte(match[1]), &data); err != nil {
			return true
		}
		products = phWalkNextData(data, 0)
		return len(products) == 0
	})

	if len(products) > 0 {
		return products, nil
	}

	// Last resort: scrape the rendered post list.
	doc.Find(`[data-test="post-item"]`).Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find(`[data-test="post-name"]`).Text())
		tagline := strings.TrimSpace(s.Find(`[data-test="post-tagline"]`).Text())
		href, _ := s.Find("a").First().Attr("href")
		votes := phParseVotes(s.Find(`[data-test="vote-button"]`).Text())

		if name == "" || href == "" {
			return
		}
		slug := strings.TrimPrefix(href, "/posts/")
		products = append(products, phProduct{
			ID:         slug,
			Name:       name,
			Slug:       slug,
			Tagline:    tagline,
			VotesCount: votes,
		})
	})

	return products, nil
}

// phWalkNextData looks for product-shaped objects anywhere inside the
// Next.js page payload. The structure shifts between deploys, so shape
// matters more than location.
func phWalkNextData(node any, depth int) []phProduct {
	if depth > 10 {
		return nil
	}

	var products []phProduct
	switch v := node.(type) {
	case map[string]any:
		if p, ok := phProductFromMap(v); ok {
			products = append(products, p)
		}
		for _, child := range v {
			products = append(products, phWalkNextData(child, depth+1)...)
		}
	case []any:
		for _, child := range v {
			products = append(products, phWalkNextData(child, depth+1)...)
		}
	}
	return products
}

func phProductFromMap(m map[string]any) (phProduct, bool) {
	name, _ := m["name"].(string)
	tagline, _ := m["tagline"].(string)
	_, hasVotes := m["votesCount"]
	if !hasVotes {
		_, hasVotes = m["votes_count"]
	}
	if name == "" || tagline == "" || !hasVotes {
		return phProduct{}, false
	}

	slug := phString(m["slug"])
	if slug == "" {
		slug = phString(m["id"])
	}

	p := phProduct{
		ID:         phString(m["id"]),
		Name:       name,
		Slug:       slug,
		Tagline:    tagline,
		WebsiteURL: phString(m["website"]),
		VotesCount: phInt(m["votesCount"]) + phInt(m["votes_count"]),
	}
	if p.ID == "" {
		p.ID = slug
	}
	if thumb, ok := m["thumbnail"].(map[string]any); ok {
		p.ThumbnailURL = phString(thumb["url"])
	}
	if topics, ok := m["topics"].([]any); ok {
		for _, t := range topics {
			switch tv := t.(type) {
			case string:
				p.Topics = append(p.Topics, tv)
			case map[string]any:
				if n := phString(tv["name"]); n != "" {
					p.Topics = append(p.Topics, n)
				}
			}
		}
	}
	return p, true
}

func phString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

func phInt(v any) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}

func phParseVotes(text string) int {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n, _ := strconv.Atoi(digits.String())
	return n
}
