package source

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
)

// Feed is a generic RSS driver. News feeds carry no score, so posts
// from these sources are never updated after insert.
type Feed struct {
	parser     *gofeed.Parser
	meta       Meta
	feedURLs   []string
	limit      int
	externalID func(link string) string
	thumbnail  func(item *gofeed.Item) string
	tags       func(item *gofeed.Item) []string
}

func newFeedParser() *gofeed.Parser {
	fp := gofeed.NewParser()
	fp.UserAgent = userAgent
	fp.Client = &http.Client{Timeout: 30 * time.Second}
	return fp
}

func (f *Feed) Meta() Meta { return f.meta }

func (f *Feed) ScorePolicy() ScorePolicy {
	return ScorePolicy{Mode: UpdateNever}
}

func (f *Feed) Fetch(ctx context.Context) ([]Candidate, error) {
	var items []*gofeed.Item

	if len(f.feedURLs) == 1 {
		feed, err := f.parser.ParseURLWithContext(f.feedURLs[0], ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.meta.Name, err)
		}
		items = feed.Items
	} else {
		// Multi-feed sources merge in parallel; one dead feed does not
		// sink the rest.
		merged := make([][]*gofeed.Item, len(f.feedURLs))
		g, gctx := errgroup.WithContext(ctx)
		for i, url := range f.feedURLs {
			i, url := i, url
			g.Go(func() error {
				feed, err := f.parser.ParseURLWithContext(url, gctx)
				if err != nil {
					return nil
				}
				merged[i] = feed.Items
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("%s: %w", f.meta.Name, err)
		}

		seen := make(map[string]bool)
		for _, feedItems := range merged {
			for _, item := range feedItems {
				if item.Link == "" || seen[item.Link] {
					continue
				}
				seen[item.Link] = true
				items = append(items, item)
			}
		}
		sort.Slice(items, func(i, j int) bool {
			return rssPubDate(items[i]).After(rssPubDate(items[j]))
		})
	}

	if len(items) > f.limit {
		items = items[:f.limit]
	}

	var cands []Candidate
	for _, item := range items {
		if item.Link == "" || item.Title == "" {
			continue
		}

		var thumbnail string
		if f.thumbnail != nil {
			thumbnail = f.thumbnail(item)
		}
		var tags []string
		if f.tags != nil {
			tags = f.tags(item)
		}

		cands = append(cands, Candidate{
			ExternalID:   f.externalID(item.Link),
			Title:        item.Title,
			Summary:      rssSummary(item),
			Lang:         "en",
			SourceURL:    item.Link,
			OriginURL:    item.Link,
			SourceDomain: Domain(item.Link, f.meta.Name),
			ThumbnailURL: thumbnail,
			Author:       rssAuthor(item),
			Tags:         tags,
			PublishedAt:  TruncateToMinute(rssPubDate(item)),
		})
	}
	return cands, nil
}

func rssPubDate(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Now().UTC()
}

func rssSummary(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	if r := []rune(item.Content); len(r) > 300 {
		return string(r[:300])
	}
	return item.Content
}

func rssAuthor(item *gofeed.Item) string {
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return strings.TrimSpace(item.DublinCoreExt.Creator[0])
	}
	if len(item.Authors) > 0 {
		return strings.TrimSpace(item.Authors[0].Name)
	}
	return ""
}

// rssSanitizeID is the fallback ID for links that match no pattern:
// strip to alphanumerics and keep the tail.
func rssSanitizeID(link string) string {
	var b strings.Builder
	for _, r := range link {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	s := b.String()
	if len(s) > 50 {
		s = s[len(s)-50:]
	}
	return s
}

// rssEnclosureImage pulls the first image enclosure off an item.
func rssEnclosureImage(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}

// rssMediaThumbnail digs a thumbnail out of the Media RSS extension.
func rssMediaThumbnail(item *gofeed.Item) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	for _, key := range []string{"thumbnail", "content"} {
		for _, ext := range media[key] {
			if url := ext.Attrs["url"]; url != "" {
				return url
			}
		}
	}
	return ""
}

const natureFeedURL = "https://www.nature.com/nature.rss"

var natureArticleIDRe = regexp.MustCompile(`/articles?/([\w-]+)`)

// NewNature fetches the latest research highlights from Nature's feed.
func NewNature(limit int) *Feed {
	if limit <= 0 {
		limit = 30
	}
	return &Feed{
		parser: newFeedParser(),
		meta: Meta{
			Name:        "nature",
			DisplayName: "Nature",
			Description: "The leading science journal's latest research and news",
			APIEndpoint: natureFeedURL,
			MinScore:    0,
			MaxPosts:    DefaultMaxPosts,
		},
		feedURLs: []string{natureFeedURL},
		limit:    limit,
		externalID: func(link string) string {
			if m := natureArticleIDRe.FindStringSubmatch(link); m != nil {
				return m[1]
			}
			return rssSanitizeID(link)
		},
	}
}

var skyNewsFeedURLs = []string{
	"https://feeds.skynews.com/feeds/rss/home.xml",
	"https://feeds.skynews.com/feeds/rss/uk.xml",
	"https://feeds.skynews.com/feeds/rss/world.xml",
	"https://feeds.skynews.com/feeds/rss/business.xml",
	"https://feeds.skynews.com/feeds/rss/technology.xml",
}

var skyNewsStoryIDRe = regexp.MustCompile(`/(\d+)$`)

// NewSkyNews merges the Sky News section feeds into one stream.
func NewSkyNews(limit int) *Feed {
	if limit <= 0 {
		limit = 30
	}
	return &Feed{
		parser: newFeedParser(),
		meta: Meta{
			Name:        "skynews",
			DisplayName: "Sky News",
			Description: "Round-the-clock reporting from the British broadcaster",
			APIEndpoint: skyNewsFeedURLs[0],
			MinScore:    0,
			MaxPosts:    DefaultMaxPosts,
		},
		feedURLs: skyNewsFeedURLs,
		limit:    limit,
		externalID: func(link string) string {
			if m := skyNewsStoryIDRe.FindStringSubmatch(link); m != nil {
				return m[1]
			}
			return rssSanitizeID(link)
		},
		thumbnail: rssEnclosureImage,
	}
}

const arsTechnicaFeedURL = "https://feeds.arstechnica.com/arstechnica/index"

var arsSlugRe = regexp.MustCompile(`/([^/]+)/?$`)

// NewArsTechnica fetches the Ars Technica front-page feed.
func NewArsTechnica(limit int) *Feed {
	if limit <= 0 {
		limit = 30
	}
	return &Feed{
		parser: newFeedParser(),
		meta: Meta{
			Name:        "arstechnica",
			DisplayName: "Ars Technica",
			Description: "In-depth technology news and analysis",
			APIEndpoint: arsTechnicaFeedURL,
			MinScore:    0,
			MaxPosts:    DefaultMaxPosts,
		},
		feedURLs: []string{arsTechnicaFeedURL},
		limit:    limit,
		externalID: func(link string) string {
			if m := arsSlugRe.FindStringSubmatch(strings.TrimSuffix(link, "/")); m != nil {
				return m[1]
			}
			return rssSanitizeID(link)
		},
		thumbnail: rssMediaThumbnail,
		tags: func(item *gofeed.Item) []string {
			tags := item.Categories
			if len(tags) > 5 {
				tags = tags[:5]
			}
			return tags
		},
	}
}
