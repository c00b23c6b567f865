// Package source implements one driver per external content origin.
// Each driver fetches, normalizes, and filters its origin's trending
// listing; the shared reconcile/evict/log skeleton lives in the
// pipeline package.
package source

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// DefaultMaxPosts is the per-source retention cap applied when a source
// row is first created.
const DefaultMaxPosts = 300

// Meta describes one source: stable name, display fields, and the
// defaults written to its row on first sighting.
type Meta struct {
	Name        string
	DisplayName string
	Description string
	APIEndpoint string
	MinScore    int
	MaxPosts    int
}

// Candidate is a normalized item produced by a driver, ready for
// reconciliation against storage.
type Candidate struct {
	ExternalID   string
	Title        string
	Summary      string
	Lang         string // original language code: "en", "zh", "ja"
	SourceURL    string
	OriginURL    string
	SourceDomain string
	ThumbnailURL string
	Author       string
	AuthorURL    string
	Score        int
	Tags         []string
	PublishedAt  time.Time
}

// UpdateMode selects how a driver's score-update threshold is compared.
type UpdateMode int

const (
	// UpdateNever suits sources that carry no popularity signal.
	UpdateNever UpdateMode = iota
	// UpdateIncreaseOnly triggers when newScore - old > threshold.
	UpdateIncreaseOnly
	// UpdateAbsoluteDelta triggers when |newScore - old| > threshold.
	UpdateAbsoluteDelta
)

// ScorePolicy is a driver's dead-band debounce for re-seen items: a
// stored score changes only when the delta strictly exceeds Threshold
// under Mode.
type ScorePolicy struct {
	Mode      UpdateMode
	Threshold int
}

// Driver fetches one origin's trending listing as normalized candidates.
type Driver interface {
	// Meta returns the source description and first-sighting defaults.
	Meta() Meta

	// Fetch retrieves, normalizes, and filters the origin's current
	// listing. A transport failure fails the whole run; a malformed
	// single item is skipped.
	Fetch(ctx context.Context) ([]Candidate, error)

	// ScorePolicy returns the source's score-update debounce.
	ScorePolicy() ScorePolicy
}

// Domain extracts the hostname from rawURL with a leading "www."
// stripped, falling back when the URL does not parse.
func Domain(rawURL, fallback string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return fallback
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// TruncateToMinute drops seconds and finer so same-batch items without a
// native timestamp compare equal and sort secondarily by score.
func TruncateToMinute(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// FirstSeenDate is the publication timestamp used by sources whose
// listing has no meaningful native time: midnight UTC of the fetch day,
// so one day's batch ties on time and orders by score.
func FirstSeenDate(now time.Time) time.Time {
	return now.UTC().Truncate(24 * time.Hour)
}
