package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Translation is the translated title/summary pair for one locale.
type Translation struct {
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
}

// Translations maps a locale code to its translation.
type Translations map[string]Translation

// ScoreUpdateMode selects how UpdateScoreIfThreshold compares the new
// score against the stored one.
type ScoreUpdateMode int

const (
	// ScoreIncreaseOnly updates only when newScore - old > threshold.
	ScoreIncreaseOnly ScoreUpdateMode = iota
	// ScoreAbsoluteDelta updates when |newScore - old| > threshold.
	ScoreAbsoluteDelta
)

// Post is one normalized content item.
type Post struct {
	ID              string
	SourceID        string
	ExternalID      string
	TitleOriginal   string
	SummaryOriginal string
	OriginalLang    string
	SourceURL       string
	OriginURL       string
	SourceDomain    string
	ThumbnailURL    string
	Author          string
	AuthorURL       string
	Score           int
	Translations    Translations
	IsTranslated    bool
	TranslatedAt    time.Time
	Tags            []string
	PublishedAt     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PostInput is the insertable shape of a post.
type PostInput struct {
	SourceID        string
	ExternalID      string
	TitleOriginal   string
	SummaryOriginal string
	OriginalLang    string
	SourceURL       string
	OriginURL       string
	SourceDomain    string
	ThumbnailURL    string
	Author          string
	AuthorURL       string
	Score           int
	Translations    Translations
	IsTranslated    bool
	TranslatedAt    time.Time
	Tags            []string
	PublishedAt     time.Time
}

// PostExists reports whether a post with the given (source, external id)
// pair exists. It reads committed state directly; callers rely on the
// single-writer-per-source-run assumption for freshness.
func (s *Store) PostExists(ctx context.Context, sourceID, externalID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE source_id = ? AND external_id = ?`,
		sourceID, externalID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check post exists: %w", err)
	}
	return n > 0, nil
}

// PostBySourceExternalID returns the post identified by the (source,
// external id) pair, or ErrNotFound.
func (s *Store) PostBySourceExternalID(ctx context.Context, sourceID, externalID string) (Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_id, external_id, title_original, summary_original, original_lang,
			source_url, origin_url, source_domain, thumbnail_url, author, author_url,
			score, translations, is_translated, translated_at, tags, published_at,
			created_at, updated_at
		FROM posts WHERE source_id = ? AND external_id = ?
	`, sourceID, externalID)

	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, fmt.Errorf("post %s/%s: %w", sourceID, externalID, ErrNotFound)
	}
	return post, err
}

// InsertPost inserts a new post. A duplicate (source, external id) pair
// fails with ErrDuplicatePost; the unique index is the safety net behind
// the adapter's PostExists probe.
func (s *Store) InsertPost(ctx context.Context, in PostInput) (Post, error) {
	if strings.TrimSpace(in.SourceID) == "" {
		return Post{}, errors.New("source_id is required")
	}
	if strings.TrimSpace(in.ExternalID) == "" {
		return Post{}, errors.New("external_id is required")
	}
	if strings.TrimSpace(in.TitleOriginal) == "" {
		return Post{}, errors.New("title is required")
	}
	if strings.TrimSpace(in.SourceURL) == "" {
		return Post{}, errors.New("source_url is required")
	}
	if in.PublishedAt.IsZero() {
		return Post{}, errors.New("published_at is required")
	}

	lang := in.OriginalLang
	if lang == "" {
		lang = "en"
	}

	translations := in.Translations
	if translations == nil {
		translations = Translations{}
	}
	translationsJSON, err := json.Marshal(translations)
	if err != nil {
		return Post{}, fmt.Errorf("encode translations: %w", err)
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return Post{}, fmt.Errorf("encode tags: %w", err)
	}

	var translatedAt sql.NullString
	if !in.TranslatedAt.IsZero() {
		translatedAt = sql.NullString{String: formatTime(in.TranslatedAt), Valid: true}
	}

	id := uuid.NewString()
	now := formatTime(time.Now())

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO posts (
			id, source_id, external_id, title_original, summary_original, original_lang,
			source_url, origin_url, source_domain, thumbnail_url, author, author_url,
			score, translations, is_translated, translated_at, tags, published_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id, in.SourceID, in.ExternalID, in.TitleOriginal, nullString(in.SummaryOriginal), lang,
		in.SourceURL, nullString(in.OriginURL), in.SourceDomain, nullString(in.ThumbnailURL),
		nullString(in.Author), nullString(in.AuthorURL),
		in.Score, string(translationsJSON), boolToInt(in.IsTranslated), translatedAt,
		string(tagsJSON), formatTime(in.PublishedAt), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Post{}, fmt.Errorf("post %s/%s: %w", in.SourceID, in.ExternalID, ErrDuplicatePost)
		}
		return Post{}, fmt.Errorf("insert post: %w", err)
	}

	return s.postByID(ctx, id)
}

// UpdateScoreIfThreshold updates a post's score and updated_at when the
// delta against the stored score strictly exceeds threshold under the
// given mode. Equal-or-less deltas are a no-op. Returns whether the row
// was updated.
func (s *Store) UpdateScoreIfThreshold(ctx context.Context, postID string, newScore, threshold int, mode ScoreUpdateMode) (bool, error) {
	var oldScore int
	err := s.db.QueryRowContext(ctx, `SELECT score FROM posts WHERE id = ?`, postID).Scan(&oldScore)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("read score: %w", err)
	}

	delta := newScore - oldScore
	if mode == ScoreAbsoluteDelta && delta < 0 {
		delta = -delta
	}
	if delta <= threshold {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE posts SET score = ?, updated_at = ? WHERE id = ?`,
		newScore, formatTime(time.Now()), postID,
	)
	if err != nil {
		return false, fmt.Errorf("update score: %w", err)
	}
	return true, nil
}

// EvictExcess deletes every post for the source beyond position maxPosts
// in the retention order (published_at DESC, score DESC, id). Safe to
// call when nothing needs evicting; returns the number of rows deleted.
func (s *Store) EvictExcess(ctx context.Context, sourceID string, maxPosts int) (int, error) {
	if maxPosts <= 0 {
		return 0, errors.New("max_posts must be positive")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM posts
		WHERE source_id = ?
		ORDER BY published_at DESC, score DESC, id
	`, sourceID)
	if err != nil {
		return 0, fmt.Errorf("query post ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scan post id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate post ids: %w", err)
	}

	if len(ids) <= maxPosts {
		return 0, nil
	}
	excess := ids[maxPosts:]

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin eviction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range excess {
		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id); err != nil {
			return 0, fmt.Errorf("delete post %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit eviction: %w", err)
	}

	return len(excess), nil
}

// ListPostsBySource returns posts for the named source in the retention
// sort order. This is the read surface the presentation layer pages over.
func (s *Store) ListPostsBySource(ctx context.Context, sourceName string, limit, offset int) ([]Post, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.source_id, p.external_id, p.title_original, p.summary_original, p.original_lang,
			p.source_url, p.origin_url, p.source_domain, p.thumbnail_url, p.author, p.author_url,
			p.score, p.translations, p.is_translated, p.translated_at, p.tags, p.published_at,
			p.created_at, p.updated_at
		FROM posts p
		JOIN sources s ON s.id = p.source_id
		WHERE s.name = ?
		ORDER BY p.published_at DESC, p.score DESC, p.id
		LIMIT ? OFFSET ?
	`, sourceName, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var posts []Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// ListUntranslated returns posts still awaiting translation, hottest
// first, for the catch-up sweep.
func (s *Store) ListUntranslated(ctx context.Context, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_id, external_id, title_original, summary_original, original_lang,
			source_url, origin_url, source_domain, thumbnail_url, author, author_url,
			score, translations, is_translated, translated_at, tags, published_at,
			created_at, updated_at
		FROM posts
		WHERE is_translated = 0
		ORDER BY score DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query untranslated: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var posts []Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// SetTranslations stores a post's translation map and marks it translated.
func (s *Store) SetTranslations(ctx context.Context, postID string, translations Translations) error {
	translationsJSON, err := json.Marshal(translations)
	if err != nil {
		return fmt.Errorf("encode translations: %w", err)
	}

	now := formatTime(time.Now())
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET translations = ?, is_translated = 1, translated_at = ?, updated_at = ?
		WHERE id = ?
	`, string(translationsJSON), now, now, postID)
	if err != nil {
		return fmt.Errorf("set translations: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	return nil
}

func (s *Store) postByID(ctx context.Context, id string) (Post, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_id, external_id, title_original, summary_original, original_lang,
			source_url, origin_url, source_domain, thumbnail_url, author, author_url,
			score, translations, is_translated, translated_at, tags, published_at,
			created_at, updated_at
		FROM posts WHERE id = ?
	`, id)

	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return post, err
}

func scanPost(row rowScanner) (Post, error) {
	var (
		post                                            Post
		summary, originURL, thumbnail, author, authorURL sql.NullString
		translationsJSON, tagsJSON                      string
		isTranslated                                    int
		translatedAt                                    sql.NullString
		publishedAt, createdAt, updatedAt               string
	)

	err := row.Scan(
		&post.ID, &post.SourceID, &post.ExternalID, &post.TitleOriginal, &summary, &post.OriginalLang,
		&post.SourceURL, &originURL, &post.SourceDomain, &thumbnail, &author, &authorURL,
		&post.Score, &translationsJSON, &isTranslated, &translatedAt, &tagsJSON, &publishedAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Post{}, err
		}
		return Post{}, fmt.Errorf("scan post: %w", err)
	}

	post.SummaryOriginal = summary.String
	post.OriginURL = originURL.String
	post.ThumbnailURL = thumbnail.String
	post.Author = author.String
	post.AuthorURL = authorURL.String
	post.IsTranslated = isTranslated == 1

	if err := json.Unmarshal([]byte(translationsJSON), &post.Translations); err != nil {
		return Post{}, fmt.Errorf("decode translations: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &post.Tags); err != nil {
		return Post{}, fmt.Errorf("decode tags: %w", err)
	}

	if translatedAt.Valid {
		if post.TranslatedAt, err = parseTime(translatedAt.String); err != nil {
			return Post{}, fmt.Errorf("parse translated_at: %w", err)
		}
	}
	if post.PublishedAt, err = parseTime(publishedAt); err != nil {
		return Post{}, fmt.Errorf("parse published_at: %w", err)
	}
	if post.CreatedAt, err = parseTime(createdAt); err != nil {
		return Post{}, fmt.Errorf("parse created_at: %w", err)
	}
	if post.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Post{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return post, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
