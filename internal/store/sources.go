package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source is one configured external content origin.
type Source struct {
	ID          string
	Name        string
	DisplayName string
	Description string
	APIEndpoint string
	MinScore    int
	MaxPosts    int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SourceInput holds the adapter-supplied defaults used when a source row
// is created on first sighting.
type SourceInput struct {
	Name        string
	DisplayName string
	Description string
	APIEndpoint string
	MinScore    int
	MaxPosts    int
}

// GetOrCreateSource returns the source with the given name, inserting it
// with the supplied defaults if absent. The insert is conflict-ignoring,
// so concurrent callers racing on the same name all converge on one row.
func (s *Store) GetOrCreateSource(ctx context.Context, in SourceInput) (Source, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Source{}, errors.New("source name is required")
	}
	if in.MaxPosts <= 0 {
		return Source{}, errors.New("max_posts must be positive")
	}

	now := formatTime(time.Now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sources (id, name, display_name, description, api_endpoint, min_score, max_posts, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, uuid.NewString(), in.Name, in.DisplayName, nullString(in.Description), nullString(in.APIEndpoint), in.MinScore, in.MaxPosts, now, now)
	if err != nil {
		return Source{}, fmt.Errorf("insert source: %w", err)
	}

	return s.SourceByName(ctx, in.Name)
}

// SourceByName returns the source with the given stable name.
func (s *Store) SourceByName(ctx context.Context, name string) (Source, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, display_name, description, api_endpoint, min_score, max_posts, is_active, created_at, updated_at
		FROM sources WHERE name = ?
	`, name)

	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Source{}, fmt.Errorf("source %q: %w", name, ErrNotFound)
	}
	return src, err
}

// ListSources returns all sources ordered by name.
func (s *Store) ListSources(ctx context.Context) ([]Source, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, display_name, description, api_endpoint, min_score, max_posts, is_active, created_at, updated_at
		FROM sources ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sources []Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

func scanSource(row rowScanner) (Source, error) {
	var (
		src                   Source
		description, endpoint sql.NullString
		isActive              int
		createdAt, updatedAt  string
	)
	err := row.Scan(&src.ID, &src.Name, &src.DisplayName, &description, &endpoint,
		&src.MinScore, &src.MaxPosts, &isActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Source{}, err
		}
		return Source{}, fmt.Errorf("scan source: %w", err)
	}

	src.Description = description.String
	src.APIEndpoint = endpoint.String
	src.IsActive = isActive == 1
	if src.CreatedAt, err = parseTime(createdAt); err != nil {
		return Source{}, fmt.Errorf("parse created_at: %w", err)
	}
	if src.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Source{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return src, nil
}
