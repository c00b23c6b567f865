package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Fetch log statuses.
const (
	FetchStatusSuccess = "success"
	FetchStatusFailed  = "failed"
)

// FetchLogEntry is one appended audit record for an adapter run.
type FetchLogEntry struct {
	SourceName string
	Status     string
	ItemsCount int
	ErrorMsg   string
	Duration   time.Duration
	CreatedAt  time.Time
}

// AppendFetchLog records the outcome of one adapter run. Rows are never
// mutated or deleted by this package.
func (s *Store) AppendFetchLog(ctx context.Context, entry FetchLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fetch_logs (id, source_name, status, items_count, error_msg, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), entry.SourceName, entry.Status, entry.ItemsCount,
		nullString(entry.ErrorMsg), entry.Duration.Milliseconds(), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("append fetch log: %w", err)
	}
	return nil
}

// RecentFetchLogs returns the most recent log entries for a source.
func (s *Store) RecentFetchLogs(ctx context.Context, sourceName string, limit int) ([]FetchLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source_name, status, items_count, error_msg, duration_ms, created_at
		FROM fetch_logs
		WHERE source_name = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, sourceName, limit)
	if err != nil {
		return nil, fmt.Errorf("query fetch logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []FetchLogEntry
	for rows.Next() {
		var (
			entry      FetchLogEntry
			errorMsg   sql.NullString
			durationMS int64
			createdAt  string
		)
		if err := rows.Scan(&entry.SourceName, &entry.Status, &entry.ItemsCount, &errorMsg, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan fetch log: %w", err)
		}
		entry.ErrorMsg = errorMsg.String
		entry.Duration = time.Duration(durationMS) * time.Millisecond
		if entry.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
