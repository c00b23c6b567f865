package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LookupTranslation returns the cached translation for a (text hash,
// target language) pair, if one exists.
func (s *Store) LookupTranslation(ctx context.Context, textHash, targetLang string) (string, bool, error) {
	var translated string
	err := s.db.QueryRowContext(ctx,
		`SELECT translated_text FROM translation_cache WHERE text_hash = ? AND target_lang = ?`,
		textHash, targetLang,
	).Scan(&translated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup translation: %w", err)
	}
	return translated, true, nil
}

// SaveTranslation inserts a cache entry. Entries are write-once: a
// concurrent insert of the same (hash, lang) pair is ignored, never
// overwritten.
func (s *Store) SaveTranslation(ctx context.Context, textHash, targetLang, originalText, translatedText string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO translation_cache (id, text_hash, target_lang, original_text, translated_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(text_hash, target_lang) DO NOTHING
	`, uuid.NewString(), textHash, targetLang, originalText, translatedText, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("save translation: %w", err)
	}
	return nil
}
