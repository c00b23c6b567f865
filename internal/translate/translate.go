// Package translate renders post titles and summaries into every
// supported locale, backed by a persistent cache so repeated fetch
// runs never pay for the same text twice.
package translate

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"buzzing/internal/store"
)

// Locales are the supported reader languages.
var Locales = []string{"en", "zh", "ja"}

// providerPause is the delay after each uncached provider call. Cached
// hits skip it.
const providerPause = 200 * time.Millisecond

// Provider performs a single machine translation.
type Provider interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Cache persists finished translations. *store.Store satisfies it.
type Cache interface {
	LookupTranslation(ctx context.Context, textHash, targetLang string) (string, bool, error)
	SaveTranslation(ctx context.Context, textHash, targetLang, originalText, translatedText string) error
}

// Result is a single translated text.
type Result struct {
	Text      string
	FromCache bool
}

// Engine translates through a Provider with cache lookups in front.
type Engine struct {
	provider Provider
	cache    Cache
	logger   *slog.Logger
	pause    time.Duration
}

func NewEngine(provider Provider, cache Cache, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{provider: provider, cache: cache, logger: logger, pause: providerPause}
}

// hashText keys the cache on both the text and the target language.
func hashText(text, targetLang string) string {
	sum := md5.Sum([]byte(text + ":" + targetLang))
	return hex.EncodeToString(sum[:])
}

// Translate returns text in targetLang. Texts too short to translate
// and same-language requests pass through untouched. A provider
// failure degrades to the original text and is not cached, so a later
// run can retry.
func (e *Engine) Translate(ctx context.Context, text, targetLang, sourceLang string) (Result, error) {
	if len(strings.TrimSpace(text)) < 2 {
		return Result{Text: text}, nil
	}
	if sourceLang == targetLang {
		return Result{Text: text}, nil
	}

	hash := hashText(text, targetLang)
	if cached, ok, err := e.cache.LookupTranslation(ctx, hash, targetLang); err != nil {
		return Result{}, err
	} else if ok {
		return Result{Text: cached, FromCache: true}, nil
	}

	translated, err := e.provider.Translate(ctx, text, sourceLang, targetLang)
	if err != nil {
		e.logger.Warn("translation failed, keeping original",
			"source", sourceLang, "target", targetLang, "error", err)
		return Result{Text: text}, nil
	}

	if err := e.cache.SaveTranslation(ctx, hash, targetLang, text, translated); err != nil {
		e.logger.Warn("translation cache write failed", "error", err)
	}
	return Result{Text: translated}, nil
}

// ToAllLocales translates text into every locale. The source locale
// keeps the original verbatim. Uncached provider calls are spaced out
// to stay under rate limits.
func (e *Engine) ToAllLocales(ctx context.Context, text, sourceLang string) (map[string]string, error) {
	results := map[string]string{sourceLang: text}

	for _, locale := range Locales {
		if locale == sourceLang {
			continue
		}

		res, err := e.Translate(ctx, text, locale, sourceLang)
		if err != nil {
			return nil, err
		}
		results[locale] = res.Text

		if !res.FromCache {
			if err := e.sleep(ctx); err != nil {
				return nil, err
			}
		}
	}
	return results, nil
}

// TranslatePost builds the full per-locale translation set for a post.
func (e *Engine) TranslatePost(ctx context.Context, title, summary, sourceLang string) (store.Translations, error) {
	if sourceLang == "" {
		sourceLang = "en"
	}

	titles, err := e.ToAllLocales(ctx, title, sourceLang)
	if err != nil {
		return nil, err
	}

	var summaries map[string]string
	if summary != "" {
		summaries, err = e.ToAllLocales(ctx, summary, sourceLang)
		if err != nil {
			return nil, err
		}
	}

	translations := make(store.Translations, len(Locales))
	for _, locale := range Locales {
		translations[locale] = store.Translation{
			Title:   titles[locale],
			Summary: summaries[locale],
		}
	}
	return translations, nil
}

// Batch translates several texts into one target language.
func (e *Engine) Batch(ctx context.Context, texts []string, targetLang, sourceLang string) ([]Result, error) {
	results := make([]Result, 0, len(texts))
	for _, text := range texts {
		res, err := e.Translate(ctx, text, targetLang, sourceLang)
		if err != nil {
			return nil, err
		}
		results = append(results, res)

		if !res.FromCache {
			if err := e.sleep(ctx); err != nil {
				return nil, err
			}
		}
	}
	return results, nil
}

func (e *Engine) sleep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(e.pause):
		return nil
	}
}
