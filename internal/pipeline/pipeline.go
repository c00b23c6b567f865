// Package pipeline drives the fetch cycle: pull candidates from a
// source driver, reconcile them against stored posts, translate new
// arrivals, enforce the retention cap, and record the run.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"buzzing/internal/source"
	"buzzing/internal/store"
	"buzzing/internal/translate"
)

// Result summarizes one driver run.
type Result struct {
	Source   string
	Count    int // candidates that passed the driver's filters
	NewPosts int
	Updated  int
	Deleted  int
	Duration time.Duration
	Err      error
}

// Pipeline runs drivers against the store. A nil translation engine
// disables inline translation; posts then stay queued for the
// translate-pending sweep.
type Pipeline struct {
	store  *store.Store
	engine *translate.Engine
	logger *slog.Logger
	now    func() time.Time
}

func New(st *store.Store, engine *translate.Engine, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{store: st, engine: engine, logger: logger, now: time.Now}
}

// Run executes one full fetch cycle for a driver. The run is recorded
// in the fetch log whether it succeeds or fails; a transport failure
// surfaces in Result.Err and leaves stored posts untouched.
func (p *Pipeline) Run(ctx context.Context, drv source.Driver) Result {
	start := p.now()
	meta := drv.Meta()
	res := Result{Source: meta.Name}

	res.Err = p.run(ctx, drv, meta, &res)
	res.Duration = p.now().Sub(start)

	entry := store.FetchLogEntry{
		SourceName: meta.Name,
		Status:     store.FetchStatusSuccess,
		ItemsCount: res.NewPosts,
		Duration:   res.Duration,
	}
	if res.Err != nil {
		entry.Status = store.FetchStatusFailed
		entry.ItemsCount = 0
		entry.ErrorMsg = res.Err.Error()
	}
	if err := p.store.AppendFetchLog(ctx, entry); err != nil {
		p.logger.Error("fetch log write failed", "source", meta.Name, "error", err)
	}

	if res.Err != nil {
		p.logger.Error("fetch failed", "source", meta.Name, "error", res.Err, "duration", res.Duration)
	} else {
		p.logger.Info("fetch done", "source", meta.Name,
			"count", res.Count, "new", res.NewPosts, "updated", res.Updated,
			"deleted", res.Deleted, "duration", res.Duration)
	}
	return res
}

func (p *Pipeline) run(ctx context.Context, drv source.Driver, meta source.Meta, res *Result) error {
	src, err := p.store.GetOrCreateSource(ctx, store.SourceInput{
		Name:        meta.Name,
		DisplayName: meta.DisplayName,
		Description: meta.Description,
		APIEndpoint: meta.APIEndpoint,
		MinScore:    meta.MinScore,
		MaxPosts:    meta.MaxPosts,
	})
	if err != nil {
		return err
	}

	cands, err := drv.Fetch(ctx)
	if err != nil {
		return err
	}
	res.Count = len(cands)

	policy := drv.ScorePolicy()
	for _, cand := range cands {
		existing, err := p.store.PostBySourceExternalID(ctx, src.ID, cand.ExternalID)
		switch {
		case err == nil:
			updated, err := p.applyScorePolicy(ctx, existing, cand, policy)
			if err != nil {
				return err
			}
			if updated {
				res.Updated++
			}
		case errors.Is(err, store.ErrNotFound):
			inserted, err := p.insert(ctx, src.ID, cand)
			if err != nil {
				return err
			}
			if inserted {
				res.NewPosts++
			}
		default:
			return err
		}
	}

	maxPosts := src.MaxPosts
	if maxPosts <= 0 {
		maxPosts = source.DefaultMaxPosts
	}
	res.Deleted, err = p.store.EvictExcess(ctx, src.ID, maxPosts)
	return err
}

func (p *Pipeline) applyScorePolicy(ctx context.Context, existing store.Post, cand source.Candidate, policy source.ScorePolicy) (bool, error) {
	var mode store.ScoreUpdateMode
	switch policy.Mode {
	case source.UpdateNever:
		return false, nil
	case source.UpdateIncreaseOnly:
		mode = store.ScoreIncreaseOnly
	case source.UpdateAbsoluteDelta:
		mode = store.ScoreAbsoluteDelta
	}
	return p.store.UpdateScoreIfThreshold(ctx, existing.ID, cand.Score, policy.Threshold, mode)
}

// insert stores one new candidate, translating it inline when an
// engine is configured. Losing the insert race to a concurrent run of
// the same source is not an error.
func (p *Pipeline) insert(ctx context.Context, sourceID string, cand source.Candidate) (bool, error) {
	in := store.PostInput{
		SourceID:        sourceID,
		ExternalID:      cand.ExternalID,
		TitleOriginal:   cand.Title,
		SummaryOriginal: cand.Summary,
		OriginalLang:    cand.Lang,
		SourceURL:       cand.SourceURL,
		OriginURL:       cand.OriginURL,
		SourceDomain:    cand.SourceDomain,
		ThumbnailURL:    cand.ThumbnailURL,
		Author:          cand.Author,
		AuthorURL:       cand.AuthorURL,
		Score:           cand.Score,
		Tags:            cand.Tags,
		PublishedAt:     cand.PublishedAt,
	}

	if p.engine != nil {
		translations, err := p.engine.TranslatePost(ctx, cand.Title, cand.Summary, cand.Lang)
		if err != nil {
			p.logger.Warn("translation failed, post queued for sweep",
				"external_id", cand.ExternalID, "error", err)
		} else {
			in.Translations = translations
			in.IsTranslated = true
			in.TranslatedAt = p.now()
		}
	}

	if _, err := p.store.InsertPost(ctx, in); err != nil {
		if errors.Is(err, store.ErrDuplicatePost) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RunAll runs every driver concurrently. One failed source never
// blocks the others; each result carries its own error.
func (p *Pipeline) RunAll(ctx context.Context, drivers []source.Driver) []Result {
	results := make([]Result, len(drivers))

	var wg sync.WaitGroup
	for i, drv := range drivers {
		i, drv := i, drv
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = p.Run(ctx, drv)
		}()
	}
	wg.Wait()
	return results
}

// TranslatePending translates posts that missed inline translation,
// hottest first. Per-post failures are skipped so one bad text cannot
// stall the sweep.
func (p *Pipeline) TranslatePending(ctx context.Context, limit int) (int, error) {
	if p.engine == nil {
		return 0, errors.New("no translation engine configured")
	}

	posts, err := p.store.ListUntranslated(ctx, limit)
	if err != nil {
		return 0, err
	}

	var done int
	for _, post := range posts {
		translations, err := p.engine.TranslatePost(ctx, post.TitleOriginal, post.SummaryOriginal, post.OriginalLang)
		if err != nil {
			p.logger.Warn("sweep translation failed", "post", post.ID, "error", err)
			continue
		}
		if err := p.store.SetTranslations(ctx, post.ID, translations); err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}
