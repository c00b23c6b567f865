package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"buzzing/internal/source"
	"buzzing/internal/store"
	"buzzing/internal/translate"
)

type stubDriver struct {
	meta   source.Meta
	policy source.ScorePolicy
	cands  []source.Candidate
	err    error
}

func (d *stubDriver) Meta() source.Meta               { return d.meta }
func (d *stubDriver) ScorePolicy() source.ScorePolicy { return d.policy }

func (d *stubDriver) Fetch(context.Context) ([]source.Candidate, error) {
	return d.cands, d.err
}

type echoProvider struct{}

func (echoProvider) Translate(_ context.Context, text, _, targetLang string) (string, error) {
	return "[" + targetLang + "] " + text, nil
}

func newTestPipeline(t *testing.T) (*Pipeline, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return New(s, nil, nil), s
}

func testCandidate(id string, score int, publishedAt time.Time) source.Candidate {
	return source.Candidate{
		ExternalID:   id,
		Title:        "Post " + id,
		Lang:         "en",
		SourceURL:    "https://example.com/" + id,
		SourceDomain: "example.com",
		Score:        score,
		PublishedAt:  publishedAt,
	}
}

func testDriver(name string, cands ...source.Candidate) *stubDriver {
	return &stubDriver{
		meta: source.Meta{
			Name:        name,
			DisplayName: "Test " + name,
			APIEndpoint: "https://example.com/api",
			MaxPosts:    source.DefaultMaxPosts,
		},
		policy: source.ScorePolicy{Mode: source.UpdateIncreaseOnly, Threshold: 10},
		cands:  cands,
	}
}

func TestRun_InsertsAndDedups(t *testing.T) {
	p, s := newTestPipeline(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	drv := testDriver("stub",
		testCandidate("a", 50, now),
		testCandidate("b", 80, now.Add(-time.Hour)),
	)

	res := p.Run(ctx, drv)
	if res.Err != nil {
		t.Fatalf("run: %v", res.Err)
	}
	want := Result{Source: "stub", Count: 2, NewPosts: 2}
	if diff := cmp.Diff(want, res, cmpopts.IgnoreFields(Result{}, "Duration")); diff != "" {
		t.Errorf("first run mismatch (-want +got):\n%s", diff)
	}

	// Same candidates again: nothing new, and score bumps within the
	// threshold do not count as updates.
	drv.cands[0].Score = 55
	res = p.Run(ctx, drv)
	want = Result{Source: "stub", Count: 2}
	if diff := cmp.Diff(want, res, cmpopts.IgnoreFields(Result{}, "Duration")); diff != "" {
		t.Errorf("second run mismatch (-want +got):\n%s", diff)
	}

	posts, err := s.ListPostsBySource(ctx, "stub", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("stored posts = %d, want 2", len(posts))
	}
}

func TestRun_ScoreUpdateOverThreshold(t *testing.T) {
	p, s := newTestPipeline(t)
	ctx := context.Background()
	now := time.Now().UTC()

	drv := testDriver("stub", testCandidate("a", 50, now))
	if res := p.Run(ctx, drv); res.Err != nil {
		t.Fatalf("seed run: %v", res.Err)
	}

	drv.cands[0].Score = 75
	res := p.Run(ctx, drv)
	if res.Err != nil {
		t.Fatalf("run: %v", res.Err)
	}
	if res.Updated != 1 || res.NewPosts != 0 {
		t.Errorf("res = %+v, want one update", res)
	}

	posts, err := s.ListPostsBySource(ctx, "stub", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if posts[0].Score != 75 {
		t.Errorf("stored score = %d, want 75", posts[0].Score)
	}
}

func TestRun_UpdateNever(t *testing.T) {
	p, s := newTestPipeline(t)
	ctx := context.Background()

	drv := testDriver("stub", testCandidate("a", 50, time.Now().UTC()))
	drv.policy = source.ScorePolicy{Mode: source.UpdateNever}
	if res := p.Run(ctx, drv); res.Err != nil {
		t.Fatalf("seed run: %v", res.Err)
	}

	drv.cands[0].Score = 500
	res := p.Run(ctx, drv)
	if res.Err != nil {
		t.Fatalf("run: %v", res.Err)
	}
	if res.Updated != 0 {
		t.Errorf("updated = %d, want 0", res.Updated)
	}

	posts, err := s.ListPostsBySource(ctx, "stub", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if posts[0].Score != 50 {
		t.Errorf("stored score = %d, want untouched 50", posts[0].Score)
	}
}

func TestRun_Eviction(t *testing.T) {
	p, s := newTestPipeline(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	var cands []source.Candidate
	for i := 0; i < 5; i++ {
		cands = append(cands, testCandidate(fmt.Sprintf("p%d", i), 10+i,
			base.Add(-time.Duration(i)*time.Hour)))
	}
	drv := testDriver("stub", cands...)
	drv.meta.MaxPosts = 3

	res := p.Run(ctx, drv)
	if res.Err != nil {
		t.Fatalf("run: %v", res.Err)
	}
	if res.NewPosts != 5 || res.Deleted != 2 {
		t.Errorf("res = %+v, want 5 new and 2 deleted", res)
	}

	posts, err := s.ListPostsBySource(ctx, "stub", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids []string
	for _, post := range posts {
		ids = append(ids, post.ExternalID)
	}
	// The freshest posts survive.
	if diff := cmp.Diff([]string{"p0", "p1", "p2"}, ids); diff != "" {
		t.Errorf("surviving posts (-want +got):\n%s", diff)
	}
}

func TestRun_FetchFailure(t *testing.T) {
	p, s := newTestPipeline(t)
	ctx := context.Background()

	drv := testDriver("stub", testCandidate("a", 50, time.Now().UTC()))
	if res := p.Run(ctx, drv); res.Err != nil {
		t.Fatalf("seed run: %v", res.Err)
	}

	drv.err = errors.New("api down")
	res := p.Run(ctx, drv)
	if res.Err == nil {
		t.Fatal("expected run error")
	}

	// Stored posts survive a failed run, and the failure is logged.
	posts, err := s.ListPostsBySource(ctx, "stub", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 1 {
		t.Errorf("stored posts = %d, want 1", len(posts))
	}

	logs, err := s.RecentFetchLogs(ctx, "stub", 10)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("log entries = %d, want 2", len(logs))
	}
	if logs[0].Status != store.FetchStatusFailed || logs[0].ErrorMsg != "api down" {
		t.Errorf("latest log = %+v, want failed with message", logs[0])
	}
	if logs[1].Status != store.FetchStatusSuccess {
		t.Errorf("earlier log = %+v, want success", logs[1])
	}
}

func TestRunAll_IsolatesFailures(t *testing.T) {
	p, _ := newTestPipeline(t)
	now := time.Now().UTC()

	good := testDriver("good", testCandidate("a", 50, now))
	bad := testDriver("bad")
	bad.err = errors.New("boom")
	alsoGood := testDriver("also-good", testCandidate("b", 60, now))

	results := p.RunAll(context.Background(), []source.Driver{good, bad, alsoGood})

	want := []Result{
		{Source: "good", Count: 1, NewPosts: 1},
		{Source: "bad"},
		{Source: "also-good", Count: 1, NewPosts: 1},
	}
	if diff := cmp.Diff(want, results,
		cmpopts.IgnoreFields(Result{}, "Duration", "Err")); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
	if results[1].Err == nil {
		t.Error("failing driver reported no error")
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Error("healthy drivers reported errors")
	}
}

func TestTranslatePending(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	engine := translate.NewEngine(echoProvider{}, s, nil)
	p := New(s, engine, nil)
	ctx := context.Background()

	// Seed an untranslated post through a run without an engine.
	seed := New(s, nil, nil)
	drv := testDriver("stub", testCandidate("a", 50, time.Now().UTC()))
	if res := seed.Run(ctx, drv); res.Err != nil {
		t.Fatalf("seed run: %v", res.Err)
	}

	done, err := p.TranslatePending(ctx, 10)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if done != 1 {
		t.Fatalf("translated = %d, want 1", done)
	}

	posts, err := s.ListPostsBySource(ctx, "stub", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	post := posts[0]
	if !post.IsTranslated {
		t.Error("post not marked translated")
	}
	if post.Translations["zh"].Title != "[zh] Post a" {
		t.Errorf("zh title = %q", post.Translations["zh"].Title)
	}
	if post.Translations["en"].Title != "Post a" {
		t.Errorf("en title = %q, want original", post.Translations["en"].Title)
	}

	// A second sweep finds nothing left.
	done, err = p.TranslatePending(ctx, 10)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if done != 0 {
		t.Errorf("second sweep translated %d, want 0", done)
	}
}

func TestTranslatePending_NoEngine(t *testing.T) {
	p, _ := newTestPipeline(t)
	if _, err := p.TranslatePending(context.Background(), 10); err == nil {
		t.Fatal("expected error without an engine")
	}
}
