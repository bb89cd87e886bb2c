package swipe_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobswipe/internal/feed"
	"github.com/spigell/jobswipe/internal/jobs"
	"github.com/spigell/jobswipe/internal/ledger"
	"github.com/spigell/jobswipe/internal/storage/memory"
	"github.com/spigell/jobswipe/internal/swipe"
)

type staticFeed struct {
	pool  []jobs.Posting
	err   error
	calls int
}

func (f *staticFeed) Build(_ context.Context, userID string, _ int) (*feed.Feed, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &feed.Feed{UserID: userID, Pool: slices.Clone(f.pool)}, nil
}

func postings(ids ...string) []jobs.Posting {
	out := make([]jobs.Posting, 0, len(ids))
	for _, id := range ids {
		out = append(out, jobs.Posting{ID: id, Status: jobs.StatusOpen})
	}
	return out
}

func TestSwipeSequenceExhaustsPool(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range postings("jobA", "jobB", "jobC") {
		p.CreatedAt = base.Add(-time.Duration(i) * time.Minute)
		if err := store.UpsertPosting(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	svc := ledger.NewService(store, zap.NewNop())
	assembler := feed.NewAssembler(store, svc, feed.Options{}, zap.NewNop())
	s := swipe.NewSession("u", assembler, svc, swipe.Options{})

	if s.State() != swipe.Loading {
		t.Fatalf("expected Loading before load, got %s", s.State())
	}
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	for want := 0; want < 3; want++ {
		if s.State() != swipe.Ready || s.Cursor() != want {
			t.Fatalf("expected Ready(%d), got %s(%d)", want, s.State(), s.Cursor())
		}
		d, err := s.Decide(ctx, swipe.Like)
		if err != nil || d.Failed() {
			t.Fatalf("decide: %v %+v", err, d)
		}
	}

	if s.State() != swipe.Exhausted || s.Current() != nil {
		t.Fatalf("expected Exhausted, got %s", s.State())
	}

	liked, err := svc.LikedJobs(ctx, "u")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(liked, []string{"jobA", "jobB", "jobC"}) {
		t.Fatalf("unexpected liked jobs: %v", liked)
	}

	if _, err := s.Decide(ctx, swipe.Dislike); !errors.Is(err, swipe.ErrNotReady) {
		t.Fatalf("expected ErrNotReady when exhausted, got %v", err)
	}

	// Refresh rebuilds from the ledger: everything is swiped now.
	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if s.State() != swipe.Exhausted {
		t.Fatalf("expected Exhausted after refresh, got %s", s.State())
	}

	if err := store.UpsertPosting(ctx, jobs.Posting{ID: "jobD", Status: jobs.StatusOpen}); err != nil {
		t.Fatal(err)
	}
	if err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if cur := s.Current(); s.State() != swipe.Ready || cur == nil || cur.ID != "jobD" {
		t.Fatalf("expected Ready on jobD, got %s %+v", s.State(), cur)
	}
}

func TestEmptyFeedIsExhausted(t *testing.T) {
	s := swipe.NewSession("u", &staticFeed{}, nil, swipe.Options{})
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.State() != swipe.Exhausted {
		t.Fatalf("expected Exhausted, got %s", s.State())
	}
}

func TestLoadFailureStaysLoading(t *testing.T) {
	loadErr := errors.New("db down")
	s := swipe.NewSession("u", &staticFeed{err: loadErr}, nil, swipe.Options{})
	if err := s.Load(context.Background()); !errors.Is(err, loadErr) {
		t.Fatalf("expected load error, got %v", err)
	}
	if s.State() != swipe.Loading {
		t.Fatalf("expected Loading, got %s", s.State())
	}
	if _, err := s.Decide(context.Background(), swipe.Like); !errors.Is(err, swipe.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

type blockingLedger struct {
	started chan struct{}
	release chan struct{}
	err     error
}

func (b *blockingLedger) Like(ctx context.Context, _, _ string) error {
	close(b.started)
	<-b.release
	return b.err
}

func (b *blockingLedger) Dislike(ctx context.Context, u, j string) error { return b.Like(ctx, u, j) }

func TestDecideIsSingleFlight(t *testing.T) {
	l := &blockingLedger{started: make(chan struct{}), release: make(chan struct{})}
	s := swipe.NewSession("u", &staticFeed{pool: postings("a", "b")}, l, swipe.Options{})
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	done := make(chan *swipe.Decision)
	go func() {
		d, _ := s.Decide(ctx, swipe.Like)
		done <- d
	}()
	<-l.started

	if _, err := s.Decide(ctx, swipe.Dislike); !errors.Is(err, swipe.ErrDecisionInFlight) {
		t.Fatalf("expected ErrDecisionInFlight, got %v", err)
	}
	if err := s.Refresh(ctx); !errors.Is(err, swipe.ErrDecisionInFlight) {
		t.Fatalf("expected refresh to be refused while in flight, got %v", err)
	}
	if s.Cursor() != 0 {
		t.Fatalf("cursor moved during in-flight decision")
	}

	close(l.release)
	select {
	case d := <-done:
		if d.JobID != "a" || d.Direction != swipe.Like {
			t.Fatalf("unexpected decision: %+v", d)
		}
	case <-time.After(time.Second):
		t.Fatal("decision did not complete")
	}

	if s.Cursor() != 1 || s.Current().ID != "b" {
		t.Fatalf("expected cursor on b, got %d", s.Cursor())
	}
}

type failingLedger struct {
	failFor map[string]error
	writes  []string
}

func (f *failingLedger) Like(_ context.Context, _, jobID string) error {
	f.writes = append(f.writes, "like:"+jobID)
	return f.failFor[jobID]
}

func (f *failingLedger) Dislike(_ context.Context, _, jobID string) error {
	f.writes = append(f.writes, "dislike:"+jobID)
	return f.failFor[jobID]
}

type recordingSink struct {
	failures []swipe.Failure
}

func (r *recordingSink) Report(_ context.Context, f swipe.Failure) error {
	r.failures = append(r.failures, f)
	return nil
}

func TestFailedWriteAdvancesAndReports(t *testing.T) {
	writeErr := errors.New("permission denied")
	l := &failingLedger{failFor: map[string]error{"a": writeErr}}
	sink := &recordingSink{}
	core, logs := observer.New(zap.WarnLevel)

	s := swipe.NewSession("u", &staticFeed{pool: postings("a", "b")}, l, swipe.Options{
		Sinks:  []swipe.FailureSink{sink, swipe.LogSink{Logger: zap.New(core)}},
		Logger: zap.New(core),
	})
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	d, err := s.Decide(ctx, swipe.Dislike)
	if err != nil {
		t.Fatalf("decide must not fail on a write error: %v", err)
	}
	if !d.Failed() || !errors.Is(d.Err, writeErr) {
		t.Fatalf("expected failed decision carrying the write error, got %+v", d)
	}
	if s.Cursor() != 1 || s.State() != swipe.Ready {
		t.Fatalf("expected optimistic advance to Ready(1), got %s(%d)", s.State(), s.Cursor())
	}

	if len(sink.failures) != 1 {
		t.Fatalf("expected one failure event, got %d", len(sink.failures))
	}
	f := sink.failures[0]
	if f.SessionID != s.ID() || f.UserID != "u" || f.JobID != "a" || f.Direction != swipe.Dislike || f.Error != writeErr.Error() || f.At.IsZero() {
		t.Fatalf("unexpected failure event: %+v", f)
	}

	if logs.FilterMessage("swipe failed").Len() != 1 {
		t.Fatalf("expected log sink entry")
	}
}

func TestDecideRejectsUnknownDirection(t *testing.T) {
	s := swipe.NewSession("u", &staticFeed{pool: postings("a")}, &failingLedger{}, swipe.Options{})
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Decide(context.Background(), "superlike"); err == nil {
		t.Fatal("expected error")
	}
	if s.Cursor() != 0 {
		t.Fatalf("cursor must not move on invalid input")
	}
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]swipe.Direction{"like": swipe.Like, " Dislike ": swipe.Dislike} {
		got, err := swipe.ParseDirection(in)
		if err != nil || got != want {
			t.Fatalf("ParseDirection(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := swipe.ParseDirection("skip"); err == nil {
		t.Fatal("expected error")
	}
}
