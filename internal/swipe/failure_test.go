package swipe_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/spigell/jobswipe/internal/swipe"
)

func TestRetryQueueReplaysFailedWrites(t *testing.T) {
	q := swipe.NewRetryQueue()
	broken := &failingLedger{failFor: map[string]error{"a": errors.New("down"), "b": errors.New("down")}}
	s := swipe.NewSession("u", &staticFeed{pool: postings("a", "b", "c")}, broken, swipe.Options{Sinks: []swipe.FailureSink{q}})
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	for _, dir := range []swipe.Direction{swipe.Like, swipe.Dislike, swipe.Like} {
		if _, err := s.Decide(ctx, dir); err != nil {
			t.Fatal(err)
		}
	}

	if q.Len() != 2 {
		t.Fatalf("expected two queued failures, got %d", q.Len())
	}

	stillBroken := &failingLedger{failFor: map[string]error{"b": errors.New("down")}}
	n, err := q.Retry(ctx, stillBroken)
	if err != nil || n != 1 {
		t.Fatalf("expected one replayed write, got %d %v", n, err)
	}
	if !slices.Equal(stillBroken.writes, []string{"like:a", "dislike:b"}) {
		t.Fatalf("unexpected replay order: %v", stillBroken.writes)
	}

	pending := q.Pending()
	if len(pending) != 1 || pending[0].JobID != "b" || pending[0].Direction != swipe.Dislike {
		t.Fatalf("expected b to stay queued, got %+v", pending)
	}

	healthy := &failingLedger{}
	if n, err := q.Retry(ctx, healthy); err != nil || n != 1 || q.Len() != 0 {
		t.Fatalf("expected queue to drain, got %d %v len=%d", n, err, q.Len())
	}
}

func TestRetryQueueDedupsAndResolves(t *testing.T) {
	q := swipe.NewRetryQueue()
	ctx := context.Background()

	_ = q.Report(ctx, swipe.Failure{UserID: "u", JobID: "a", Direction: swipe.Like})
	_ = q.Report(ctx, swipe.Failure{UserID: "u", JobID: "a", Direction: swipe.Dislike})
	_ = q.Report(ctx, swipe.Failure{UserID: "v", JobID: "a", Direction: swipe.Like})

	pending := q.Pending()
	if len(pending) != 2 || pending[0].Direction != swipe.Dislike {
		t.Fatalf("expected latest direction per user and posting, got %+v", pending)
	}

	// A successful decision on the same posting supersedes the failure.
	l := &failingLedger{}
	s := swipe.NewSession("u", &staticFeed{pool: postings("a")}, l, swipe.Options{Sinks: []swipe.FailureSink{q}})
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Decide(ctx, swipe.Like); err != nil {
		t.Fatal(err)
	}

	pending = q.Pending()
	if len(pending) != 1 || pending[0].UserID != "v" {
		t.Fatalf("expected only v's failure to remain, got %+v", pending)
	}
}

func TestRetryQueueStopsOnCanceledContext(t *testing.T) {
	q := swipe.NewRetryQueue()
	_ = q.Report(context.Background(), swipe.Failure{UserID: "u", JobID: "a", Direction: swipe.Like})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Retry(ctx, &failingLedger{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if q.Len() != 1 {
		t.Fatalf("expected failure to stay queued")
	}
}
