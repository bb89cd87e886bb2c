// Package storetest holds behaviour checks shared by every storage backend.
package storetest

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/spigell/jobswipe/internal/jobs"
	"github.com/spigell/jobswipe/internal/ledger"
	"github.com/spigell/jobswipe/internal/storage"
	"github.com/spigell/jobswipe/internal/summary"
)

// Ledger checks the ledger.Store contract. newStore must return an empty store.
func Ledger(t *testing.T, newStore func(t *testing.T) ledger.Store) {
	t.Helper()

	t.Run("absent ledger is not found", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Ledger(context.Background(), "nobody"); !errors.Is(err, ledger.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("create is idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		l, err := s.Create(ctx, "u")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if l.UserID != "u" || l.Liked.Len() != 0 || l.Disliked.Len() != 0 {
			t.Fatalf("expected empty ledger, got %+v", l.View())
		}

		if err := s.Mark(ctx, "u", "j", ledger.MarkLiked); err != nil {
			t.Fatalf("mark: %v", err)
		}
		l, err = s.Create(ctx, "u")
		if err != nil {
			t.Fatalf("second create: %v", err)
		}
		if !l.Liked.Has("j") {
			t.Fatalf("create must not reset an existing ledger: %+v", l.View())
		}
	})

	t.Run("mark moves between sets", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		steps := []struct {
			job  string
			mark ledger.Mark
		}{
			{"a", ledger.MarkLiked},
			{"a", ledger.MarkLiked},
			{"b", ledger.MarkDisliked},
			{"a", ledger.MarkDisliked},
			{"c", ledger.MarkLiked},
			{"b", ledger.MarkLiked},
		}
		for _, st := range steps {
			if err := s.Mark(ctx, "u", st.job, st.mark); err != nil {
				t.Fatalf("mark %s %s: %v", st.job, st.mark, err)
			}
		}

		l, err := s.Ledger(ctx, "u")
		if err != nil {
			t.Fatalf("ledger: %v", err)
		}
		view := l.View()
		if !slices.Equal(view.LikedJobIDs, []string{"b", "c"}) || !slices.Equal(view.DislikedJobIDs, []string{"a"}) {
			t.Fatalf("unexpected ledger: %+v", view)
		}
	})

	t.Run("unmark touches one set only", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, id := range []string{"a", "b"} {
			if err := s.Mark(ctx, "u", id, ledger.MarkLiked); err != nil {
				t.Fatal(err)
			}
		}
		if err := s.Mark(ctx, "u", "d", ledger.MarkDisliked); err != nil {
			t.Fatal(err)
		}

		if err := s.Unmark(ctx, "u", "a", ledger.MarkLiked); err != nil {
			t.Fatalf("unmark: %v", err)
		}
		if err := s.Unmark(ctx, "u", "b", ledger.MarkDisliked); err != nil {
			t.Fatalf("unmark: %v", err)
		}

		l, err := s.Ledger(ctx, "u")
		if err != nil {
			t.Fatal(err)
		}
		view := l.View()
		if !slices.Equal(view.LikedJobIDs, []string{"b"}) || !slices.Equal(view.DislikedJobIDs, []string{"d"}) {
			t.Fatalf("unexpected ledger: %+v", view)
		}

		if err := s.Unmark(ctx, "ghost", "a", ledger.MarkLiked); err != nil {
			t.Fatalf("unmark on absent ledger: %v", err)
		}
	})

	t.Run("users are listed sorted", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := s.Mark(ctx, "zed", "j", ledger.MarkLiked); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Create(ctx, "amy"); err != nil {
			t.Fatal(err)
		}

		users, err := s.Users(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(users, []string{"amy", "zed"}) {
			t.Fatalf("unexpected users: %v", users)
		}
	})
}

// Database checks the posting and summary contracts on top of the ledger one.
func Database(t *testing.T, newStore func(t *testing.T) storage.Database) {
	t.Helper()

	Ledger(t, func(t *testing.T) ledger.Store { return newStore(t) })

	t.Run("open postings newest first", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		postings := []jobs.Posting{
			{ID: "old", Title: "Old", Status: jobs.StatusOpen, CreatedAt: base},
			{ID: "new", Title: "New", Company: "Acme", Skills: []string{"go", "sql"}, SalaryFrom: 10, Remote: true, Status: jobs.StatusOpen, CreatedAt: base.Add(2 * time.Hour)},
			{ID: "draft", Title: "Draft", Status: jobs.StatusDraft, CreatedAt: base.Add(3 * time.Hour)},
			{ID: "mid", Title: "Mid", Status: jobs.StatusOpen, CreatedAt: base.Add(time.Hour)},
		}
		for _, p := range postings {
			if err := s.UpsertPosting(ctx, p); err != nil {
				t.Fatalf("upsert %s: %v", p.ID, err)
			}
		}

		open, err := s.OpenPostings(ctx, 0)
		if err != nil {
			t.Fatal(err)
		}
		if ids := jobs.IDs(open); !slices.Equal(ids, []string{"new", "mid", "old"}) {
			t.Fatalf("unexpected open postings: %v", ids)
		}
		if got := open[0]; got.Company != "Acme" || !slices.Equal(got.Skills, []string{"go", "sql"}) || got.SalaryFrom != 10 || !got.Remote {
			t.Fatalf("posting fields were not round-tripped: %+v", got)
		}

		limited, err := s.OpenPostings(ctx, 2)
		if err != nil {
			t.Fatal(err)
		}
		if ids := jobs.IDs(limited); !slices.Equal(ids, []string{"new", "mid"}) {
			t.Fatalf("unexpected limited postings: %v", ids)
		}

		if err := s.SetPostingStatus(ctx, "new", jobs.StatusFilled); err != nil {
			t.Fatal(err)
		}
		open, err = s.OpenPostings(ctx, 0)
		if err != nil {
			t.Fatal(err)
		}
		if ids := jobs.IDs(open); !slices.Equal(ids, []string{"mid", "old"}) {
			t.Fatalf("closed posting still open: %v", ids)
		}

		if err := s.SetPostingStatus(ctx, "missing", jobs.StatusClosed); !errors.Is(err, jobs.ErrNotFound) {
			t.Fatalf("expected jobs.ErrNotFound, got %v", err)
		}
	})

	t.Run("posting lookup", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := s.UpsertPosting(ctx, jobs.Posting{ID: "p", Title: "First", Status: jobs.StatusOpen}); err != nil {
			t.Fatal(err)
		}
		if err := s.UpsertPosting(ctx, jobs.Posting{ID: "p", Title: "Second", Status: jobs.StatusClosed}); err != nil {
			t.Fatal(err)
		}

		p, err := s.Posting(ctx, "p")
		if err != nil {
			t.Fatal(err)
		}
		if p.Title != "Second" || p.Status != jobs.StatusClosed || p.CreatedAt.IsZero() {
			t.Fatalf("unexpected posting: %+v", p)
		}

		if _, err := s.Posting(ctx, "missing"); !errors.Is(err, jobs.ErrNotFound) {
			t.Fatalf("expected jobs.ErrNotFound, got %v", err)
		}
	})

	t.Run("summary is overwritten", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if _, err := s.Summary(ctx, "u"); !errors.Is(err, summary.ErrNotFound) {
			t.Fatalf("expected summary.ErrNotFound, got %v", err)
		}

		at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		for i, text := range []string{"first", "second"} {
			sum := summary.Summary{UserID: "u", Text: text, Model: "m", GeneratedAt: at.Add(time.Duration(i) * time.Hour)}
			if err := s.SaveSummary(ctx, sum); err != nil {
				t.Fatal(err)
			}
		}

		got, err := s.Summary(ctx, "u")
		if err != nil {
			t.Fatal(err)
		}
		if got.Text != "second" || got.Model != "m" || !got.GeneratedAt.Equal(at.Add(time.Hour)) {
			t.Fatalf("unexpected summary: %+v", got)
		}
	})
}
