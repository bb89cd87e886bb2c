package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobswipe/internal/jobs"
	"github.com/spigell/jobswipe/internal/ledger"
)

type stubGenerator struct {
	response   string
	err        error
	calls      int
	lastSystem string
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, prompt string) (string, error) {
	s.calls++
	s.lastSystem = system
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string { return "stub-model" }

type fakePrefs struct {
	liked    []string
	disliked []string
	err      error
}

func (f *fakePrefs) LikedJobs(context.Context, string) ([]string, error) { return f.liked, f.err }
func (f *fakePrefs) DislikedJobs(context.Context, string) ([]string, error) {
	return f.disliked, f.err
}

type fakePostings map[string]jobs.Posting

func (f fakePostings) Posting(_ context.Context, id string) (*jobs.Posting, error) {
	p, ok := f[id]
	if !ok {
		return nil, jobs.ErrNotFound
	}
	return &p, nil
}

type fakeStore struct {
	saved map[string]Summary
	err   error
}

func newFakeStore() *fakeStore { return &fakeStore{saved: make(map[string]Summary)} }

func (f *fakeStore) SaveSummary(_ context.Context, s Summary) error {
	if f.err != nil {
		return f.err
	}
	f.saved[s.UserID] = s
	return nil
}

func (f *fakeStore) Summary(_ context.Context, userID string) (*Summary, error) {
	s, ok := f.saved[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func catalog() fakePostings {
	return fakePostings{
		"a": {ID: "a", Title: "Go Developer", Company: "Acme", Location: "Berlin", Remote: true, Status: jobs.StatusOpen},
		"b": {ID: "b", Title: "SRE", Company: "Globex", SalaryFrom: 100, SalaryTo: 200, Currency: "EUR", Status: jobs.StatusOpen},
		"d": {ID: "d", Title: "PHP Developer", Company: "Initech", Skills: []string{"php", "mysql"}, Status: jobs.StatusClosed},
	}
}

func TestSummarizeStoresTrimmedText(t *testing.T) {
	gen := &stubGenerator{response: "  Likes backend roles.\n"}
	store := newFakeStore()
	s := New(gen, &fakePrefs{liked: []string{"a", "b"}, disliked: []string{"d"}}, catalog(), store, Options{}, zap.NewNop())
	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	sum, err := s.Summarize(context.Background(), "u1", "Ada")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sum.Text != "Likes backend roles." || sum.Model != "stub-model" {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if stored := store.saved["u1"]; stored != *sum {
		t.Fatalf("expected stored summary %+v, got %+v", sum, stored)
	}

	for _, want := range []string{"Candidate: Ada", "Go Developer / Acme / Berlin / remote", "SRE / Globex (100-200 EUR)", "skills: php, mysql", "no more than 100 words"} {
		if !strings.Contains(gen.lastPrompt, want) {
			t.Fatalf("prompt is missing %q:\n%s", want, gen.lastPrompt)
		}
	}
	if gen.lastSystem == "" {
		t.Fatalf("expected system instruction to be sent")
	}

	if got := ResultOf(sum, nil); got.Analysis != "Likes backend roles." || got.Error != "" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestSummarizeSkipsUnresolvedPostings(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	gen := &stubGenerator{response: "Prefers infrastructure work."}
	store := newFakeStore()
	s := New(gen, &fakePrefs{liked: []string{"a", "gone", "b"}}, catalog(), store, Options{}, zap.New(core))

	sum, err := s.Summarize(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Text == "" {
		t.Fatalf("expected non-empty summary")
	}

	if strings.Contains(gen.lastPrompt, "gone") {
		t.Fatalf("unresolved posting leaked into prompt")
	}
	if !strings.Contains(gen.lastPrompt, "Candidate: u1") {
		t.Fatalf("expected user id as fallback name")
	}
	if !strings.Contains(gen.lastPrompt, "passed on:\n- none") {
		t.Fatalf("expected empty disliked section, got:\n%s", gen.lastPrompt)
	}

	entries := logs.FilterMessage("skip unresolved posting").All()
	if len(entries) != 1 || entries[0].ContextMap()["job_id"] != "gone" {
		t.Fatalf("expected one warning for the unresolved posting, got %v", entries)
	}
}

func TestSummarizeLimitsSample(t *testing.T) {
	gen := &stubGenerator{response: "ok"}
	postings := fakePostings{}
	var liked []string
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		postings[id] = jobs.Posting{ID: id, Title: "Title " + id}
		liked = append(liked, id)
	}

	s := New(gen, &fakePrefs{liked: liked}, postings, newFakeStore(), Options{LikedLimit: 2, MaxWords: 42}, zap.NewNop())
	if _, err := s.Summarize(context.Background(), "u", "n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(gen.lastPrompt, "Title 3") || !strings.Contains(gen.lastPrompt, "Title 2") {
		t.Fatalf("expected only the first two liked postings:\n%s", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, "no more than 42 words") {
		t.Fatalf("expected custom word ceiling")
	}
}

func TestSummarizeFailuresStoreNothing(t *testing.T) {
	t.Parallel()

	prefsErr := errors.New("ledger down")
	modelErr := errors.New("model down")
	saveErr := errors.New("write failed")

	tests := []struct {
		name    string
		prefs   *fakePrefs
		gen     *stubGenerator
		saveErr error
		wantErr error
		calls   int
	}{
		{name: "ledger read fails", prefs: &fakePrefs{err: prefsErr}, gen: &stubGenerator{response: "x"}, wantErr: prefsErr},
		{name: "nothing resolves", prefs: &fakePrefs{liked: []string{"missing"}}, gen: &stubGenerator{response: "x"}, wantErr: ErrNothingToSummarize},
		{name: "empty ledger", prefs: &fakePrefs{}, gen: &stubGenerator{response: "x"}, wantErr: ErrNothingToSummarize},
		{name: "model fails", prefs: &fakePrefs{liked: []string{"a"}}, gen: &stubGenerator{err: modelErr}, wantErr: modelErr, calls: 1},
		{name: "model returns blank", prefs: &fakePrefs{liked: []string{"a"}}, gen: &stubGenerator{response: "  "}, calls: 1},
		{name: "store fails", prefs: &fakePrefs{liked: []string{"a"}}, gen: &stubGenerator{response: "x"}, saveErr: saveErr, wantErr: saveErr, calls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newFakeStore()
			store.err = tt.saveErr
			s := New(tt.gen, tt.prefs, catalog(), store, Options{}, zap.NewNop())

			sum, err := s.Summarize(context.Background(), "u", "")
			if err == nil || sum != nil {
				t.Fatalf("expected failure, got %+v", sum)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.gen.calls != tt.calls {
				t.Fatalf("expected %d model calls, got %d", tt.calls, tt.gen.calls)
			}
			if len(store.saved) != 0 {
				t.Fatalf("expected nothing stored, got %v", store.saved)
			}

			result := ResultOf(sum, err)
			if result.Analysis != "" || result.Error == "" {
				t.Fatalf("unexpected tagged result: %+v", result)
			}
		})
	}
}

func TestGetReturnsNotFound(t *testing.T) {
	s := New(&stubGenerator{}, &fakePrefs{}, catalog(), newFakeStore(), Options{}, zap.NewNop())
	if _, err := s.Get(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBlankUserIsInvalid(t *testing.T) {
	gen := &stubGenerator{response: "x"}
	s := New(gen, &fakePrefs{liked: []string{"a"}}, catalog(), newFakeStore(), Options{}, zap.NewNop())

	if _, err := s.Summarize(context.Background(), "  ", "Alice"); !errors.Is(err, ledger.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID from Summarize, got %v", err)
	}
	if _, err := s.Get(context.Background(), ""); !errors.Is(err, ledger.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID from Get, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("model must not be called for a blank user, got %d calls", gen.calls)
	}
}
