package ledger_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/jobswipe/internal/ledger"
	"github.com/spigell/jobswipe/internal/storage/memory"
)

type failingStore struct {
	ledger.Store
	err error
}

func (f *failingStore) Ledger(context.Context, string) (*ledger.Ledger, error) { return nil, f.err }
func (f *failingStore) Mark(context.Context, string, string, ledger.Mark) error {
	return f.err
}

func newService() *ledger.Service {
	return ledger.NewService(memory.New(), zap.NewNop())
}

func membership(t *testing.T, svc *ledger.Service, user string) ([]string, []string) {
	t.Helper()
	ctx := context.Background()

	liked, err := svc.LikedJobs(ctx, user)
	if err != nil {
		t.Fatalf("liked jobs: %v", err)
	}
	disliked, err := svc.DislikedJobs(ctx, user)
	if err != nil {
		t.Fatalf("disliked jobs: %v", err)
	}
	return liked, disliked
}

func TestGetFreshUserReturnsEmptyLedger(t *testing.T) {
	svc := newService()

	l, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view := l.View()
	if view.UserID != "user-1" || len(view.LikedJobIDs) != 0 || len(view.DislikedJobIDs) != 0 {
		t.Fatalf("expected empty ledger, got %+v", view)
	}

	users, err := svc.Users(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(users, []string{"user-1"}) {
		t.Fatalf("expected lazily created ledger to be listed, got %v", users)
	}
}

func TestMarkSemantics(t *testing.T) {
	t.Parallel()

	type op func(svc *ledger.Service) error
	like := func(j string) op {
		return func(svc *ledger.Service) error { return svc.Like(context.Background(), "u", j) }
	}
	dislike := func(j string) op {
		return func(svc *ledger.Service) error { return svc.Dislike(context.Background(), "u", j) }
	}
	unlike := func(j string) op {
		return func(svc *ledger.Service) error { return svc.Unlike(context.Background(), "u", j) }
	}
	undislike := func(j string) op {
		return func(svc *ledger.Service) error { return svc.Undislike(context.Background(), "u", j) }
	}

	tests := []struct {
		name         string
		ops          []op
		wantLiked    []string
		wantDisliked []string
	}{
		{name: "like adds to liked only", ops: []op{like("j")}, wantLiked: []string{"j"}, wantDisliked: []string{}},
		{name: "dislike adds to disliked only", ops: []op{dislike("j")}, wantLiked: []string{}, wantDisliked: []string{"j"}},
		{name: "like is idempotent", ops: []op{like("j"), like("j")}, wantLiked: []string{"j"}, wantDisliked: []string{}},
		{name: "dislike after like moves the job", ops: []op{like("j"), dislike("j")}, wantLiked: []string{}, wantDisliked: []string{"j"}},
		{name: "like after dislike moves the job", ops: []op{dislike("j"), like("j")}, wantLiked: []string{"j"}, wantDisliked: []string{}},
		{
			name:         "unlike leaves disliked untouched",
			ops:          []op{dislike("d"), like("j"), unlike("j")},
			wantLiked:    []string{},
			wantDisliked: []string{"d"},
		},
		{
			name:         "undislike leaves liked untouched",
			ops:          []op{like("l"), dislike("j"), undislike("j")},
			wantLiked:    []string{"l"},
			wantDisliked: []string{},
		},
		{name: "unlike of a disliked job is a no-op", ops: []op{dislike("j"), unlike("j")}, wantLiked: []string{}, wantDisliked: []string{"j"}},
		{
			name:         "results are sorted",
			ops:          []op{like("c"), like("a"), like("b")},
			wantLiked:    []string{"a", "b", "c"},
			wantDisliked: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newService()
			for _, o := range tt.ops {
				if err := o(svc); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}

			liked, disliked := membership(t, svc, "u")
			if !slices.Equal(liked, tt.wantLiked) {
				t.Fatalf("liked: expected %v, got %v", tt.wantLiked, liked)
			}
			if !slices.Equal(disliked, tt.wantDisliked) {
				t.Fatalf("disliked: expected %v, got %v", tt.wantDisliked, disliked)
			}
		})
	}
}

func TestInvalidIDsAreRejected(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if err := svc.Like(ctx, "", "job"); !errors.Is(err, ledger.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if err := svc.Dislike(ctx, "user", "  "); !errors.Is(err, ledger.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := svc.Get(ctx, " "); !errors.Is(err, ledger.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestStoreFailuresAreReturnedAsValues(t *testing.T) {
	storeErr := errors.New("connection refused")
	svc := ledger.NewService(&failingStore{Store: memory.New(), err: storeErr}, zap.NewNop())
	ctx := context.Background()

	err := svc.Like(ctx, "u", "j")
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}

	result := ledger.ResultOf(err)
	if result.Success || result.Error == "" {
		t.Fatalf("expected failed tagged result, got %+v", result)
	}

	ids, err := svc.LikedJobs(ctx, "u")
	ids2 := ledger.JobIDsResultOf(ids, err)
	if ids2.Error == "" || ids2.JobIDs == nil || len(ids2.JobIDs) != 0 {
		t.Fatalf("expected empty ids with error, got %+v", ids2)
	}

	if ok := ledger.ResultOf(nil); !ok.Success {
		t.Fatalf("expected success result for nil error")
	}
}
