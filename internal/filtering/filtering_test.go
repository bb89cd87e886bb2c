package filtering

import (
	"context"
	"errors"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobswipe/internal/jobs"
	"github.com/spigell/jobswipe/internal/ledger"
)

func pool() []jobs.Posting {
	return []jobs.Posting{
		{ID: "p1", Company: "Acme", Status: jobs.StatusOpen},
		{ID: "p2", Company: "Globex", Status: jobs.StatusClosed},
		{ID: "p3", Company: "ACME ", Status: jobs.StatusOpen},
		{ID: "p4", Company: "Initech", Status: jobs.StatusOpen},
		{ID: "p5", Company: "Umbrella", Status: jobs.StatusOpen},
	}
}

func TestRunDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		swiped    ledger.Set
		companies []string
		want      []string
	}{
		{name: "only open postings", want: []string{"p1", "p3", "p4", "p5"}},
		{name: "swiped postings removed", swiped: ledger.NewSet("p4", "p1", "unknown"), want: []string{"p3", "p5"}},
		{name: "companies matched case-insensitively", companies: []string{"acme"}, want: []string{"p4", "p5"}},
		{
			name:      "all steps together keep fetch order",
			swiped:    ledger.NewSet("p4"),
			companies: []string{"Umbrella"},
			want:      []string{"p1", "p3"},
		},
		{name: "everything swiped", swiped: ledger.NewSet("p1", "p3", "p4", "p5"), want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Run(context.Background(), Deps{Swiped: tt.swiped}, Defaults(tt.companies), pool())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ids := jobs.IDs(got); !slices.Equal(ids, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, ids)
			}
		})
	}
}

func TestRunDoesNotMutateInput(t *testing.T) {
	in := pool()
	if _, err := Run(context.Background(), Deps{Swiped: ledger.NewSet("p1")}, Defaults(nil), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := jobs.IDs(in); !slices.Equal(ids, []string{"p1", "p2", "p3", "p4", "p5"}) {
		t.Fatalf("input slice was modified: %v", ids)
	}
}

func TestRunLogsSteps(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	steps := Defaults(nil)
	DisableByName(steps, "excluded_companies", "test")

	_, err := Run(context.Background(), Deps{Logger: zap.New(core), Swiped: ledger.NewSet("p1")}, steps, pool())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := logs.FilterMessage("filter step").All()
	if len(entries) != 2 {
		t.Fatalf("expected two executed steps, got %d", len(entries))
	}
	swiped := entries[1].ContextMap()
	if swiped["name"] != "swiped" || swiped["initial"] != int64(4) || swiped["dropped"] != int64(1) || swiped["left"] != int64(3) {
		t.Fatalf("unexpected step entry: %v", swiped)
	}
	if logs.FilterMessage("filter disabled").Len() != 1 {
		t.Fatalf("expected disabled filter to be logged")
	}

	statuses := Describe(steps)
	if len(statuses) != 3 || statuses[2].Enabled || statuses[2].Reason != "test" {
		t.Fatalf("unexpected statuses: %+v", statuses)
	}
}

type failingFilter struct{ toggle }

func (f *failingFilter) Name() string        { return "failing" }
func (f *failingFilter) Validate(Deps) error { return nil }
func (f *failingFilter) Apply(context.Context, Deps, []jobs.Posting) ([]jobs.Posting, Step, error) {
	return nil, Step{}, errors.New("boom")
}

func TestRunErrors(t *testing.T) {
	if _, err := Run(context.Background(), Deps{}, []Filter{NewExcludedCompanies([]string{" "})}, pool()); err == nil {
		t.Fatalf("expected validation error for blank company")
	}

	_, err := Run(context.Background(), Deps{}, []Filter{NewOpenStatus(), &failingFilter{}}, pool())
	if err == nil || err.Error() != "failing: boom" {
		t.Fatalf("expected step error, got %v", err)
	}
}
