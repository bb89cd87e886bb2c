// Package filtering narrows a pool of postings down to the ones a user should
// still see. Every step keeps the relative order of the postings it retains.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/jobswipe/internal/jobs"
	"github.com/spigell/jobswipe/internal/ledger"
)

const (
	OpenStatusName        = "open_status"
	SwipedName            = "swiped"
	ExcludedCompaniesName = "excluded_companies"
)

// Filter represents a single filtering step applied to postings.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(deps Deps) error
	Apply(ctx context.Context, deps Deps, postings []jobs.Posting) ([]jobs.Posting, Step, error)
}

// Deps aggregates per-run inputs shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
	UserID string
	// Swiped holds every job id the user already liked or disliked.
	Swiped ledger.Set
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type statusProvider interface {
	Status() Status
}

// Defaults returns the standard feed pipeline.
func Defaults(excludedCompanies []string) []Filter {
	return []Filter{
		NewOpenStatus(),
		NewSwiped(),
		NewExcludedCompanies(excludedCompanies),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially and returns the postings left.
func Run(ctx context.Context, deps Deps, steps []Filter, postings []jobs.Posting) ([]jobs.Posting, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(deps); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Debug("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}

		next, info, err := step.Apply(ctx, deps, postings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Debug("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		postings = next
	}

	return postings, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// keep returns the postings for which fn is true, in their original order,
// together with the ids of the dropped ones.
func keep(postings []jobs.Posting, fn func(*jobs.Posting) bool) ([]jobs.Posting, []string) {
	kept := make([]jobs.Posting, 0, len(postings))
	var dropped []string
	for i := range postings {
		if fn(&postings[i]) {
			kept = append(kept, postings[i])
			continue
		}
		dropped = append(dropped, postings[i].ID)
	}
	return kept, dropped
}

// toggle is embedded by filters that can be switched off at runtime.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }
