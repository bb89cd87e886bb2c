package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/jobswipe/internal/jobs"
)

type swipedFilter struct {
	toggle
}

// NewSwiped creates a filter that removes postings the user already liked or disliked.
func NewSwiped() Filter {
	return &swipedFilter{}
}

func (f *swipedFilter) Name() string { return SwipedName }

func (f *swipedFilter) Validate(Deps) error { return nil }

func (f *swipedFilter) Apply(_ context.Context, deps Deps, postings []jobs.Posting) ([]jobs.Posting, Step, error) {
	initial := len(postings)
	if deps.Swiped.Len() == 0 {
		return postings, Step{Initial: initial, Left: initial}, nil
	}

	kept, dropped := keep(postings, func(p *jobs.Posting) bool {
		return !deps.Swiped.Has(p.ID)
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("excluding already swiped postings",
			zap.Strings("excluded_postings", dropped),
			zap.Int("postings_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *swipedFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
