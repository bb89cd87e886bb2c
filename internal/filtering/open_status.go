package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/jobswipe/internal/jobs"
)

type openStatusFilter struct {
	toggle
}

// NewOpenStatus creates a filter that drops postings whose status is not open.
// Sources are expected to return open postings only; stale snapshots are not.
func NewOpenStatus() Filter {
	return &openStatusFilter{}
}

func (f *openStatusFilter) Name() string { return OpenStatusName }

func (f *openStatusFilter) Validate(Deps) error { return nil }

func (f *openStatusFilter) Apply(_ context.Context, deps Deps, postings []jobs.Posting) ([]jobs.Posting, Step, error) {
	initial := len(postings)
	kept, dropped := keep(postings, (*jobs.Posting).IsOpen)
	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding postings that are no longer open",
			zap.Strings("excluded_postings", dropped),
			zap.Int("postings_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *openStatusFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
