package filtering

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobswipe/internal/jobs"
)

type excludedCompaniesFilter struct {
	toggle
	companies []string
	index     map[string]struct{}
}

// NewExcludedCompanies creates a filter that removes postings from the configured
// companies. Company names are compared case-insensitively.
func NewExcludedCompanies(companies []string) Filter {
	index := make(map[string]struct{}, len(companies))
	for _, c := range companies {
		index[normalizeCompany(c)] = struct{}{}
	}
	return &excludedCompaniesFilter{companies: companies, index: index}
}

func (f *excludedCompaniesFilter) Name() string { return ExcludedCompaniesName }

func (f *excludedCompaniesFilter) Validate(Deps) error {
	if _, ok := f.index[""]; ok {
		return errors.New("company name must not be empty")
	}
	return nil
}

func (f *excludedCompaniesFilter) Apply(_ context.Context, deps Deps, postings []jobs.Posting) ([]jobs.Posting, Step, error) {
	initial := len(postings)
	if len(f.index) == 0 {
		return postings, Step{Initial: initial, Left: initial}, nil
	}

	kept, dropped := keep(postings, func(p *jobs.Posting) bool {
		_, excluded := f.index[normalizeCompany(p.Company)]
		return !excluded
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("excluding postings by company",
			zap.Strings("excluded_companies", f.companies),
			zap.Strings("excluded_postings", dropped),
			zap.Int("postings_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *excludedCompaniesFilter) Status() Status {
	details := map[string]string{}
	if len(f.companies) > 0 {
		details["companies"] = strings.Join(f.companies, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

func normalizeCompany(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
