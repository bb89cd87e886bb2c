// Package feed assembles the pool of postings a user has not decided on yet.
package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jobswipe/internal/filtering"
	"github.com/spigell/jobswipe/internal/jobs"
	"github.com/spigell/jobswipe/internal/ledger"
	"github.com/spigell/jobswipe/internal/logger"
)

const (
	DefaultPoolLimit = 50

	disabledByConfig = "disabled by configuration"
)

type PostingSource interface {
	// OpenPostings returns up to limit postings with status open in a stable order.
	OpenPostings(ctx context.Context, limit int) ([]jobs.Posting, error)
}

type PreferenceReader interface {
	LikedJobs(ctx context.Context, userID string) ([]string, error)
	DislikedJobs(ctx context.Context, userID string) ([]string, error)
}

// Feed is a client-held snapshot. It is never persisted.
type Feed struct {
	UserID  string         `json:"userId"`
	Pool    []jobs.Posting `json:"pool"`
	Cursor  int            `json:"cursor"`
	BuiltAt time.Time      `json:"builtAt"`
}

func (f *Feed) Empty() bool { return f == nil || len(f.Pool) == 0 }

type Options struct {
	DefaultPoolLimit  int
	ExcludedCompanies []string
	// DisabledFilters names filtering steps that are skipped on every build.
	DisabledFilters []string
}

type Assembler struct {
	postings PostingSource
	prefs    PreferenceReader
	opts     Options
	logger   *zap.Logger

	now func() time.Time
}

func NewAssembler(postings PostingSource, prefs PreferenceReader, opts Options, log *zap.Logger) *Assembler {
	if opts.DefaultPoolLimit <= 0 {
		opts.DefaultPoolLimit = DefaultPoolLimit
	}
	return &Assembler{
		postings: postings,
		prefs:    prefs,
		opts:     opts,
		logger:   logger.WithFields(log, zap.String("component", "feed")),
		now:      time.Now,
	}
}

// Build fetches up to poolLimit open postings and drops the ones userID already
// liked or disliked, keeping fetch order. A non-positive poolLimit uses the
// configured default. An empty pool is a valid result.
func (a *Assembler) Build(ctx context.Context, userID string, poolLimit int) (*Feed, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ledger.ErrInvalidID
	}
	if poolLimit <= 0 {
		poolLimit = a.opts.DefaultPoolLimit
	}

	var (
		postings []jobs.Posting
		liked    []string
		disliked []string
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := a.postings.OpenPostings(gCtx, poolLimit)
		if err != nil {
			return fmt.Errorf("fetch open postings: %w", err)
		}
		postings = res
		return nil
	})
	g.Go(func() error {
		res, err := a.prefs.LikedJobs(gCtx, userID)
		if err != nil {
			return fmt.Errorf("fetch liked jobs: %w", err)
		}
		liked = res
		return nil
	})
	g.Go(func() error {
		res, err := a.prefs.DislikedJobs(gCtx, userID)
		if err != nil {
			return fmt.Errorf("fetch disliked jobs: %w", err)
		}
		disliked = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build feed for %s: %w", userID, err)
	}

	log := logger.WithFields(a.logger, logger.UserFields(userID, "")...)
	deps := filtering.Deps{
		Logger: log,
		UserID: userID,
		Swiped: ledger.NewSet(liked...).Union(ledger.NewSet(disliked...)),
	}

	pool, err := filtering.Run(ctx, deps, a.filters(), postings)
	if err != nil {
		return nil, fmt.Errorf("filter feed for %s: %w", userID, err)
	}

	log.Debug("feed built",
		zap.Int("fetched", len(postings)),
		zap.Int("swiped", deps.Swiped.Len()),
		zap.Int("pool", len(pool)),
	)

	return &Feed{
		UserID:  userID,
		Pool:    pool,
		Cursor:  0,
		BuiltAt: a.now().UTC(),
	}, nil
}

// Filters describes the pipeline Build runs, disabled steps included.
func (a *Assembler) Filters() []filtering.Status {
	return filtering.Describe(a.filters())
}

// filters returns a fresh pipeline; steps are not shared between builds.
func (a *Assembler) filters() []filtering.Filter {
	steps := filtering.Defaults(a.opts.ExcludedCompanies)
	for _, name := range a.opts.DisabledFilters {
		filtering.DisableByName(steps, name, disabledByConfig)
	}
	return steps
}
