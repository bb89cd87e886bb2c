package summary

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spigell/jobswipe/internal/logger"
)

const DefaultSchedule = "@every 24h"

// UserLister enumerates the users whose summaries the batch regenerates.
type UserLister interface {
	Users(ctx context.Context) ([]string, error)
}

type summarizer interface {
	Summarize(ctx context.Context, userID, displayName string) (*Summary, error)
}

// Batch periodically regenerates summaries of every user with a ledger.
type Batch struct {
	cron       *cron.Cron
	summarizer summarizer
	users      UserLister
	schedule   string
	logger     *zap.Logger

	// a cycle still running when the next tick fires is skipped
	running sync.Mutex
}

func NewBatch(s summarizer, users UserLister, schedule string, log *zap.Logger) *Batch {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Batch{
		cron:       cron.New(),
		summarizer: s,
		users:      users,
		schedule:   schedule,
		logger:     logger.WithFields(log, zap.String("component", "summary-batch")),
	}
}

// Start registers the cycle with the scheduler and starts it. The first cycle
// runs on the first tick, not immediately.
func (b *Batch) Start(ctx context.Context) error {
	if _, err := b.cron.AddFunc(b.schedule, func() {
		if err := b.RunOnce(ctx); err != nil {
			b.logger.Error("summary cycle failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule summary batch %q: %w", b.schedule, err)
	}

	b.cron.Start()
	b.logger.Info("summary batch started", zap.String("schedule", b.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running cycle to finish.
func (b *Batch) Stop() {
	<-b.cron.Stop().Done()
	b.logger.Info("summary batch stopped")
}

// RunOnce regenerates summaries for all users. Per-user failures are logged and
// do not stop the cycle; only a failure to list users is returned.
func (b *Batch) RunOnce(ctx context.Context) error {
	if !b.running.TryLock() {
		b.logger.Warn("previous summary cycle still running, skipping")
		return nil
	}
	defer b.running.Unlock()

	users, err := b.users.Users(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	b.logger.Info("summary cycle started", zap.Int("users", len(users)))

	var generated, failed int
	for _, userID := range users {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_, err := b.summarizer.Summarize(ctx, userID, "")
		switch {
		case err == nil:
			generated++
		case errors.Is(err, ErrNothingToSummarize):
			b.logger.Debug("nothing to summarize", logger.UserFields(userID, "")...)
		default:
			failed++
			b.logger.Warn("summary failed", append(logger.UserFields(userID, ""), zap.Error(err))...)
		}
	}

	b.logger.Info("summary cycle complete", zap.Int("generated", generated), zap.Int("failed", failed))
	return nil
}
