package swipe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobswipe/internal/logger"
)

// Failure describes a decision whose ledger write did not succeed.
type Failure struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	JobID     string    `json:"jobId"`
	Direction Direction `json:"direction"`
	Error     string    `json:"error"`
	At        time.Time `json:"at"`
}

// FailureSink receives failed decisions.
type FailureSink interface {
	Report(ctx context.Context, f Failure) error
}

type resolver interface {
	Resolve(ctx context.Context, userID, jobID string)
}

// LogSink writes failures to the logger.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Report(_ context.Context, f Failure) error {
	logger.WithFields(s.Logger).Warn("swipe failed",
		zap.String(logger.FieldSession, f.SessionID),
		zap.String(logger.FieldUser, f.UserID),
		zap.String(logger.FieldJob, f.JobID),
		zap.String("direction", string(f.Direction)),
		zap.String("error", f.Error),
	)
	return nil
}

type queueKey struct {
	userID string
	jobID  string
}

// RetryQueue keeps the latest failed decision per user and posting so it can
// be replayed against the ledger later. A later successful decision on the
// same posting drops the pending entry.
type RetryQueue struct {
	mu      sync.Mutex
	order   []queueKey
	pending map[queueKey]Failure
}

func NewRetryQueue() *RetryQueue {
	return &RetryQueue{pending: make(map[queueKey]Failure)}
}

func (q *RetryQueue) Report(_ context.Context, f Failure) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := queueKey{userID: f.UserID, jobID: f.JobID}
	if _, ok := q.pending[key]; !ok {
		q.order = append(q.order, key)
	}
	q.pending[key] = f
	return nil
}

func (q *RetryQueue) Resolve(_ context.Context, userID, jobID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.drop(queueKey{userID: userID, jobID: jobID})
}

func (q *RetryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Pending returns the queued failures in the order they were first reported.
func (q *RetryQueue) Pending() []Failure {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Failure, 0, len(q.order))
	for _, key := range q.order {
		out = append(out, q.pending[key])
	}
	return out
}

// Retry replays every pending failure against l. Entries that succeed are
// removed; the rest stay queued. It returns the number of replayed writes.
func (q *RetryQueue) Retry(ctx context.Context, l Ledger) (int, error) {
	var replayed int
	for _, f := range q.Pending() {
		if err := ctx.Err(); err != nil {
			return replayed, err
		}

		var err error
		switch f.Direction {
		case Like:
			err = l.Like(ctx, f.UserID, f.JobID)
		case Dislike:
			err = l.Dislike(ctx, f.UserID, f.JobID)
		default:
			err = fmt.Errorf("unknown swipe direction %q", f.Direction)
		}
		if err != nil {
			continue
		}

		q.mu.Lock()
		// a newer failure for the same posting may have been reported meanwhile
		if current, ok := q.pending[queueKey{userID: f.UserID, jobID: f.JobID}]; ok && current.At.Equal(f.At) && current.Direction == f.Direction {
			q.drop(queueKey{userID: f.UserID, jobID: f.JobID})
		}
		q.mu.Unlock()
		replayed++
	}
	return replayed, nil
}

func (q *RetryQueue) drop(key queueKey) {
	if _, ok := q.pending[key]; !ok {
		return
	}
	delete(q.pending, key)
	for i, k := range q.order {
		if k == key {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}
