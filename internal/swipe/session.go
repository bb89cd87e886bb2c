// Package swipe drives a single feed session: one posting at a time, one
// decision in flight at a time, cursor always moving forward.
package swipe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/jobswipe/internal/feed"
	"github.com/spigell/jobswipe/internal/jobs"
	"github.com/spigell/jobswipe/internal/logger"
)

var (
	// ErrDecisionInFlight is returned when Decide is called while another
	// decision of the same session is still being written. Nothing changes.
	ErrDecisionInFlight = errors.New("a decision is already in flight")
	// ErrNotReady is returned when the session has no posting to decide on.
	ErrNotReady = errors.New("session is not ready")
)

type Direction string

const (
	Like    Direction = "like"
	Dislike Direction = "dislike"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Like, Dislike:
		return d, nil
	}
	return "", fmt.Errorf("unknown swipe direction %q", s)
}

type State int

const (
	Loading State = iota
	Ready
	Exhausted
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type FeedBuilder interface {
	Build(ctx context.Context, userID string, poolLimit int) (*feed.Feed, error)
}

// Ledger is the write side of the preference ledger used by a session.
type Ledger interface {
	Like(ctx context.Context, userID, jobID string) error
	Dislike(ctx context.Context, userID, jobID string) error
}

// Decision is the outcome of a single Decide call. Err is set when the ledger
// write failed; the cursor has advanced regardless.
type Decision struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	JobID     string    `json:"jobId"`
	Direction Direction `json:"direction"`
	Err       error     `json:"-"`
}

func (d Decision) Failed() bool { return d.Err != nil }

type Options struct {
	PoolLimit int
	Sinks     []FailureSink
	Logger    *zap.Logger
}

type Session struct {
	id      string
	userID  string
	builder FeedBuilder
	ledger  Ledger
	opts    Options
	logger  *zap.Logger

	mu       sync.Mutex
	state    State
	pool     []jobs.Posting
	cursor   int
	inFlight bool

	now func() time.Time
}

func NewSession(userID string, builder FeedBuilder, ledger Ledger, opts Options) *Session {
	id := uuid.NewString()
	return &Session{
		id:      id,
		userID:  strings.TrimSpace(userID),
		builder: builder,
		ledger:  ledger,
		opts:    opts,
		logger: logger.WithFields(opts.Logger,
			zap.String("component", "swipe"),
			zap.String(logger.FieldSession, id),
			zap.String(logger.FieldUser, strings.TrimSpace(userID)),
		),
		state: Loading,
		now:   time.Now,
	}
}

func (s *Session) ID() string     { return s.id }
func (s *Session) UserID() string { return s.userID }

// Load builds the feed and moves the session to Ready, or to Exhausted when
// the pool is empty. On error the session stays in Loading.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrDecisionInFlight
	}
	s.state = Loading
	s.pool = nil
	s.cursor = 0
	s.mu.Unlock()

	f, err := s.builder.Build(ctx, s.userID, s.opts.PoolLimit)
	if err != nil {
		return fmt.Errorf("load feed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pool = f.Pool
	s.cursor = f.Cursor
	s.state = Ready
	if s.cursor >= len(s.pool) {
		s.state = Exhausted
	}

	s.logger.Debug("feed loaded", zap.Int("pool", len(s.pool)), zap.Stringer("state", s.state))
	return nil
}

// Refresh rebuilds the feed. It is the only way out of Exhausted.
func (s *Session) Refresh(ctx context.Context) error {
	return s.Load(ctx)
}

// Decide records dir for the current posting and advances the cursor whatever
// the outcome of the ledger write. A failed write is reported in the returned
// Decision and to every configured FailureSink.
func (s *Session) Decide(ctx context.Context, dir Direction) (*Decision, error) {
	if dir != Like && dir != Dislike {
		return nil, fmt.Errorf("unknown swipe direction %q", dir)
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrDecisionInFlight
	}
	if s.state != Ready || s.cursor >= len(s.pool) {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	s.inFlight = true
	posting := s.pool[s.cursor]
	s.mu.Unlock()

	var err error
	switch dir {
	case Like:
		err = s.ledger.Like(ctx, s.userID, posting.ID)
	case Dislike:
		err = s.ledger.Dislike(ctx, s.userID, posting.ID)
	}

	s.mu.Lock()
	s.cursor++
	if s.cursor >= len(s.pool) {
		s.state = Exhausted
	}
	s.inFlight = false
	cursor, state := s.cursor, s.state
	s.mu.Unlock()

	decision := &Decision{
		SessionID: s.id,
		UserID:    s.userID,
		JobID:     posting.ID,
		Direction: dir,
		Err:       err,
	}

	log := s.logger.With(zap.String(logger.FieldJob, posting.ID), zap.String("direction", string(dir)))
	if err != nil {
		log.Warn("ledger write failed, advancing anyway", zap.Error(err))
		s.report(ctx, decision)
	} else {
		log.Debug("decision recorded", zap.Int("cursor", cursor), zap.Stringer("state", state))
		s.resolve(ctx, decision)
	}

	return decision, nil
}

// Current returns the posting under the cursor, or nil when none is left.
func (s *Session) Current() *jobs.Posting {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready || s.cursor >= len(s.pool) {
		return nil
	}
	p := s.pool[s.cursor]
	return &p
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Remaining returns the number of postings left to decide on.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pool) - s.cursor
}

func (s *Session) report(ctx context.Context, d *Decision) {
	failure := Failure{
		SessionID: d.SessionID,
		UserID:    d.UserID,
		JobID:     d.JobID,
		Direction: d.Direction,
		Error:     d.Err.Error(),
		At:        s.now().UTC(),
	}
	for _, sink := range s.opts.Sinks {
		if err := sink.Report(ctx, failure); err != nil {
			s.logger.Error("report swipe failure", zap.String(logger.FieldJob, d.JobID), zap.Error(err))
		}
	}
}

// resolve tells sinks that track pending failures that a later write for the
// same posting succeeded.
func (s *Session) resolve(ctx context.Context, d *Decision) {
	for _, sink := range s.opts.Sinks {
		if r, ok := sink.(resolver); ok {
			r.Resolve(ctx, d.UserID, d.JobID)
		}
	}
}
