// Package memory is an in-process store for ledgers, postings and summaries.
// It backs the "memory" database driver and the unit tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spigell/jobswipe/internal/jobs"
	"github.com/spigell/jobswipe/internal/ledger"
	"github.com/spigell/jobswipe/internal/summary"
)

type Store struct {
	mu        sync.RWMutex
	ledgers   map[string]*ledger.Ledger
	postings  []jobs.Posting
	summaries map[string]summary.Summary

	now func() time.Time
}

func New() *Store {
	return &Store{
		ledgers:   make(map[string]*ledger.Ledger),
		summaries: make(map[string]summary.Summary),
		now:       time.Now,
	}
}

func (s *Store) Ledger(_ context.Context, userID string) (*ledger.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.ledgers[userID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return l.Clone(), nil
}

func (s *Store) Create(_ context.Context, userID string) (*ledger.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ensure(userID).Clone(), nil
}

func (s *Store) Mark(_ context.Context, userID, jobID string, mark ledger.Mark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.ensure(userID)
	l.Apply(jobID, mark)
	l.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) Unmark(_ context.Context, userID, jobID string, mark ledger.Mark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.ledgers[userID]
	if !ok {
		return nil
	}
	l.Clear(jobID, mark)
	l.UpdatedAt = s.now().UTC()
	return nil
}

func (s *Store) Users(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]string, 0, len(s.ledgers))
	for id := range s.ledgers {
		users = append(users, id)
	}
	sort.Strings(users)
	return users, nil
}

func (s *Store) ensure(userID string) *ledger.Ledger {
	l, ok := s.ledgers[userID]
	if !ok {
		l = ledger.New(userID)
		l.UpdatedAt = s.now().UTC()
		s.ledgers[userID] = l
	}
	return l
}

// UpsertPosting stores p, replacing a posting with the same id in place and
// keeping its creation time.
func (s *Store) UpsertPosting(_ context.Context, p jobs.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.postings {
		if s.postings[i].ID == p.ID {
			p.CreatedAt = s.postings[i].CreatedAt
			s.postings[i] = p
			return nil
		}
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	s.postings = append([]jobs.Posting{p}, s.postings...)
	return nil
}

func (s *Store) SetPostingStatus(_ context.Context, id string, status jobs.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.postings {
		if s.postings[i].ID == id {
			s.postings[i].Status = status
			return nil
		}
	}
	return jobs.ErrNotFound
}

// OpenPostings returns up to limit open postings, newest first.
func (s *Store) OpenPostings(_ context.Context, limit int) ([]jobs.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	open := make([]jobs.Posting, 0)
	for _, p := range s.postings {
		if p.Status == jobs.StatusOpen {
			open = append(open, p)
		}
	}
	// postings are kept in insertion order, newest first; ties stay that way
	sort.SliceStable(open, func(i, j int) bool {
		return open[i].CreatedAt.After(open[j].CreatedAt)
	})

	if limit > 0 && len(open) > limit {
		open = open[:limit]
	}
	return open, nil
}

func (s *Store) Posting(_ context.Context, id string) (*jobs.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.postings {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, jobs.ErrNotFound
}

func (s *Store) SaveSummary(_ context.Context, sum summary.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries[sum.UserID] = sum
	return nil
}

func (s *Store) Summary(_ context.Context, userID string) (*summary.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, ok := s.summaries[userID]
	if !ok {
		return nil, summary.ErrNotFound
	}
	return &sum, nil
}

func (s *Store) Close() error { return nil }
