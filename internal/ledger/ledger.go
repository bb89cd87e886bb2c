// Package ledger keeps the per-user record of liked and disliked job postings.
//
// A job id is never present in both sets at once: marking a job moves it out of
// the opposite set in the same store operation.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrNotFound is returned by stores when the user has no ledger yet.
	// Service normalizes it away by creating an empty ledger.
	ErrNotFound = errors.New("ledger not found")
	// ErrInvalidID is returned for empty user or job identifiers.
	ErrInvalidID = errors.New("user id and job id must not be empty")
)

// Mark is the membership a job id can hold in a ledger.
type Mark string

const (
	MarkLiked    Mark = "liked"
	MarkDisliked Mark = "disliked"
)

// Opposite returns the set a job id has to leave when it is marked with m.
func (m Mark) Opposite() Mark {
	if m == MarkLiked {
		return MarkDisliked
	}
	return MarkLiked
}

func ParseMark(s string) (Mark, error) {
	switch Mark(s) {
	case MarkLiked, MarkDisliked:
		return Mark(s), nil
	}
	return "", fmt.Errorf("unknown mark %q", s)
}

// Set is a set of job identifiers.
type Set map[string]struct{}

func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s Set) Add(id string)    { s[id] = struct{}{} }
func (s Set) Remove(id string) { delete(s, id) }

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Len() int { return len(s) }

// Sorted returns the members in ascending order so that repeated reads of the
// same state produce the same sequence.
func (s Set) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s Set) Clone() Set {
	c := make(Set, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Union returns a new set with the members of s and other.
func (s Set) Union(other Set) Set {
	u := s.Clone()
	for id := range other {
		u[id] = struct{}{}
	}
	return u
}

// Ledger is the swipe state of a single user.
type Ledger struct {
	UserID    string    `json:"userId"`
	Liked     Set       `json:"-"`
	Disliked  Set       `json:"-"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// New returns an empty ledger for userID.
func New(userID string) *Ledger {
	return &Ledger{UserID: userID, Liked: NewSet(), Disliked: NewSet()}
}

// Apply marks jobID in memory, keeping both sets disjoint.
func (l *Ledger) Apply(jobID string, mark Mark) {
	l.set(mark.Opposite()).Remove(jobID)
	l.set(mark).Add(jobID)
}

// Clear removes jobID from the set named by mark only.
func (l *Ledger) Clear(jobID string, mark Mark) {
	l.set(mark).Remove(jobID)
}

// Swiped returns every job id the user has decided on.
func (l *Ledger) Swiped() Set {
	return l.Liked.Union(l.Disliked)
}

func (l *Ledger) Clone() *Ledger {
	return &Ledger{
		UserID:    l.UserID,
		Liked:     l.Liked.Clone(),
		Disliked:  l.Disliked.Clone(),
		UpdatedAt: l.UpdatedAt,
	}
}

func (l *Ledger) set(mark Mark) Set {
	if mark == MarkLiked {
		if l.Liked == nil {
			l.Liked = NewSet()
		}
		return l.Liked
	}
	if l.Disliked == nil {
		l.Disliked = NewSet()
	}
	return l.Disliked
}

// View is the serialized form of a ledger.
type View struct {
	UserID         string   `json:"userId"`
	LikedJobIDs    []string `json:"likedJobIds"`
	DislikedJobIDs []string `json:"dislikedJobIds"`
}

func (l *Ledger) View() View {
	return View{
		UserID:         l.UserID,
		LikedJobIDs:    l.Liked.Sorted(),
		DislikedJobIDs: l.Disliked.Sorted(),
	}
}

// Store persists ledgers. Implementations use the native last-writer-wins
// semantics of their backend; no cross-request locking is expected.
type Store interface {
	// Ledger returns the ledger of userID or ErrNotFound.
	Ledger(ctx context.Context, userID string) (*Ledger, error)
	// Create stores an empty ledger unless one exists and returns the stored ledger.
	Create(ctx context.Context, userID string) (*Ledger, error)
	// Mark moves jobID into the set named by mark, removing it from the opposite
	// set in the same operation. The ledger is created when absent.
	Mark(ctx context.Context, userID, jobID string, mark Mark) error
	// Unmark removes jobID from the set named by mark only.
	Unmark(ctx context.Context, userID, jobID string, mark Mark) error
	// Users lists every user that has a ledger.
	Users(ctx context.Context) ([]string, error)
}
