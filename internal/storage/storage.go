// Package storage names the persistence contracts the application wires
// together. Backends live in the subpackages.
package storage

import (
	"context"

	"github.com/spigell/jobswipe/internal/jobs"
	"github.com/spigell/jobswipe/internal/ledger"
	"github.com/spigell/jobswipe/internal/summary"
)

// Postings is the posting side of a database backend. Postings are owned by
// the board; the application only seeds and closes them for local use.
type Postings interface {
	UpsertPosting(ctx context.Context, p jobs.Posting) error
	SetPostingStatus(ctx context.Context, id string, status jobs.Status) error
	// OpenPostings returns up to limit open postings, newest first.
	// A non-positive limit returns all of them.
	OpenPostings(ctx context.Context, limit int) ([]jobs.Posting, error)
	// Posting returns the posting with id or jobs.ErrNotFound.
	Posting(ctx context.Context, id string) (*jobs.Posting, error)
}

// Database is implemented by the memory, sqlite and postgres backends.
type Database interface {
	ledger.Store
	summary.Store
	Postings

	Close() error
}

// Migrator is implemented by backends with a schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}
