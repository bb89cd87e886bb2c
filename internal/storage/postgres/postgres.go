// Package postgres stores ledgers, postings and summaries in PostgreSQL.
// Liked and disliked job ids are TEXT[] columns of a single row per user, so a
// mark is one upsert that moves the id between the arrays.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spigell/jobswipe/internal/jobs"
	"github.com/spigell/jobswipe/internal/ledger"
	"github.com/spigell/jobswipe/internal/summary"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS job_postings (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		company     TEXT NOT NULL DEFAULT '',
		location    TEXT NOT NULL DEFAULT '',
		salary_from INTEGER NOT NULL DEFAULT 0,
		salary_to   INTEGER NOT NULL DEFAULT 0,
		currency    TEXT NOT NULL DEFAULT '',
		remote      BOOLEAN NOT NULL DEFAULT FALSE,
		skills      TEXT[] NOT NULL DEFAULT '{}',
		status      TEXT NOT NULL DEFAULT 'draft',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS job_postings_status_created_idx ON job_postings (status, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS preferences (
		user_id         TEXT PRIMARY KEY,
		like_job_ids    TEXT[] NOT NULL DEFAULT '{}',
		dislike_job_ids TEXT[] NOT NULL DEFAULT '{}',
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS preference_summaries (
		user_id      TEXT PRIMARY KEY,
		summary      TEXT NOT NULL,
		model        TEXT NOT NULL DEFAULT '',
		generated_at TIMESTAMPTZ NOT NULL
	)`,
}

type Store struct {
	pool *pgxpool.Pool
}

// Connect creates and verifies a pgxpool connection pool.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Migrate creates the tables when they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func column(mark ledger.Mark) string {
	if mark == ledger.MarkLiked {
		return "like_job_ids"
	}
	return "dislike_job_ids"
}

func (s *Store) Ledger(ctx context.Context, userID string) (*ledger.Ledger, error) {
	var liked, disliked []string
	l := ledger.New(userID)

	err := s.pool.QueryRow(ctx,
		`SELECT like_job_ids, dislike_job_ids, updated_at FROM preferences WHERE user_id = $1`,
		userID,
	).Scan(&liked, &disliked, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select preferences: %w", err)
	}

	l.Liked = ledger.NewSet(liked...)
	l.Disliked = ledger.NewSet(disliked...)
	return l, nil
}

func (s *Store) Create(ctx context.Context, userID string) (*ledger.Ledger, error) {
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO preferences (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	); err != nil {
		return nil, fmt.Errorf("insert preferences: %w", err)
	}
	return s.Ledger(ctx, userID)
}

func (s *Store) Mark(ctx context.Context, userID, jobID string, mark ledger.Mark) error {
	target, opposite := column(mark), column(mark.Opposite())

	query := fmt.Sprintf(`
		INSERT INTO preferences (user_id, %[1]s) VALUES ($1, ARRAY[$2::text])
		ON CONFLICT (user_id) DO UPDATE SET
			%[1]s = array_append(array_remove(preferences.%[1]s, $2::text), $2::text),
			%[2]s = array_remove(preferences.%[2]s, $2::text),
			updated_at = NOW()`,
		target, opposite,
	)

	if _, err := s.pool.Exec(ctx, query, userID, jobID); err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

func (s *Store) Unmark(ctx context.Context, userID, jobID string, mark ledger.Mark) error {
	query := fmt.Sprintf(
		`UPDATE preferences SET %[1]s = array_remove(%[1]s, $2::text), updated_at = NOW() WHERE user_id = $1`,
		column(mark),
	)
	if _, err := s.pool.Exec(ctx, query, userID, jobID); err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	return nil
}

func (s *Store) Users(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT user_id FROM preferences ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	users, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	return users, nil
}

const postingColumns = `id, title, company, location, salary_from, salary_to, currency, remote, skills, status, created_at`

func (s *Store) UpsertPosting(ctx context.Context, p jobs.Posting) error {
	var createdAt *time.Time
	if !p.CreatedAt.IsZero() {
		createdAt = &p.CreatedAt
	}
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_postings (`+postingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11, NOW()))
		 ON CONFLICT (id) DO UPDATE SET
		   title = EXCLUDED.title,
		   company = EXCLUDED.company,
		   location = EXCLUDED.location,
		   salary_from = EXCLUDED.salary_from,
		   salary_to = EXCLUDED.salary_to,
		   currency = EXCLUDED.currency,
		   remote = EXCLUDED.remote,
		   skills = EXCLUDED.skills,
		   status = EXCLUDED.status`,
		p.ID, p.Title, p.Company, p.Location, p.SalaryFrom, p.SalaryTo, p.Currency, p.Remote, skills, string(p.Status), createdAt,
	)
	if err != nil {
		return fmt.Errorf("upsert posting %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) SetPostingStatus(ctx context.Context, id string, status jobs.Status) error {
	tag, err := s.pool.Exec(ctx, `UPDATE job_postings SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update posting %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return jobs.ErrNotFound
	}
	return nil
}

// OpenPostings returns up to limit open postings, newest first. A
// non-positive limit returns all of them.
func (s *Store) OpenPostings(ctx context.Context, limit int) ([]jobs.Posting, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+postingColumns+` FROM job_postings
		 WHERE status = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2`,
		string(jobs.StatusOpen), lim,
	)
	if err != nil {
		return nil, fmt.Errorf("select open postings: %w", err)
	}
	defer rows.Close()

	postings := make([]jobs.Posting, 0)
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan posting: %w", err)
		}
		postings = append(postings, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select open postings: %w", err)
	}
	return postings, nil
}

func (s *Store) Posting(ctx context.Context, id string) (*jobs.Posting, error) {
	p, err := scanPosting(s.pool.QueryRow(ctx, `SELECT `+postingColumns+` FROM job_postings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, jobs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select posting %s: %w", id, err)
	}
	return p, nil
}

func scanPosting(row pgx.Row) (*jobs.Posting, error) {
	var (
		p      jobs.Posting
		status string
	)
	if err := row.Scan(
		&p.ID, &p.Title, &p.Company, &p.Location,
		&p.SalaryFrom, &p.SalaryTo, &p.Currency, &p.Remote,
		&p.Skills, &status, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = jobs.Status(status)
	return &p, nil
}

func (s *Store) SaveSummary(ctx context.Context, sum summary.Summary) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO preference_summaries (user_id, summary, model, generated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET
		   summary = EXCLUDED.summary,
		   model = EXCLUDED.model,
		   generated_at = EXCLUDED.generated_at`,
		sum.UserID, sum.Text, sum.Model, sum.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

func (s *Store) Summary(ctx context.Context, userID string) (*summary.Summary, error) {
	sum := summary.Summary{UserID: userID}
	err := s.pool.QueryRow(ctx,
		`SELECT summary, model, generated_at FROM preference_summaries WHERE user_id = $1`,
		userID,
	).Scan(&sum.Text, &sum.Model, &sum.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, summary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select summary: %w", err)
	}
	return &sum, nil
}
