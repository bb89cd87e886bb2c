// Package sqlite is a single-file backend for local use. Marks are rows keyed
// by (user_id, job_id), so a job id can hold one mark at a time.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

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
		remote      INTEGER NOT NULL DEFAULT 0,
		skills      TEXT NOT NULL DEFAULT '[]',
		status      TEXT NOT NULL DEFAULT 'draft',
		created_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS job_postings_status_created_idx ON job_postings (status, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS preferences (
		user_id    TEXT PRIMARY KEY,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS preference_marks (
		user_id TEXT NOT NULL REFERENCES preferences (user_id),
		job_id  TEXT NOT NULL,
		mark    TEXT NOT NULL CHECK (mark IN ('liked', 'disliked')),
		PRIMARY KEY (user_id, job_id)
	)`,
	`CREATE TABLE IF NOT EXISTS preference_summaries (
		user_id      TEXT PRIMARY KEY,
		summary      TEXT NOT NULL,
		model        TEXT NOT NULL DEFAULT '',
		generated_at INTEGER NOT NULL
	)`,
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database file at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one connection serializes writers and keeps the pragmas below in effect
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{`PRAGMA busy_timeout = 5000`, `PRAGMA foreign_keys = ON`} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", pragma, err)
		}
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) Ledger(ctx context.Context, userID string) (*ledger.Ledger, error) {
	l := ledger.New(userID)

	var updated int64
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM preferences WHERE user_id = ?`, userID).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select preferences: %w", err)
	}
	l.UpdatedAt = time.Unix(0, updated).UTC()

	rows, err := s.db.QueryContext(ctx, `SELECT job_id, mark FROM preference_marks WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("select marks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var jobID, raw string
		if err := rows.Scan(&jobID, &raw); err != nil {
			return nil, fmt.Errorf("scan mark: %w", err)
		}
		mark, err := ledger.ParseMark(raw)
		if err != nil {
			return nil, err
		}
		l.Apply(jobID, mark)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select marks: %w", err)
	}
	return l, nil
}

func (s *Store) Create(ctx context.Context, userID string) (*ledger.Ledger, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (user_id, updated_at) VALUES (?, ?) ON CONFLICT (user_id) DO NOTHING`,
		userID, s.now().UnixNano(),
	); err != nil {
		return nil, fmt.Errorf("insert preferences: %w", err)
	}
	return s.Ledger(ctx, userID)
}

func (s *Store) Mark(ctx context.Context, userID, jobID string, mark ledger.Mark) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO preferences (user_id, updated_at) VALUES (?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = excluded.updated_at`,
		userID, s.now().UnixNano(),
	); err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO preference_marks (user_id, job_id, mark) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, job_id) DO UPDATE SET mark = excluded.mark`,
		userID, jobID, string(mark),
	); err != nil {
		return fmt.Errorf("upsert mark: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) Unmark(ctx context.Context, userID, jobID string, mark ledger.Mark) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM preference_marks WHERE user_id = ? AND job_id = ? AND mark = ?`,
		userID, jobID, string(mark),
	)
	if err != nil {
		return fmt.Errorf("delete mark: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE preferences SET updated_at = ? WHERE user_id = ?`,
			s.now().UnixNano(), userID,
		); err != nil {
			return fmt.Errorf("update preferences: %w", err)
		}
	}
	return nil
}

func (s *Store) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM preferences ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	users := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

const postingColumns = `id, title, company, location, salary_from, salary_to, currency, remote, skills, status, created_at`

func (s *Store) UpsertPosting(ctx context.Context, p jobs.Posting) error {
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	encoded, err := json.Marshal(skills)
	if err != nil {
		return fmt.Errorf("encode skills: %w", err)
	}

	created := p.CreatedAt
	if created.IsZero() {
		created = s.now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO job_postings (`+postingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   title = excluded.title,
		   company = excluded.company,
		   location = excluded.location,
		   salary_from = excluded.salary_from,
		   salary_to = excluded.salary_to,
		   currency = excluded.currency,
		   remote = excluded.remote,
		   skills = excluded.skills,
		   status = excluded.status`,
		p.ID, p.Title, p.Company, p.Location, p.SalaryFrom, p.SalaryTo, p.Currency, p.Remote,
		string(encoded), string(p.Status), created.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert posting %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) SetPostingStatus(ctx context.Context, id string, status jobs.Status) error {
	res, err := s.db.ExecContext(ctx, `UPDATE job_postings SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update posting %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update posting %s: %w", id, err)
	}
	if n == 0 {
		return jobs.ErrNotFound
	}
	return nil
}

func (s *Store) OpenPostings(ctx context.Context, limit int) ([]jobs.Posting, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postingColumns+` FROM job_postings
		 WHERE status = ?
		 ORDER BY created_at DESC, id
		 LIMIT ?`,
		string(jobs.StatusOpen), limit,
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
	p, err := scanPosting(s.db.QueryRowContext(ctx, `SELECT `+postingColumns+` FROM job_postings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, jobs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select posting %s: %w", id, err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPosting(row scanner) (*jobs.Posting, error) {
	var (
		p       jobs.Posting
		skills  string
		status  string
		created int64
	)
	if err := row.Scan(
		&p.ID, &p.Title, &p.Company, &p.Location,
		&p.SalaryFrom, &p.SalaryTo, &p.Currency, &p.Remote,
		&skills, &status, &created,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(skills), &p.Skills); err != nil {
		return nil, fmt.Errorf("decode skills of %s: %w", p.ID, err)
	}
	if len(p.Skills) == 0 {
		p.Skills = nil
	}
	p.Status = jobs.Status(status)
	p.CreatedAt = time.Unix(0, created).UTC()
	return &p, nil
}

func (s *Store) SaveSummary(ctx context.Context, sum summary.Summary) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preference_summaries (user_id, summary, model, generated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   summary = excluded.summary,
		   model = excluded.model,
		   generated_at = excluded.generated_at`,
		sum.UserID, sum.Text, sum.Model, sum.GeneratedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

func (s *Store) Summary(ctx context.Context, userID string) (*summary.Summary, error) {
	sum := summary.Summary{UserID: userID}
	var generated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT summary, model, generated_at FROM preference_summaries WHERE user_id = ?`,
		userID,
	).Scan(&sum.Text, &sum.Model, &generated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, summary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select summary: %w", err)
	}
	sum.GeneratedAt = time.Unix(0, generated).UTC()
	return &sum, nil
}
