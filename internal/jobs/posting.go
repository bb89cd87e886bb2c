// Package jobs describes job postings as seen by the candidate side of the board.
// Postings are owned and mutated elsewhere; this package only reads them.
package jobs

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by posting sources when a posting id is unknown.
var ErrNotFound = errors.New("posting not found")

// Status is the lifecycle state of a posting.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusOpen    Status = "open"
	StatusClosed  Status = "closed"
	StatusExpired Status = "expired"
	StatusFilled  Status = "filled"
)

// ParseStatus converts a raw string to a Status, returning an error for unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusDraft, StatusOpen, StatusClosed, StatusExpired, StatusFilled:
		return st, nil
	}
	return "", fmt.Errorf("unknown posting status %q", s)
}

type Posting struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Company    string    `json:"company"`
	Location   string    `json:"location,omitempty"`
	SalaryFrom int       `json:"salary_from,omitempty"`
	SalaryTo   int       `json:"salary_to,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	Remote     bool      `json:"remote"`
	Skills     []string  `json:"skills,omitempty"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func (p *Posting) IsOpen() bool {
	return p != nil && p.Status == StatusOpen
}

// Salary renders the salary range for display, e.g. "100000-150000 RUB".
// An empty string means the posting has no salary information.
func (p *Posting) Salary() string {
	switch {
	case p.SalaryFrom > 0 && p.SalaryTo > 0:
		return strings.TrimSpace(fmt.Sprintf("%d-%d %s", p.SalaryFrom, p.SalaryTo, p.Currency))
	case p.SalaryFrom > 0:
		return strings.TrimSpace(fmt.Sprintf("from %d %s", p.SalaryFrom, p.Currency))
	case p.SalaryTo > 0:
		return strings.TrimSpace(fmt.Sprintf("up to %d %s", p.SalaryTo, p.Currency))
	default:
		return ""
	}
}

// Label is a one-line description used by the terminal UI and in prompts.
func (p *Posting) Label() string {
	parts := []string{p.Title}
	if p.Company != "" {
		parts = append(parts, p.Company)
	}
	if p.Location != "" {
		parts = append(parts, p.Location)
	}
	if p.Remote {
		parts = append(parts, "remote")
	}
	return strings.Join(parts, " / ")
}

// IDs returns posting ids in the order of the input slice.
func IDs(postings []Posting) []string {
	ids := make([]string, 0, len(postings))
	for _, p := range postings {
		ids = append(ids, p.ID)
	}
	return ids
}
