package headhunter

import (
	"strings"
	"time"

	"github.com/spigell/jobswipe/internal/jobs"
)

// IDPrefix namespaces imported vacancy ids in the postings table.
const IDPrefix = "hh-"

const (
	remoteSchedule = "remote"
	timeLayout     = "2006-01-02T15:04:05-0700"
)

type Vacancies struct {
	Items []*Vacancy
}

type NamedRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type Salary struct {
	From     int    `json:"from,omitempty"`
	To       int    `json:"to,omitempty"`
	Currency string `json:"currency,omitempty"`
	Gross    bool   `json:"gross,omitempty"`
}

type Employer struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Trusted      bool   `json:"trusted,omitempty"`
}

type Vacancy struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name,omitempty"`
	Area         NamedRef `json:"area,omitempty"`
	Salary       Salary   `json:"salary,omitempty"`
	Experience   NamedRef `json:"experience,omitempty"`
	Schedule     NamedRef `json:"schedule,omitempty"`
	Employment   NamedRef `json:"employment,omitempty"`
	Employer     Employer `json:"employer,omitempty"`
	AlternateURL string   `json:"alternate_url,omitempty"`
	KeySkills    []struct {
		Name string `json:"name,omitempty"`
	} `json:"key_skills,omitempty"`
	Archived    bool   `json:"archived,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

func (v *Vacancies) Len() int {
	return len(v.Items)
}

// Postings converts the vacancies in order, skipping ones without an id.
func (v *Vacancies) Postings() []jobs.Posting {
	postings := make([]jobs.Posting, 0, len(v.Items))
	for _, vacancy := range v.Items {
		if vacancy == nil || vacancy.ID == "" {
			continue
		}
		postings = append(postings, vacancy.Posting())
	}
	return postings
}

// Posting maps a vacancy to a job posting. Archived vacancies are closed.
func (va *Vacancy) Posting() jobs.Posting {
	p := jobs.Posting{
		ID:         IDPrefix + va.ID,
		Title:      strings.TrimSpace(va.Name),
		Company:    strings.TrimSpace(va.Employer.Name),
		Location:   strings.TrimSpace(va.Area.Name),
		SalaryFrom: va.Salary.From,
		SalaryTo:   va.Salary.To,
		Currency:   va.Salary.Currency,
		Remote:     va.Schedule.ID == remoteSchedule,
		Status:     jobs.StatusOpen,
	}

	if va.Archived {
		p.Status = jobs.StatusClosed
	}

	for _, skill := range va.KeySkills {
		if name := strings.TrimSpace(skill.Name); name != "" {
			p.Skills = append(p.Skills, name)
		}
	}

	published := va.PublishedAt
	if published == "" {
		published = va.CreatedAt
	}
	if t, err := time.Parse(timeLayout, published); err == nil {
		p.CreatedAt = t.UTC()
	}

	return p
}
