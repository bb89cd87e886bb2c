// Package summary asks a hosted language model to describe a user's job
// preferences from a sample of their liked and disliked postings.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/jobswipe/internal/ai"
	"github.com/spigell/jobswipe/internal/jobs"
	"github.com/spigell/jobswipe/internal/ledger"
	"github.com/spigell/jobswipe/internal/logger"
	"github.com/spigell/jobswipe/internal/utils"
)

var (
	// ErrNotFound is returned by stores when no summary was generated for the user yet.
	ErrNotFound = errors.New("summary not found")
	// ErrNothingToSummarize is returned when none of the sampled postings could be resolved.
	ErrNothingToSummarize = errors.New("no resolvable postings to summarize")
)

const (
	defaultLikedLimit    = 3
	defaultDislikedLimit = 3
	defaultMaxWords      = 100
	defaultMaxLogLength  = 200

	systemInstruction = "You write short, factual summaries of job seekers' preferences."
)

//go:embed prompt.md
var promptTemplate string

// Summary is the latest generated description of a user's preferences.
// Regeneration overwrites it; no history is kept.
type Summary struct {
	UserID      string    `json:"userId"`
	Text        string    `json:"text"`
	Model       string    `json:"model,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type Preferences interface {
	LikedJobs(ctx context.Context, userID string) ([]string, error)
	DislikedJobs(ctx context.Context, userID string) ([]string, error)
}

type PostingResolver interface {
	Posting(ctx context.Context, id string) (*jobs.Posting, error)
}

type Store interface {
	SaveSummary(ctx context.Context, s Summary) error
	// Summary returns the stored summary of userID or ErrNotFound.
	Summary(ctx context.Context, userID string) (*Summary, error)
}

type Options struct {
	LikedLimit    int
	DislikedLimit int
	MaxWords      int
	MaxLogLength  int
}

func (o Options) withDefaults() Options {
	if o.LikedLimit <= 0 {
		o.LikedLimit = defaultLikedLimit
	}
	if o.DislikedLimit <= 0 {
		o.DislikedLimit = defaultDislikedLimit
	}
	if o.MaxWords <= 0 {
		o.MaxWords = defaultMaxWords
	}
	if o.MaxLogLength <= 0 {
		o.MaxLogLength = defaultMaxLogLength
	}
	return o
}

type Summarizer struct {
	generator ai.Generator
	prefs     Preferences
	postings  PostingResolver
	store     Store
	opts      Options
	logger    *zap.Logger

	now func() time.Time
}

func New(generator ai.Generator, prefs Preferences, postings PostingResolver, store Store, opts Options, log *zap.Logger) *Summarizer {
	return &Summarizer{
		generator: generator,
		prefs:     prefs,
		postings:  postings,
		store:     store,
		opts:      opts.withDefaults(),
		logger:    logger.WithFields(log, zap.String("component", "summary")),
		now:       time.Now,
	}
}

// Summarize generates and stores a fresh summary for userID. Nothing is stored
// when any step fails. Postings that cannot be resolved are skipped.
func (s *Summarizer) Summarize(ctx context.Context, userID, displayName string) (*Summary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ledger.ErrInvalidID
	}
	if s.generator == nil {
		return nil, errors.New("language model is not configured")
	}

	liked, err := s.prefs.LikedJobs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read liked jobs: %w", err)
	}
	disliked, err := s.prefs.DislikedJobs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read disliked jobs: %w", err)
	}

	likedPostings := s.resolve(ctx, userID, head(liked, s.opts.LikedLimit))
	dislikedPostings := s.resolve(ctx, userID, head(disliked, s.opts.DislikedLimit))
	if len(likedPostings) == 0 && len(dislikedPostings) == 0 {
		return nil, ErrNothingToSummarize
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = userID
	}
	prompt := buildPrompt(name, likedPostings, dislikedPostings, s.opts.MaxWords)

	log := logger.WithFields(s.logger, append(logger.UserFields(userID, ""), logger.CommonFields("", s.generator.Model())...)...)
	log.Debug("summary prompt",
		zap.Int("liked", len(likedPostings)),
		zap.Int("disliked", len(dislikedPostings)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.opts.MaxLogLength)),
	)

	raw, err := s.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, errors.New("language model returned an empty summary")
	}

	log.Debug("summary response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, s.opts.MaxLogLength)),
	)

	sum := Summary{
		UserID:      userID,
		Text:        text,
		Model:       s.generator.Model(),
		GeneratedAt: s.now().UTC(),
	}
	if err := s.store.SaveSummary(ctx, sum); err != nil {
		return nil, fmt.Errorf("save summary: %w", err)
	}

	log.Info("summary stored")
	return &sum, nil
}

// Get returns the stored summary of userID.
func (s *Summarizer) Get(ctx context.Context, userID string) (*Summary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ledger.ErrInvalidID
	}

	sum, err := s.store.Summary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get summary for %s: %w", userID, err)
	}
	return sum, nil
}

func (s *Summarizer) resolve(ctx context.Context, userID string, ids []string) []jobs.Posting {
	postings := make([]jobs.Posting, 0, len(ids))
	for _, id := range ids {
		p, err := s.postings.Posting(ctx, id)
		if err != nil {
			s.logger.Warn("skip unresolved posting", append(logger.UserFields(userID, id), zap.Error(err))...)
			continue
		}
		postings = append(postings, *p)
	}
	return postings
}

func head(ids []string, n int) []string {
	if len(ids) > n {
		return ids[:n]
	}
	return ids
}

func buildPrompt(name string, liked, disliked []jobs.Posting, maxWords int) string {
	r := strings.NewReplacer(
		"{{NAME}}", name,
		"{{LIKED}}", describe(liked),
		"{{DISLIKED}}", describe(disliked),
		"{{MAX_WORDS}}", strconv.Itoa(maxWords),
	)
	return r.Replace(promptTemplate)
}

func describe(postings []jobs.Posting) string {
	if len(postings) == 0 {
		return "- none"
	}

	lines := make([]string, 0, len(postings))
	for i := range postings {
		p := &postings[i]
		line := "- " + p.Label()
		if salary := p.Salary(); salary != "" {
			line += " (" + salary + ")"
		}
		if len(p.Skills) > 0 {
			line += "; skills: " + strings.Join(p.Skills, ", ")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
