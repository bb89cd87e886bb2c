package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobswipe/internal/logger"
)

// Service is the entry point for reading and mutating ledgers.
// The user id is always passed explicitly.
type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, log *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.WithFields(log, zap.String("component", "ledger")),
	}
}

// Get returns the ledger of userID, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, userID string) (*Ledger, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidID
	}

	l, err := s.store.Ledger(ctx, userID)
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get ledger for %s: %w", userID, err)
	}

	l, err = s.store.Create(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("create ledger for %s: %w", userID, err)
	}

	s.logger.Debug("created empty ledger", logger.UserFields(userID, "")...)
	return l, nil
}

func (s *Service) Like(ctx context.Context, userID, jobID string) error {
	return s.mark(ctx, userID, jobID, MarkLiked)
}

func (s *Service) Dislike(ctx context.Context, userID, jobID string) error {
	return s.mark(ctx, userID, jobID, MarkDisliked)
}

func (s *Service) Unlike(ctx context.Context, userID, jobID string) error {
	return s.unmark(ctx, userID, jobID, MarkLiked)
}

func (s *Service) Undislike(ctx context.Context, userID, jobID string) error {
	return s.unmark(ctx, userID, jobID, MarkDisliked)
}

// LikedJobs returns liked job ids in ascending order.
func (s *Service) LikedJobs(ctx context.Context, userID string) ([]string, error) {
	l, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return l.Liked.Sorted(), nil
}

// DislikedJobs returns disliked job ids in ascending order.
func (s *Service) DislikedJobs(ctx context.Context, userID string) ([]string, error) {
	l, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return l.Disliked.Sorted(), nil
}

// Users lists every user with a ledger.
func (s *Service) Users(ctx context.Context) ([]string, error) {
	users, err := s.store.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ledger users: %w", err)
	}
	return users, nil
}

func (s *Service) mark(ctx context.Context, userID, jobID string, mark Mark) error {
	userID, jobID, err := normalizeIDs(userID, jobID)
	if err != nil {
		return err
	}

	if err := s.store.Mark(ctx, userID, jobID, mark); err != nil {
		return fmt.Errorf("mark %s as %s for %s: %w", jobID, mark, userID, err)
	}

	s.logger.Debug("job marked", append(logger.UserFields(userID, jobID), zap.String("mark", string(mark)))...)
	return nil
}

func (s *Service) unmark(ctx context.Context, userID, jobID string, mark Mark) error {
	userID, jobID, err := normalizeIDs(userID, jobID)
	if err != nil {
		return err
	}

	if err := s.store.Unmark(ctx, userID, jobID, mark); err != nil {
		return fmt.Errorf("unmark %s from %s for %s: %w", jobID, mark, userID, err)
	}

	s.logger.Debug("job unmarked", append(logger.UserFields(userID, jobID), zap.String("mark", string(mark)))...)
	return nil
}

func normalizeIDs(userID, jobID string) (string, string, error) {
	userID = strings.TrimSpace(userID)
	jobID = strings.TrimSpace(jobID)
	if userID == "" || jobID == "" {
		return "", "", ErrInvalidID
	}
	return userID, jobID, nil
}
