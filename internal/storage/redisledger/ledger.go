// Package redisledger keeps ledgers in Redis sets. Each user has a liked and a
// disliked set; a mark is a MULTI/EXEC that removes the id from one set and
// adds it to the other.
package redisledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spigell/jobswipe/internal/ledger"
)

const DefaultPrefix = "jobswipe"

// Connect creates and verifies a Redis client connection.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

// LedgerStore implements ledger.Store.
type LedgerStore struct {
	rdb    redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewLedgerStore(rdb redis.Cmdable, prefix string) *LedgerStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &LedgerStore{rdb: rdb, prefix: prefix, now: time.Now}
}

func (s *LedgerStore) usersKey() string { return s.prefix + ":users" }

func (s *LedgerStore) metaKey(userID string) string {
	return s.prefix + ":preferences:" + userID
}

func (s *LedgerStore) setKey(userID string, mark ledger.Mark) string {
	return s.metaKey(userID) + ":" + string(mark)
}

func (s *LedgerStore) Ledger(ctx context.Context, userID string) (*ledger.Ledger, error) {
	var (
		exists   *redis.BoolCmd
		liked    *redis.StringSliceCmd
		disliked *redis.StringSliceCmd
		updated  *redis.StringCmd
	)
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		exists = p.SIsMember(ctx, s.usersKey(), userID)
		liked = p.SMembers(ctx, s.setKey(userID, ledger.MarkLiked))
		disliked = p.SMembers(ctx, s.setKey(userID, ledger.MarkDisliked))
		updated = p.HGet(ctx, s.metaKey(userID), "updated_at")
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if !exists.Val() {
		return nil, ledger.ErrNotFound
	}

	l := ledger.New(userID)
	l.Liked = ledger.NewSet(liked.Val()...)
	l.Disliked = ledger.NewSet(disliked.Val()...)
	if nanos, err := strconv.ParseInt(updated.Val(), 10, 64); err == nil {
		l.UpdatedAt = time.Unix(0, nanos).UTC()
	}
	return l, nil
}

func (s *LedgerStore) Create(ctx context.Context, userID string) (*ledger.Ledger, error) {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, s.usersKey(), userID)
		p.HSetNX(ctx, s.metaKey(userID), "updated_at", s.now().UnixNano())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create ledger: %w", err)
	}
	return s.Ledger(ctx, userID)
}

func (s *LedgerStore) Mark(ctx context.Context, userID, jobID string, mark ledger.Mark) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SRem(ctx, s.setKey(userID, mark.Opposite()), jobID)
		p.SAdd(ctx, s.setKey(userID, mark), jobID)
		p.SAdd(ctx, s.usersKey(), userID)
		p.HSet(ctx, s.metaKey(userID), "updated_at", s.now().UnixNano())
		return nil
	})
	if err != nil {
		return fmt.Errorf("mark %s: %w", mark, err)
	}
	return nil
}

func (s *LedgerStore) Unmark(ctx context.Context, userID, jobID string, mark ledger.Mark) error {
	removed, err := s.rdb.SRem(ctx, s.setKey(userID, mark), jobID).Result()
	if err != nil {
		return fmt.Errorf("unmark %s: %w", mark, err)
	}
	if removed > 0 {
		if err := s.rdb.HSet(ctx, s.metaKey(userID), "updated_at", s.now().UnixNano()).Err(); err != nil {
			return fmt.Errorf("touch ledger: %w", err)
		}
	}
	return nil
}

func (s *LedgerStore) Users(ctx context.Context) ([]string, error) {
	users, err := s.rdb.SMembers(ctx, s.usersKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	sort.Strings(users)
	return users, nil
}
