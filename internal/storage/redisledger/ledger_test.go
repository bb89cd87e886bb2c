package redisledger

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/spigell/jobswipe/internal/ledger"
	"github.com/spigell/jobswipe/internal/storage/storetest"
)

const testURLEnv = "JOBSWIPE_TEST_REDIS_URL"

func TestLedgerStoreConformance(t *testing.T) {
	url := os.Getenv(testURLEnv)
	if url == "" {
		t.Skipf("%s is not set", testURLEnv)
	}

	rdb, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })

	storetest.Ledger(t, func(t *testing.T) ledger.Store {
		prefix := "jobswipe-test:" + uuid.NewString()
		t.Cleanup(func() {
			ctx := context.Background()
			keys, _ := rdb.Keys(ctx, prefix+":*").Result()
			if len(keys) > 0 {
				rdb.Del(ctx, keys...)
			}
		})
		return NewLedgerStore(rdb, prefix)
	})
}

func TestKeys(t *testing.T) {
	t.Parallel()

	s := NewLedgerStore(nil, "")
	if got := s.setKey("u1", ledger.MarkDisliked); got != "jobswipe:preferences:u1:disliked" {
		t.Fatalf("unexpected set key %q", got)
	}
	if got := s.usersKey(); got != "jobswipe:users" {
		t.Fatalf("unexpected users key %q", got)
	}
}
