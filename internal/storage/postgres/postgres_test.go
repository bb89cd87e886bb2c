package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/spigell/jobswipe/internal/storage"
	"github.com/spigell/jobswipe/internal/storage/storetest"
)

const testURLEnv = "JOBSWIPE_TEST_POSTGRES_URL"

func TestStoreConformance(t *testing.T) {
	url := os.Getenv(testURLEnv)
	if url == "" {
		t.Skipf("%s is not set", testURLEnv)
	}

	storetest.Database(t, func(t *testing.T) storage.Database {
		ctx := context.Background()
		s, err := Connect(ctx, url)
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })

		if err := s.Migrate(ctx); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		if _, err := s.pool.Exec(ctx, `TRUNCATE job_postings, preferences, preference_summaries`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return s
	})
}

func TestColumnForMark(t *testing.T) {
	t.Parallel()

	if column("liked") != "like_job_ids" || column("disliked") != "dislike_job_ids" {
		t.Fatalf("unexpected column mapping")
	}
}
