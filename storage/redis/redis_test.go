package redis

import (
	"context"
	"os"
	"testing"

	"github.com/consorcioci/viernes/internal/uuid"
	"github.com/consorcioci/viernes/storage/storagetest"
)

// newTestStore connects to VIERNES_TEST_REDIS_URL under a random prefix so
// runs never see each other's keys. Tests skip when Redis is not configured.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("VIERNES_TEST_REDIS_URL")
	if url == "" {
		t.Skip("VIERNES_TEST_REDIS_URL not set; skipping Redis tests")
	}
	prefix := "viernes-test:" + uuid.New() + ":"
	s, err := NewRepositoryFromURL(context.Background(), url, prefix)
	if err != nil {
		t.Fatalf("could not connect to redis: %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := s.client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			s.client.Del(ctx, keys...) //nolint:errcheck
		}
		s.Close()
	})
	return s
}

func TestRedisStorage(t *testing.T) {
	storagetest.Run(t, newTestStore(t))
}

func TestDefaultPrefix(t *testing.T) {
	s := NewRepository(nil, "")
	if got := s.hashKey("session"); got != "viernes:session" {
		t.Fatalf("hashKey = %q, want %q", got, "viernes:session")
	}
}
