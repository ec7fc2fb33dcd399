package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Lixing-Zhang/medicine-catalog/pkg/logger"
)

func TestRedisStore_Contract(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis store tests")
	}

	storeContract(t, func(t *testing.T) CatalogStore {
		rdb := goredis.NewClient(&goredis.Options{Addr: addr})
		if err := rdb.Ping(t.Context()).Err(); err != nil {
			t.Fatalf("redis ping failed: %v", err)
		}

		s := NewRedisStore(rdb, "test-"+uuid.NewString(), logger.Discard())
		t.Cleanup(func() {
			_, _ = s.DeleteAll(context.Background())
			_ = s.Close()
		})
		return s
	})
}
