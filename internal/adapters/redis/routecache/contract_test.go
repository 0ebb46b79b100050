package routecache

import (
	"context"
	"os"
	"testing"

	"github.com/go-redis/redis/v8"

	"github.com/Thepalm86/tripweaver/internal/adapters/contracttest"
	routecacheport "github.com/Thepalm86/tripweaver/internal/ports/out/routecache"
)

func TestContract_RedisRouteCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis tests")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}

	contracttest.RunRouteCache(t, func(t *testing.T) (routecacheport.Cache, func()) {
		t.Helper()
		return NewCache(rdb), func() {
			_ = rdb.FlushDB(context.Background()).Err()
		}
	})
}
