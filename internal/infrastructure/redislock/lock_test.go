package redislock_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"onsalenow.io/analytics/internal/infrastructure/redislock"
)

func TestTryAcquire_BackendDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	release, ok, err := redislock.New(rdb, time.Minute).TryAcquire(context.Background(), "sellthrough:pass")
	if err == nil {
		t.Fatal("expected an error from an unreachable redis")
	}
	if ok || release != nil {
		t.Fatalf("ok = %v, release set = %v", ok, release != nil)
	}
}
