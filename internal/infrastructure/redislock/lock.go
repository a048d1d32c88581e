// Package redislock provides a cross-process lease so only one evaluation
// pass runs at a time across every service instance.
package redislock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements application.PassLocker with SET NX PX.
type Locker struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a Locker whose leases expire after ttl if never released.
func New(rdb *redis.Client, ttl time.Duration) *Locker {
	return &Locker{rdb: rdb, ttl: ttl}
}

// TryAcquire takes the lease for key. ok is false when another holder has it.
func (l *Locker) TryAcquire(ctx context.Context, key string) (release func(), ok bool, err error) {
	token := uuid.NewString()
	ok, err = l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release = func() {
		// Released on a fresh context so a cancelled pass still frees the lease.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to release pass lease")
		}
	}
	return release, true, nil
}
