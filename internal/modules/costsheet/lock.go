// README: Per-entity mutation lock backed by Redis SET NX PX.
package costsheet

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"carrental/internal/types"
)

const lockKeyPrefix = "costsheet:lock:%s"

// Locker grants exclusive access to a key for at most ttl. The returned release
// func is safe to call once the lock has expired.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisLocker struct {
	redis *redis.Client
}

func NewRedisLocker(redis *redis.Client) *RedisLocker {
	return &RedisLocker{redis: redis}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	k := fmt.Sprintf(lockKeyPrefix, key)
	token := types.NewID().String()
	ok, err := l.redis.SetNX(ctx, k, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		// fresh context: the caller's may already be cancelled
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.redis, []string{k}, token).Err()
	}, nil
}
