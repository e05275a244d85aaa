package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// windowScript increments the key and starts its expiry on first use, so the
// count and the window deadline move together atomically.
var windowScript = redis.NewScript(`
    local key = KEYS[1]
    local window_ms = tonumber(ARGV[1])

    local count = redis.call('INCR', key)
    if count == 1 then
        redis.call('PEXPIRE', key, window_ms)
    end
    return count
`)

// Redis is the shared fixed-window limiter. Counters live in Redis with a
// TTL equal to the window, so every instance of the service sees the same
// counts. Errors fail open: an unreachable Redis must not take the login
// endpoint down with it.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis wraps an established client. prefix namespaces the keys.
func NewRedis(rdb *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "rl"
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

// Allow implements Limiter.
func (r *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	count, err := windowScript.Run(ctx, r.rdb, []string{r.prefix + ":" + key}, window.Milliseconds()).Int64()
	if err != nil {
		log.Printf("ratelimit: redis error for key=%s: %v", key, err)
		return true
	}
	return count <= int64(limit)
}
