package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter shares a fixed-window counter across server instances.
// When Redis is unreachable requests are let through.
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	count, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, fmt.Errorf("incr %s: %w", redisKey, err)
	}

	// Every counter must carry a TTL. If the EXPIRE that opened the window
	// was lost, the next request starts a fresh one.
	needsExpire := count == 1
	if !needsExpire {
		ttl, err := rl.client.TTL(ctx, redisKey).Result()
		if err != nil {
			return true, fmt.Errorf("ttl %s: %w", redisKey, err)
		}
		needsExpire = ttl < 0
	}
	if needsExpire {
		if err := rl.client.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			return true, fmt.Errorf("expire %s: %w", redisKey, err)
		}
	}
	return count <= int64(rl.limit), nil
}

// AllowKey is Allow with a short deadline; Redis errors are logged and let through.
func (rl *RedisRateLimiter) AllowKey(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	allowed, err := rl.Allow(ctx, key)
	if err != nil {
		log.Printf("rate limiter: %v", err)
	}
	return allowed
}

func (rl *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.AllowKey(r.Context(), ClientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
