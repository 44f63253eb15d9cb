package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/response"
)

// Counter increments a windowed counter and returns the new value.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RedisCounter is a Counter backed by INCR + EXPIRE.
type RedisCounter struct {
	rdb *redis.Client
}

// NewRedisCounter creates a RedisCounter.
func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

// Incr implements Counter.
func (r *RedisCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimiter is a fixed-window limiter shared by all server instances.
type RateLimiter struct {
	counter  Counter
	limit    int
	interval time.Duration
	key      func(c *gin.Context, window int64) string
	now      func() time.Time
}

// NewRateLimiter allows limit requests per interval for each key.
// key receives the window number and must embed it in the returned key.
func NewRateLimiter(counter Counter, limit int, interval time.Duration, key func(c *gin.Context, window int64) string) *RateLimiter {
	return &RateLimiter{
		counter:  counter,
		limit:    limit,
		interval: interval,
		key:      key,
		now:      time.Now,
	}
}

// Middleware returns a Gin middleware that rejects requests over the limit.
// Counter failures let the request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		now := rl.now()
		window := now.UnixNano() / int64(rl.interval)
		n, err := rl.counter.Incr(c.Request.Context(), rl.key(c, window), rl.interval)
		if err != nil {
			response.Logger(c).Warn().Err(err).Msg("Rate limit counter unavailable")
			c.Next()
			return
		}

		remaining := rl.limit - int(n)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if int(n) > rl.limit {
			reset := time.Unix(0, (window+1)*int64(rl.interval))
			c.Header("Retry-After", strconv.Itoa(int(reset.Sub(now).Seconds())+1))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}

		c.Next()
	}
}
