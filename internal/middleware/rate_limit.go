package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimit allows Requests per client within each fixed Window.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// RateLimiter counts requests per client IP in Redis.
type RateLimiter struct {
	redisClient *redis.Client
}

// NewRateLimiter counts requests in Redis. With a nil client every request is
// allowed.
func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redisClient: redisClient}
}

func rateLimitKey(name, clientIP string) string {
	return fmt.Sprintf("lmsdesk:rate_limit:%s:%s", name, clientIP)
}

// hit increments the window counter and returns the new count and the time
// left in the window.
func (rl *RateLimiter) hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	pipe := rl.redisClient.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	left := ttl.Val()
	if left <= 0 {
		// first hit of the window, or a key left without expiry
		if err := rl.redisClient.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		left = window
	}
	return incr.Val(), left, nil
}

// Limit enforces limit under the given bucket name. Requests go through when
// Redis is unreachable.
func (rl *RateLimiter) Limit(name string, limit RateLimit) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.redisClient == nil {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		count, left, err := rl.hit(ctx, rateLimitKey(name, c.ClientIP()), limit.Window)
		cancel()
		if err != nil {
			c.Next()
			return
		}

		remaining := max(int64(limit.Requests)-count, 0)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(left).Unix(), 10))

		if count > int64(limit.Requests) {
			c.Header("Retry-After", strconv.Itoa(int(left.Round(time.Second)/time.Second)))
			abort(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests. Please try again later.")
			return
		}
		c.Next()
	}
}

// AuthLimit guards the login endpoint.
func (rl *RateLimiter) AuthLimit() gin.HandlerFunc {
	return rl.Limit("auth", RateLimit{Requests: 5, Window: time.Minute})
}

func (rl *RateLimiter) APILimit() gin.HandlerFunc {
	return rl.Limit("api", RateLimit{Requests: 300, Window: time.Minute})
}

// SearchLimit bounds keystroke traffic into the catalog search debouncer.
func (rl *RateLimiter) SearchLimit() gin.HandlerFunc {
	return rl.Limit("search", RateLimit{Requests: 60, Window: time.Minute})
}
