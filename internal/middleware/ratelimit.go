package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tubefetch/api/internal/config"
	"github.com/tubefetch/api/pkg/response"
)

// RateLimiter enforces anonymous per-IP request limits. Counters live in
// Redis; when Redis is unavailable the limiter fails open.
type RateLimiter struct {
	redis  *redis.Client
	limits response.Limits
}

// NewRateLimiter builds a limiter that echoes the configured limits in 429
// responses.
func NewRateLimiter(redisClient *redis.Client, cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		redis: redisClient,
		limits: response.Limits{
			Default:       fmt.Sprintf("%d per minute", cfg.DefaultPerMin),
			StartDownload: fmt.Sprintf("%d per minute", cfg.StartPerMin),
			DownloadFile:  fmt.Sprintf("%d per minute", cfg.DownloadFilePerMin),
		},
	}
}

// Limit creates a rate limiting middleware for one route group.
func (rl *RateLimiter) Limit(keyPrefix string, maxRequests int) fiber.Handler {
	window := time.Minute
	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("ratelimit:%s:%s", keyPrefix, c.IP())
		ctx := context.Background()

		// Increment counter
		count, err := rl.redis.Incr(ctx, key).Result()
		if err != nil {
			// If Redis fails, allow the request
			return c.Next()
		}

		// Set expiration on first request
		if count == 1 {
			rl.redis.Expire(ctx, key, window)
		}

		if count > int64(maxRequests) {
			ttl, _ := rl.redis.TTL(ctx, key).Result()
			c.Set("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			return response.RateLimited(c, rl.limits)
		}

		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", maxRequests-int(count)))

		return c.Next()
	}
}

// StartLimit returns the limiter for POST /start_download.
func (rl *RateLimiter) StartLimit(maxPerMin int) fiber.Handler {
	return rl.Limit("start", maxPerMin)
}

// FileLimit returns the limiter for GET /download_file.
func (rl *RateLimiter) FileLimit(maxPerMin int) fiber.Handler {
	return rl.Limit("file", maxPerMin)
}

// DefaultLimit returns the limiter applied to remaining routes.
func (rl *RateLimiter) DefaultLimit(maxPerMin int) fiber.Handler {
	return rl.Limit("default", maxPerMin)
}
