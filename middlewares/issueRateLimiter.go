package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	authUtils "civicsync-workflow/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// rateCounter is the subset of the Redis client the limiter needs.
type rateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RateLimitConfig bounds how many issues one citizen may report per window.
type RateLimitConfig struct {
	Prefix string
	Limit  int
	Window time.Duration
}

// IssueRateLimiter counts requests per caller in Redis and rejects with 429
// once the window's limit is exceeded.
func IssueRateLimiter(store rateCounter, cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	return func(c *gin.Context) {
		userID := c.GetString(authUtils.UserIDKey)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		userKey := cfg.Prefix + ":" + userID

		count, err := store.Incr(ctx, userKey).Result()
		if err != nil {
			slog.Error("rate limit increment failed", "key", userKey, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			c.Abort()
			return
		}

		// First hit in a window starts the clock.
		if count == 1 {
			if err := store.Expire(ctx, userKey, cfg.Window).Err(); err != nil {
				slog.Error("rate limit expire failed", "key", userKey, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
				c.Abort()
				return
			}
		}

		if count > int64(cfg.Limit) {
			retryAfter, _ := store.TTL(ctx, userKey).Result()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
