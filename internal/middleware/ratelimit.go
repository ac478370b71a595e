package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/session-api/pkg/config"
	appErrors "github.com/noah-isme/session-api/pkg/errors"
)

const rateLimitKeyPrefix = "ratelimit:"

// fixedWindow increments the counter and starts the window on first hit.
var fixedWindow = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// RateLimit counts requests per client IP in Redis over a fixed window.
// When Redis cannot be reached the request is let through.
func RateLimit(client redis.Scripter, cfg config.RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	window := cfg.Window
	if window <= 0 {
		window = 15 * time.Minute
	}
	limit := cfg.MaxRequests
	if limit <= 0 {
		limit = 100
	}

	return func(c *gin.Context) {
		if client == nil {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		res, err := fixedWindow.Run(ctx, client, []string{rateLimitKeyPrefix + c.ClientIP()}, window.Milliseconds()).Int64Slice()
		if err != nil || len(res) != 2 {
			logger.Warn("rate limiter unavailable", zap.String("ip", c.ClientIP()), zap.Error(err))
			c.Next()
			return
		}

		count, ttlMs := res[0], res[1]
		if ttlMs < 0 {
			ttlMs = window.Milliseconds()
		}
		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("RateLimit-Limit", strconv.Itoa(limit))
		c.Header("RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("RateLimit-Reset", strconv.FormatInt((ttlMs+999)/1000, 10))

		if count > int64(limit) {
			c.Header("Retry-After", strconv.FormatInt((ttlMs+999)/1000, 10))
			c.AbortWithStatusJSON(appErrors.ErrTooManyRequests.Status, gin.H{"error": appErrors.ErrTooManyRequests.Message})
			return
		}

		c.Next()
	}
}
