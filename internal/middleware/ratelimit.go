package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/assocsite/portal/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig is a fixed-window limit per client IP.
type RateLimitConfig struct {
	Prefix string
	Max    int64
	Window time.Duration
}

// RateLimit rejects clients exceeding cfg.Max requests per window with 429.
// Redis failures let the request through.
func RateLimit(rdb *redis.Client, cfg RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		window := time.Now().UnixNano() / int64(cfg.Window)
		key := fmt.Sprintf("portal:rate_limit:%s:%s:%d", cfg.Prefix, ip, window)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limit unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			rdb.PExpire(ctx, key, cfg.Window+time.Second)
		}

		if count > cfg.Max {
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window/time.Second)))
			response.TooManyRequests(c, "Too many requests, please slow down")
			return
		}
		c.Next()
	}
}
