package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/assocsite/portal/internal/pkg/apperr"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader = "X-Idempotency-Key"
	idempotencyTTL    = 60 * time.Second
	idempotencyPrefix = "portal:idempotency:"
)

// Idempotency rejects a repeated write carrying the same X-Idempotency-Key from the same
// session while the first one is in flight or within a minute of its success.
// Requests without the header pass through. Redis failures let the request through.
func Idempotency(rdb *redis.Client, cookie SessionCookie, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
		if key == "" || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		redisKey := idempotencyPrefix + idempotencyDigest(cookie.Read(c), c.Request.Method, c.Request.URL.Path, key)
		ctx := c.Request.Context()

		acquired, err := rdb.SetNX(ctx, redisKey, "0", idempotencyTTL).Result()
		if err != nil {
			logger.Warn("idempotency check unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			msg := "An identical request succeeded recently"
			if val, err := rdb.Get(ctx, redisKey).Result(); err == nil && val == "0" {
				msg = "An identical request is still being processed"
			} else if err != nil && !errors.Is(err, redis.Nil) {
				logger.Warn("idempotency lookup failed", zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"ok":      0,
				"code":    http.StatusConflict,
				"error":   apperr.ValidationError,
				"message": msg,
			})
			return
		}

		c.Next()

		if status := c.Writer.Status(); status >= 200 && status < 300 {
			rdb.Set(ctx, redisKey, "1", redis.KeepTTL)
		} else {
			rdb.Del(ctx, redisKey)
		}
	}
}

func idempotencyDigest(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])
}
