package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/hms-api/pkg/errors"
	"github.com/noah-isme/hms-api/pkg/ratelimit"
	"github.com/noah-isme/hms-api/pkg/response"
)

type rateLimiter interface {
	Enabled() bool
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit caps requests per client IP and route. Without Redis, or when
// Redis fails, requests pass.
func RateLimit(limiter rateLimiter, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if limiter == nil || !limiter.Enabled() {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		allowed, err := limiter.Allow(c.Request.Context(), ratelimit.Key(c.ClientIP(), route))
		if err != nil {
			logger.Warn("rate limit check failed", zap.String("route", route), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			response.Abort(c, appErrors.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
