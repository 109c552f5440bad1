package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/SparkCircle/internal/adapters/signal"
	"github.com/dkeye/SparkCircle/internal/domain"
)

// RateLimitMiddleware throttles requests per client IP.
func RateLimitMiddleware(limiter *signal.KeyedRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		log.Warn().Str("module", "adapters.http").Str("ip", c.ClientIP()).Str("path", c.FullPath()).Msg("rate limited")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody(domain.ErrRateLimited))
	}
}
