package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ponderdome/ponderdome/pkg/logger"
)

// RateLimiter is satisfied by *cache.RedisClient.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

// NewRateLimit throttles writes per user, or per client IP when the request
// is anonymous. A limiter outage lets the request through.
func NewRateLimit(limiter RateLimiter, scope string, limit int, window time.Duration, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		who := GetUserID(c)
		if who == "" {
			who = "ip:" + c.ClientIP()
		}

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), scope+":"+who, limit, window)
		if err != nil {
			log.WithError(err).WithField("scope", scope).Warn("Rate limiter unavailable")
			c.Next()
			return
		}

		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}

		c.Next()
	}
}
