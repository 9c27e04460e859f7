package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/voyago/travel-booking/internal/services"
)

// RateLimit rejects clients over their window budget with 429.
// Clients are keyed by X-Client-ID, falling back to the remote address.
// When redis fails the request is let through.
func RateLimit(limiter *services.RateLimiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader("X-Client-ID")
		if clientID == "" {
			clientID = c.ClientIP()
		}

		allowed, err := limiter.Allow(c.Request.Context(), clientID)
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request", zap.Error(err))
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
