package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/voyago/travel-booking/internal/clock"
	"github.com/voyago/travel-booking/internal/services"
)

func rateLimitedRouter(limiter *services.RateLimiter) *gin.Engine {
	r := gin.New()
	r.GET("/ping", RateLimit(limiter, zap.NewNop()), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func get(r *gin.Engine, clientID string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if clientID != "" {
		req.Header.Set("X-Client-ID", clientID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_RejectsOverBudget(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	limiter := services.NewRateLimiter(client, "trip", 2, time.Minute, clock.NewFixed(time.Now()))
	r := rateLimitedRouter(limiter)

	assert.Equal(t, http.StatusOK, get(r, "web"))
	assert.Equal(t, http.StatusOK, get(r, "web"))
	assert.Equal(t, http.StatusTooManyRequests, get(r, "web"))
	assert.Equal(t, http.StatusOK, get(r, "mobile"))
}

func TestRateLimit_AllowsWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	limiter := services.NewRateLimiter(client, "trip", 1, time.Minute, clock.NewSystem())
	mr.Close()

	r := rateLimitedRouter(limiter)
	assert.Equal(t, http.StatusOK, get(r, ""))
	assert.Equal(t, http.StatusOK, get(r, ""))
}

func TestRateLimit_DisabledWithoutRedis(t *testing.T) {
	r := rateLimitedRouter(services.NewRateLimiter(nil, "trip", 1, time.Minute, clock.NewSystem()))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, "web"))
	}
}
