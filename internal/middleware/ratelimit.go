package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit applies a per-API-key token bucket: rps tokens per second up to
// burst, one token per request, 429 when the bucket is empty. This is the
// inbound guard; the outbound guard on the completion provider lives in the
// prediction service.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		key, exists := c.Get("api_key")
		if !exists {
			// Auth middleware did not run on this route.
			c.Next()
			return
		}

		apiKey := key.(string)

		mu.Lock()
		limiter, ok := limiters[apiKey]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[apiKey] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
