// Package middleware contains Gin middleware: API-key auth, CORS, and
// per-key rate limiting.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth validates API keys from the X-API-Key header or the api_key
// query parameter. The accepted key is stored in the request context so the
// rate limiter can bucket by key.
func APIKeyAuth(validKeys []string) gin.HandlerFunc {
	keySet := make(map[string]struct{}, len(validKeys))
	for _, k := range validKeys {
		keySet[k] = struct{}{}
	}

	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			key = c.Query("api_key")
		}

		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing API key",
			})
			return
		}

		if _, ok := keySet[key]; !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid API key",
			})
			return
		}

		c.Set("api_key", key)
		c.Next()
	}
}

// AdminKeyAuth validates admin keys for the stats endpoints. Same mechanics
// as APIKeyAuth but a wrong key is a 403, not a 401.
func AdminKeyAuth(adminKeys []string) gin.HandlerFunc {
	keySet := make(map[string]struct{}, len(adminKeys))
	for _, k := range adminKeys {
		keySet[k] = struct{}{}
	}

	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" {
			key = c.Query("api_key")
		}

		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing admin API key",
			})
			return
		}

		if _, ok := keySet[key]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "invalid admin API key",
			})
			return
		}

		c.Set("api_key", key)
		c.Next()
	}
}
