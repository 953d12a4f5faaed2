package middleware

import (
	"net/http"
	"time"

	"storekit-relay/internal/config"
	"storekit-relay/internal/response"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware guards tenant management endpoints with the
// configured admin API key.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")

		// If not passed via header, try to get from query parameters
		if apiKey == "" {
			apiKey = c.Query("api_key")
		}

		configured := config.AppConfig.AdminAPIKey
		if configured == "" {
			c.JSON(http.StatusServiceUnavailable, response.Error("Admin API is not configured"))
			c.Abort()
			return
		}

		if apiKey != configured {
			c.JSON(http.StatusUnauthorized, response.Error("Invalid api_key"))
			c.Abort()
			return
		}

		c.Set("request_time", time.Now())
		c.Next()
	}
}
