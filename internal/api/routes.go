package api

import (
	"storekit-relay/internal/middleware"
	"storekit-relay/internal/services"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up all routes
func SetupRoutes(r *gin.Engine, pipeline *services.Pipeline) {
	// API route group
	api := r.Group("/api")
	{
		// App Store notification routes (no authentication, Apple calls these)
		appstore := api.Group("/appstore")
		{
			appstore.POST("/notifications/production", AppStoreNotificationHandler(pipeline, "production"))
			appstore.POST("/notifications/sandbox", AppStoreNotificationHandler(pipeline, "sandbox"))
		}

		// Tenant management routes (for admin use)
		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware())
		{
			admin.GET("/tenants", ListTenants)
			admin.POST("/tenants", CreateTenant)
			admin.PUT("/tenants/:id", UpdateTenant)
			admin.DELETE("/tenants/:id", DeleteTenant)
		}
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "storekit-relay",
		})
	})
}
