package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"storekit-relay/internal/config"
)

func adminRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin", AdminAuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func adminRequest(router *gin.Engine, header, query string) *httptest.ResponseRecorder {
	target := "/admin"
	if query != "" {
		target += "?api_key=" + query
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if header != "" {
		req.Header.Set("X-API-Key", header)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestAdminAuthMiddleware(t *testing.T) {
	previous := config.AppConfig
	defer func() { config.AppConfig = previous }()
	config.AppConfig = &config.Config{AdminAPIKey: "secret"}
	router := adminRouter()

	assert.Equal(t, http.StatusOK, adminRequest(router, "secret", "").Code)
	assert.Equal(t, http.StatusOK, adminRequest(router, "", "secret").Code)
	assert.Equal(t, http.StatusUnauthorized, adminRequest(router, "wrong", "").Code)
	assert.Equal(t, http.StatusUnauthorized, adminRequest(router, "", "").Code)
}

func TestAdminAuthMiddlewareUnconfigured(t *testing.T) {
	previous := config.AppConfig
	defer func() { config.AppConfig = previous }()
	config.AppConfig = &config.Config{}
	router := adminRouter()

	assert.Equal(t, http.StatusServiceUnavailable, adminRequest(router, "secret", "").Code)
}
