package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mdx-backend/internal/bootstrap"
	"mdx-backend/internal/shared/metrics"
	"mdx-backend/internal/shared/server/middleware"
	"mdx-backend/internal/shared/server/respond"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(app.Config.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	app.DocumentsHandler.RegisterRoutes(api)

	return r
}
