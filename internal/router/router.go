package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"invoicerecon/internal/handler"
	"invoicerecon/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	log logrus.FieldLogger,
	allowedOrigins []string,
	sessionH *handler.SessionHandler,
	exportH *handler.ExportHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Session routes
	sessions := v1.Group("/sessions")
	sessions.POST("", sessionH.Create)
	sessions.GET("", sessionH.List)
	sessions.GET("/:id", sessionH.Get)
	sessions.DELETE("/:id", sessionH.Delete)
	sessions.POST("/:id/documents", sessionH.Upload)

	// Export routes
	sessions.GET("/:id/export/:artifact", exportH.Download)
	sessions.POST("/:id/publish", exportH.Publish)

	return r
}
