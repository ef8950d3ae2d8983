package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bitebook/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger.Named("access")))
	router.Use(MetricsMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	places := router.Group("/places")
	{
		places.GET("/feed", handler.GetFeed)
		places.GET("/place/:id", handler.GetPlace)
		places.POST("/add", handler.AddPlace)
		places.POST("/update/:id", handler.UpdatePlace)
		places.PUT("/delete/:id", handler.DeletePlace)
		places.POST("/resolve", handler.ResolvePending)
	}

	return router
}
