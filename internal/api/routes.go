package api

import (
	"github.com/gin-gonic/gin"

	"github.com/stridelab/stridecoach/internal/api/handlers"
)

// SetupRoutes wires all HTTP endpoints onto the router.
func SetupRoutes(router *gin.Engine, health *handlers.HealthHandler, reports *handlers.ReportHandler) {
	router.GET("/health", health.HealthCheck)
	router.GET("/health/live", health.LivenessCheck)
	router.GET("/health/ready", health.ReadinessCheck)
	router.GET("/health/system", health.SystemStats)

	v1 := router.Group("/api/v1")
	{
		athletes := v1.Group("/athletes")
		{
			athletes.GET("/:athleteID/report", reports.GetReport)
			athletes.POST("/:athleteID/report", reports.GenerateReport)
		}
	}
}
