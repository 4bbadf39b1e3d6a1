package api

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/sincov/airmon-go/internal/api/handlers"
	"github.com/sincov/airmon-go/internal/api/middleware"
)

// Handlers groups the handler set wired by main.
type Handlers struct {
	Health   *handlers.HealthHandler
	Stations *handlers.StationsHandler
	Reports  *handlers.ReportsHandler
	Predict  *handlers.PredictHandler
}

// SetupRoutes registers all endpoints on the router.
func SetupRoutes(router *gin.Engine, serviceName string, h Handlers) {
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(serviceName))

	router.GET("/health", h.Health.Health)

	v1 := router.Group("/api/v1")
	{
		stations := v1.Group("/stations")
		{
			stations.GET("", h.Stations.List)
			stations.GET("/:id", h.Stations.Get)
			stations.GET("/:id/reports", h.Reports.ListForStation)
			stations.GET("/:id/aggregate", h.Stations.Aggregate)
		}

		reports := v1.Group("/reports")
		{
			reports.POST("", h.Reports.Insert)
			reports.GET("/daily", h.Reports.ListDaily)
		}

		v1.GET("/predict/:id", h.Predict.Predict)
		v1.GET("/predict/:id/history", h.Predict.History)
	}
}
