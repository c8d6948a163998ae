package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/resumex/internal/handlers"
)

func registerAnalysisRoutes(engine *gin.Engine, handler *handlers.AnalysisHandler, requireAuth gin.HandlerFunc) {
	analysis := engine.Group("/api/analysis")
	analysis.Use(requireAuth)
	{
		analysis.GET("", handler.List)
		analysis.POST("", handler.Create)
		analysis.POST("/analyze", handler.Analyze)
		analysis.DELETE("/:id", handler.Delete)
	}
}
