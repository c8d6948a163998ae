package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/resumex/internal/app"
	"github.com/charlesng35/resumex/internal/handlers"
	"github.com/charlesng35/resumex/pkg/response"
)

func registerHealthRoutes(r *gin.Engine, cfg *app.Config, db *gorm.DB, cache handlers.Pinger) {
	health := disabledHealthHandler
	if cfg.Monitoring.Health.Enabled {
		health = handlers.Health(db, cache)
	}
	r.GET("/health", health)
	r.GET("/api/health", health)

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}
}

func disabledHealthHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, response.Response{
		Success: false,
		Data:    gin.H{"status": "disabled"},
	})
}
