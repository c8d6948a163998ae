package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/resumex/internal/database"
	apperrors "github.com/charlesng35/resumex/pkg/errors"
	"github.com/charlesng35/resumex/pkg/logger"
	"github.com/charlesng35/resumex/pkg/response"
)

// Pinger is a dependency whose reachability the health check reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports liveness plus database reachability. An unreachable database
// answers 503. The optional cache only degrades the status since rate limiting
// fails open without it.
func Health(db *gorm.DB, cache Pinger) gin.HandlerFunc {
	log := logger.WithModule("health")

	return func(c *gin.Context) {
		ctx := requestContext(c)
		data := gin.H{"status": "ok", "database": "up"}

		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				log.Warn("cache ping failed", zap.Error(err))
				data["status"] = "degraded"
				data["cache"] = "down"
			} else {
				data["cache"] = "up"
			}
		}

		if err := database.Ping(ctx, db); err != nil {
			log.Warn("database ping failed", zap.Error(err))
			data["status"] = "degraded"
			data["database"] = "down"
			c.JSON(http.StatusServiceUnavailable, response.Response{
				Success: false,
				Data:    data,
				Error: &response.ErrorInfo{
					Code:    apperrors.CodeUnavailable,
					Message: "Database unavailable",
				},
			})
			return
		}

		response.Success(c, http.StatusOK, data)
	}
}
