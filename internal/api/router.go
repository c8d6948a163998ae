package api

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/resumex/internal/app"
	iauth "github.com/charlesng35/resumex/internal/auth"
	"github.com/charlesng35/resumex/internal/handlers"
	"github.com/charlesng35/resumex/internal/middleware"
	"github.com/charlesng35/resumex/internal/services"
)

const (
	defaultAuthRateLimit  = 20
	defaultAuthRateWindow = time.Minute
)

// Dependencies bundles the long-lived services the router mounts.
type Dependencies struct {
	DB       *gorm.DB
	Config   *app.Config
	JWT      *iauth.SessionSigner
	Auth     *services.AuthService
	Analyses *services.AnalysisService
	// Analyzer is optional; without it the analyze endpoint answers 503.
	Analyzer *services.AnalyzerService
	// RateStore is optional; an in-process store is used when nil.
	RateStore middleware.RateStore
	// Cache is optional and only probed by the health check.
	Cache handlers.Pinger
}

func (d Dependencies) validate() error {
	switch {
	case d.DB == nil:
		return errors.New("database handle must be provided")
	case d.Config == nil:
		return errors.New("config must be provided")
	case d.JWT == nil:
		return errors.New("jwt service must be provided")
	case d.Auth == nil:
		return errors.New("auth service must be provided")
	case d.Analyses == nil:
		return errors.New("analysis service must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg := deps.Config

	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger("/health", "/api/health", cfg.Monitoring.Prometheus.Endpoint))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(cfg.Server.Production()))
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))

	registerHealthRoutes(r, cfg, deps.DB, deps.Cache)

	cookies := cfg.Auth.CookieSettings(cfg.Server.Environment)
	requireAuth := middleware.Auth(deps.JWT, cookies)

	authHandler, err := handlers.NewAuthHandler(deps.Auth, cookies)
	if err != nil {
		return nil, err
	}

	rateStore := deps.RateStore
	if rateStore == nil {
		rateStore = middleware.NewMemoryRateStore()
	}
	limit := cfg.Server.RateLimit.Requests
	if limit <= 0 {
		limit = defaultAuthRateLimit
	}
	window := cfg.Server.RateLimit.Window
	if window <= 0 {
		window = defaultAuthRateWindow
	}

	registerAuthRoutes(r, authRouteDeps{
		Handler:     authHandler,
		RequireAuth: requireAuth,
		RateLimit:   middleware.RateLimit(rateStore, limit, window),
	})

	analysisHandler, err := handlers.NewAnalysisHandler(deps.Analyses, deps.Analyzer)
	if err != nil {
		return nil, err
	}
	registerAnalysisRoutes(r, analysisHandler, requireAuth)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
