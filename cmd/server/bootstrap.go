package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/resumex/internal/analyzer"
	"github.com/charlesng35/resumex/internal/api"
	"github.com/charlesng35/resumex/internal/app"
	"github.com/charlesng35/resumex/internal/app/maintenance"
	iauth "github.com/charlesng35/resumex/internal/auth"
	"github.com/charlesng35/resumex/internal/cache"
	"github.com/charlesng35/resumex/internal/database"
	"github.com/charlesng35/resumex/internal/middleware"
	"github.com/charlesng35/resumex/internal/services"
	"github.com/charlesng35/resumex/internal/storage"
	"github.com/charlesng35/resumex/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB          *gorm.DB
	Redis       *cache.RedisStore
	Cleaner     *maintenance.Cleaner
	RateStore   middleware.RateStore
	Router      *gin.Engine
	closeMailer func() error
}

// loadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func loadDotEnv(files ...string) error {
	existing := make([]string, 0, len(files))
	for _, file := range files {
		file = strings.TrimSpace(file)
		if file == "" {
			continue
		}
		if _, err := os.Stat(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat env file: %w", err)
		}
		existing = append(existing, file)
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// bootstrapRuntime initialises databases, caches, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// release mode unless GIN_DEBUG=true
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Redis.Enabled {
		redisCfg, err := cfg.Cache.Redis.StoreConfig()
		if err != nil {
			return nil, err
		}
		if stack.Redis, err = cache.NewRedisStore(ctx, redisCfg); err != nil {
			log.Warn("redis unavailable; falling back to in-process rate limiting", zap.Error(err))
			stack.Redis = nil
		} else {
			log.Info("redis connected", zap.String("addr", redisCfg.Address))
		}
	}
	if stack.Redis != nil {
		stack.RateStore = middleware.NewCacheRateStore(stack.Redis)
	} else {
		stack.RateStore = middleware.NewMemoryRateStore()
	}

	jwtSvc, err := iauth.NewSessionSigner(cfg.Auth.SignerConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	users, err := services.NewUserStore(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise user store: %w", err)
	}

	mailer, closeMailer, err := cfg.Email.NewMailer()
	if err != nil {
		return nil, fmt.Errorf("initialise mailer: %w", err)
	}
	stack.closeMailer = closeMailer
	if mailer == nil {
		log.Warn("email transport disabled; verification and reset emails will not be sent")
	} else {
		log.Info("email transport ready", zap.String("transport", cfg.Email.TransportName()))
	}

	notifier := services.NewNotifier(mailer,
		services.WithNotifierClientURL(cfg.Server.ClientURL),
		services.WithNotifierLogger(logger.WithModule("notifier")),
	)

	authSvc, err := services.NewAuthService(users, jwtSvc, notifier, cfg.Auth.AuthServiceOptions()...)
	if err != nil {
		return nil, fmt.Errorf("initialise auth service: %w", err)
	}

	analyses, err := services.NewAnalysisService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise analysis service: %w", err)
	}

	analyzerSvc, err := initialiseAnalyzer(ctx, cfg, analyses, log)
	if err != nil {
		return nil, err
	}

	if cfg.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(users, maintenance.WithTokenSchedule(cfg.Maintenance.TokenSchedule))
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	deps := api.Dependencies{
		DB:        stack.DB,
		Config:    cfg,
		JWT:       jwtSvc,
		Auth:      authSvc,
		Analyses:  analyses,
		Analyzer:  analyzerSvc,
		RateStore: stack.RateStore,
	}
	if stack.Redis != nil {
		deps.Cache = stack.Redis
	}
	stack.Router, err = api.NewRouter(deps)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// initialiseAnalyzer wires the webhook client and the optional S3 archive. Without a
// webhook URL the analyze endpoint stays disabled.
func initialiseAnalyzer(ctx context.Context, cfg *app.Config, analyses *services.AnalysisService, log *zap.Logger) (*services.AnalyzerService, error) {
	client := analyzer.NewClient(cfg.Analyzer.ClientConfig())
	if !client.Configured() {
		log.Warn("analyzer webhook not configured; resume analysis disabled")
		return nil, nil
	}

	opts := []services.AnalyzerServiceOption{services.WithMaxUploadBytes(cfg.Analyzer.MaxUploadBytes)}
	if cfg.Storage.S3.Enabled {
		archive, err := storage.NewS3Store(ctx, cfg.Storage.S3Config())
		if err != nil {
			return nil, fmt.Errorf("initialise resume archive: %w", err)
		}
		opts = append(opts, services.WithResumeArchive(archive))
		log.Info("resume archive enabled", zap.String("bucket", cfg.Storage.S3.Bucket))
	}

	svc, err := services.NewAnalyzerService(client, analyses, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialise analyzer service: %w", err)
	}
	return svc, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		select {
		case <-s.Cleaner.Stop().Done():
		case <-ctx.Done():
			log.Warn("maintenance jobs still running at shutdown")
		}
	}

	var errs error
	if s.closeMailer != nil {
		errs = multierr.Append(errs, s.closeMailer())
	}
	if s.Redis != nil {
		errs = multierr.Append(errs, s.Redis.Close())
	}
	if s.DB != nil {
		errs = multierr.Append(errs, database.Close(s.DB))
	}
	for _, err := range multierr.Errors(errs) {
		log.Warn("resource shutdown", zap.Error(err))
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),

		MaxOpenConns:    cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:    cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.Pool.ConnMaxLifetime,
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.Postgres.Password)
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.MySQL.Password)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}
