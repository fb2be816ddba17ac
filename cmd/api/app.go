package main

import (
	"log/slog"

	"twc-observations/internal/cache"
	"twc-observations/internal/config"
	"twc-observations/internal/observations"

	"github.com/gin-gonic/gin"

	_ "twc-observations/docs" // Ensure docs are imported
)

// App encapsulates application dependencies
type App struct {
	router             *gin.Engine
	logger             *slog.Logger
	observationService observations.Service
	cache              cache.Store
	cfg                *config.Config
}

// NewApp creates a new application with injected dependencies
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	observationSvc, err := observations.NewService(cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := cache.New(cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	if cfg.TWC.APIKey == "" {
		logger.Warn("no TWC API key configured; observation requests will fail until TWC_API_KEY or twc.apiKey is set")
	}

	return newApp(cfg, logger, observationSvc, store), nil
}

// newApp wires the router around already-built services
func newApp(cfg *config.Config, logger *slog.Logger, observationSvc observations.Service, store cache.Store) *App {
	// Set Gin mode from configuration
	gin.SetMode(cfg.Server.GinMode)

	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())

	app := &App{
		router:             router,
		logger:             logger,
		observationService: observationSvc,
		cache:              store,
		cfg:                cfg,
	}

	// Register routes
	app.registerRoutes()

	logger.Info("application initialized")

	return app
}

// Run starts the HTTP server
func (app *App) Run(addr string) error {
	return app.router.Run(addr)
}
