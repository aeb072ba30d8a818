package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/jpp0ca/tunebridge/docs"
	"github.com/jpp0ca/tunebridge/internal/adapters"
	handler "github.com/jpp0ca/tunebridge/internal/adapters/http"
	"github.com/jpp0ca/tunebridge/internal/adapters/store"
	"github.com/jpp0ca/tunebridge/internal/app"
	"github.com/jpp0ca/tunebridge/internal/config"
	"github.com/jpp0ca/tunebridge/internal/logging"
)

// @title			Tunebridge API
// @version		1.0
// @description	API for migrating playlists and liked tracks between streaming services (Spotify, Tidal, YouTube Music).
// @description	Supports concurrent track matching with configurable worker pools.

// @contact.name	Tunebridge Support
// @license.name	MIT

// @host		localhost:8080
// @BasePath	/

// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
// @description				Bearer token for the streaming provider (e.g. "Bearer your_token_here")
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "err", err)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open job store", "path", cfg.DatabasePath, "err", err)
	}
	defer jobs.Close()

	registry := adapters.NewDefaultRegistry(cfg, nil, logger)
	migrationService := app.NewService(registry, app.Options{
		Workers:       cfg.MigrationWorkers,
		MinConfidence: cfg.MatchMinConfidence,
		Store:         jobs,
		Logger:        logger,
	})

	if logging.ParseLevel(cfg.LogLevel) > log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger(logger))
	h := handler.NewHandler(migrationService)
	h.RegisterRoutes(r)

	docs.SwaggerInfo.Host = "localhost:" + cfg.Port
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting tunebridge API", "addr", srv.Addr)
	logger.Info("configuration", "workers", cfg.MigrationWorkers, "min_confidence", cfg.MatchMinConfidence,
		"database", cfg.DatabasePath)
	logger.Info("registered providers", "providers", registry.Available())
	logger.Info("swagger UI", "url", "http://localhost"+srv.Addr+"/swagger/index.html")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "err", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("failed to start server", "err", err)
	}
	logger.Info("server stopped")
}
