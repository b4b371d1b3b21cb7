// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/matchdaymedia/leaguedesk-go/internal/application/container"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/logging"
	"github.com/matchdaymedia/leaguedesk-go/internal/presentation/http/server"
	"github.com/matchdaymedia/leaguedesk-go/pkg/config"
)

// Initialize performs the complete startup sequence and blocks until the
// process receives a shutdown signal.
func Initialize() error {
	setupGin()

	start := time.Now().UTC()

	// Step 1: Channeled logging, before anything that wants to log
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.Startup().Info("Starting LeagueDesk")

	// Step 2: Dependency injection container (data store, cache, monitor,
	// alert engine, services)
	logger.Startup().Info("Initializing dependency injection container...")
	appContainer, err := container.NewContainer(logger)
	if err != nil {
		return fmt.Errorf("container initialization failed: %w", err)
	}
	logger.Startup().Info("Container initialized")

	// Step 3: Schema
	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	err = appContainer.Repo.EnsureSchema(schemaCtx)
	cancelSchema()
	if err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	logger.Startup().Info("Database schema verified")

	// Step 4: Background subsystems
	appContainer.Monitor.Start()
	appContainer.AlertEngine.Start()
	go appContainer.Broadcaster.Run()
	if config.WarmingEnabled {
		appContainer.WarmingService.Start()
	} else {
		logger.Startup().Info("Cache warming disabled by configuration")
	}

	// Step 5: HTTP server
	httpServer := server.New(config.Port, appContainer)
	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+config.Port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start), "port", config.Port)

	// Step 6: Wait for shutdown signal
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	<-gracefulShutdown

	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	shutdownStart := time.Now()

	// Stop taking traffic first, then background loops, then connections
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	}

	if config.WarmingEnabled {
		appContainer.WarmingService.Stop()
	}
	appContainer.Broadcaster.Stop()
	appContainer.Monitor.Stop()
	appContainer.AlertEngine.Stop()

	if err := appContainer.DB.Close(); err != nil {
		logger.Shutdown().Error("Error closing data store", "error", err.Error())
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupGin configures the router mode before any engine is created
func setupGin() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
		log.SetFlags(log.LstdFlags)
	}
}
