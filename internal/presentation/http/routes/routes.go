// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matchdaymedia/leaguedesk-go/internal/application/container"
	"github.com/matchdaymedia/leaguedesk-go/internal/presentation/http/handlers"
	"github.com/matchdaymedia/leaguedesk-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(appContainer *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	clubHandlers := handlers.NewClubHandlers(appContainer.ClubService, appContainer.Logger)
	playerHandlers := handlers.NewPlayerHandlers(appContainer.PlayerService, appContainer.Logger)
	fixtureHandlers := handlers.NewFixtureHandlers(appContainer.FixtureService, appContainer.Logger)
	standingsHandlers := handlers.NewStandingsHandlers(appContainer.StandingsService, appContainer.Logger)
	sysopHandlers := handlers.NewSysOpHandlers(appContainer)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public content API
	api := r.Group("/api/v1")
	{
		api.GET("/clubs", clubHandlers.List)
		api.GET("/clubs/:id", clubHandlers.Get)
		api.GET("/clubs/:id/players", clubHandlers.Players)
		api.GET("/clubs/:id/fixtures", clubHandlers.Fixtures)
		api.POST("/clubs", clubHandlers.Create)
		api.PUT("/clubs/:id", clubHandlers.Update)
		api.DELETE("/clubs/:id", clubHandlers.Delete)

		api.GET("/players/:id", playerHandlers.Get)
		api.POST("/players", playerHandlers.Create)
		api.PUT("/players/:id", playerHandlers.Update)
		api.DELETE("/players/:id", playerHandlers.Delete)

		api.GET("/fixtures/:id", fixtureHandlers.Get)
		api.POST("/fixtures", fixtureHandlers.Create)
		api.PUT("/fixtures/:id", fixtureHandlers.Update)
		api.POST("/fixtures/:id/result", fixtureHandlers.Result)
		api.DELETE("/fixtures/:id", fixtureHandlers.Delete)

		api.GET("/standings/:groupId", standingsHandlers.Table)
	}

	// SysOp API: auth endpoints are public, the rest requires a session token
	sysopAPI := r.Group("/api/sysop")
	{
		sysopAPI.GET("/auth", sysopHandlers.AuthCheck)
		sysopAPI.POST("/login", sysopHandlers.Login)

		// Websocket auth is handled inside the handler via query token
		sysopAPI.GET("/stream", sysopHandlers.Stream)

		protected := sysopAPI.Group("")
		protected.Use(middleware.SysOpAuth())
		{
			protected.GET("/cache/health", sysopHandlers.CacheHealth)
			protected.GET("/cache/metrics", sysopHandlers.CacheMetrics)
			protected.POST("/cache/warm", sysopHandlers.CacheWarm)
			protected.POST("/cache/clear", sysopHandlers.CacheClear)

			protected.GET("/monitor/snapshot", sysopHandlers.MonitorSnapshot)
			protected.GET("/monitor/summary", sysopHandlers.MonitorSummary)

			protected.GET("/alerts/open", sysopHandlers.AlertsOpen)
			protected.GET("/alerts/recent", sysopHandlers.AlertsRecent)
			protected.GET("/alerts/stats", sysopHandlers.AlertsStats)
			protected.POST("/alerts/:id/acknowledge", sysopHandlers.AcknowledgeAlert)
		}
	}

	return r
}
