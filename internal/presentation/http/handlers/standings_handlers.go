package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matchdaymedia/leaguedesk-go/internal/application/services"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/logging"
)

// StandingsHandlers serves the cached league table
type StandingsHandlers struct {
	standings *services.StandingsService
	logger    *logging.ChanneledLogger
}

// NewStandingsHandlers creates new standings handlers
func NewStandingsHandlers(standings *services.StandingsService, logger *logging.ChanneledLogger) *StandingsHandlers {
	return &StandingsHandlers{standings: standings, logger: logger}
}

// Table handles GET /api/v1/standings/:groupId
func (h *StandingsHandlers) Table(c *gin.Context) {
	standings, err := h.standings.Table(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		h.logger.Content().Error("Failed to load standings", "groupId", c.Param("groupId"), "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load standings"})
		return
	}
	c.JSON(http.StatusOK, standings)
}
