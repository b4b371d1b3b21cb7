package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matchdaymedia/leaguedesk-go/internal/application/services"
	"github.com/matchdaymedia/leaguedesk-go/internal/domain/entities/league"
	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/logging"
	repo "github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/persistence/league"
)

// PlayerHandlers serves player reads and writes
type PlayerHandlers struct {
	players *services.PlayerService
	logger  *logging.ChanneledLogger
}

// NewPlayerHandlers creates new player handlers
func NewPlayerHandlers(players *services.PlayerService, logger *logging.ChanneledLogger) *PlayerHandlers {
	return &PlayerHandlers{players: players, logger: logger}
}

// Get handles GET /api/v1/players/:id
func (h *PlayerHandlers) Get(c *gin.Context) {
	player, err := h.players.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
			return
		}
		h.logger.Content().Error("Failed to load player", "id", c.Param("id"), "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load player"})
		return
	}
	c.JSON(http.StatusOK, player)
}

// Create handles POST /api/v1/players
func (h *PlayerHandlers) Create(c *gin.Context) {
	var player league.PlayerNode
	if err := c.ShouldBindJSON(&player); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid player payload"})
		return
	}
	if player.ID == "" || player.Name == "" || player.ClubID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id, name and clubId are required"})
		return
	}
	if err := h.players.Save(c.Request.Context(), &player, true); err != nil {
		h.logger.Content().Error("Failed to create player", "id", player.ID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create player"})
		return
	}
	c.JSON(http.StatusCreated, player)
}

// Update handles PUT /api/v1/players/:id
func (h *PlayerHandlers) Update(c *gin.Context) {
	var player league.PlayerNode
	if err := c.ShouldBindJSON(&player); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid player payload"})
		return
	}
	player.ID = c.Param("id")
	if player.Name == "" || player.ClubID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and clubId are required"})
		return
	}
	if err := h.players.Save(c.Request.Context(), &player, false); err != nil {
		h.logger.Content().Error("Failed to update player", "id", player.ID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update player"})
		return
	}
	c.JSON(http.StatusOK, player)
}

// Delete handles DELETE /api/v1/players/:id
func (h *PlayerHandlers) Delete(c *gin.Context) {
	if err := h.players.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Content().Error("Failed to delete player", "id", c.Param("id"), "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete player"})
		return
	}
	c.Status(http.StatusNoContent)
}
