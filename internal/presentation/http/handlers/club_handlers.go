// Package handlers provides HTTP handlers for the presentation layer.
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

// ClubHandlers serves club reads and writes
type ClubHandlers struct {
	clubs  *services.ClubService
	logger *logging.ChanneledLogger
}

// NewClubHandlers creates new club handlers
func NewClubHandlers(clubs *services.ClubService, logger *logging.ChanneledLogger) *ClubHandlers {
	return &ClubHandlers{clubs: clubs, logger: logger}
}

// List handles GET /api/v1/clubs
func (h *ClubHandlers) List(c *gin.Context) {
	clubs, err := h.clubs.List(c.Request.Context())
	if err != nil {
		h.logger.Content().Error("Failed to list clubs", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load clubs"})
		return
	}
	c.JSON(http.StatusOK, clubs)
}

// Get handles GET /api/v1/clubs/:id
func (h *ClubHandlers) Get(c *gin.Context) {
	club, err := h.clubs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Club not found"})
			return
		}
		h.logger.Content().Error("Failed to load club", "id", c.Param("id"), "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load club"})
		return
	}
	c.JSON(http.StatusOK, club)
}

// Players handles GET /api/v1/clubs/:id/players
func (h *ClubHandlers) Players(c *gin.Context) {
	players, err := h.clubs.Players(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Content().Error("Failed to load squad", "clubId", c.Param("id"), "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load squad"})
		return
	}
	c.JSON(http.StatusOK, players)
}

// Fixtures handles GET /api/v1/clubs/:id/fixtures
func (h *ClubHandlers) Fixtures(c *gin.Context) {
	fixtures, err := h.clubs.Fixtures(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Content().Error("Failed to load fixtures", "clubId", c.Param("id"), "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load fixtures"})
		return
	}
	c.JSON(http.StatusOK, fixtures)
}

// Create handles POST /api/v1/clubs
func (h *ClubHandlers) Create(c *gin.Context) {
	var club league.ClubNode
	if err := c.ShouldBindJSON(&club); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid club payload"})
		return
	}
	if club.ID == "" || club.Name == "" || club.GroupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id, name and groupId are required"})
		return
	}
	if err := h.clubs.Save(c.Request.Context(), &club, true); err != nil {
		h.logger.Content().Error("Failed to create club", "id", club.ID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create club"})
		return
	}
	c.JSON(http.StatusCreated, club)
}

// Update handles PUT /api/v1/clubs/:id
func (h *ClubHandlers) Update(c *gin.Context) {
	var club league.ClubNode
	if err := c.ShouldBindJSON(&club); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid club payload"})
		return
	}
	club.ID = c.Param("id")
	if club.Name == "" || club.GroupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and groupId are required"})
		return
	}
	if err := h.clubs.Save(c.Request.Context(), &club, false); err != nil {
		h.logger.Content().Error("Failed to update club", "id", club.ID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update club"})
		return
	}
	c.JSON(http.StatusOK, club)
}

// Delete handles DELETE /api/v1/clubs/:id
func (h *ClubHandlers) Delete(c *gin.Context) {
	if err := h.clubs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Content().Error("Failed to delete club", "id", c.Param("id"), "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete club"})
		return
	}
	c.Status(http.StatusNoContent)
}
