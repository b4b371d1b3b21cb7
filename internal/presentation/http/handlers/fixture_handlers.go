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

// FixtureHandlers serves fixture reads, writes and result recording
type FixtureHandlers struct {
	fixtures *services.FixtureService
	logger   *logging.ChanneledLogger
}

// NewFixtureHandlers creates new fixture handlers
func NewFixtureHandlers(fixtures *services.FixtureService, logger *logging.ChanneledLogger) *FixtureHandlers {
	return &FixtureHandlers{fixtures: fixtures, logger: logger}
}

// Get handles GET /api/v1/fixtures/:id
func (h *FixtureHandlers) Get(c *gin.Context) {
	fixture, err := h.fixtures.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Fixture not found"})
			return
		}
		h.logger.Content().Error("Failed to load fixture", "id", c.Param("id"), "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load fixture"})
		return
	}
	c.JSON(http.StatusOK, fixture)
}

// Create handles POST /api/v1/fixtures
func (h *FixtureHandlers) Create(c *gin.Context) {
	var fixture league.FixtureNode
	if err := c.ShouldBindJSON(&fixture); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid fixture payload"})
		return
	}
	if fixture.ID == "" || fixture.HomeClubID == "" || fixture.AwayClubID == "" || fixture.GroupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id, homeClubId, awayClubId and groupId are required"})
		return
	}
	if fixture.Status == "" {
		fixture.Status = league.FixtureScheduled
	}
	if err := h.fixtures.Save(c.Request.Context(), &fixture, true); err != nil {
		h.logger.Content().Error("Failed to create fixture", "id", fixture.ID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create fixture"})
		return
	}
	c.JSON(http.StatusCreated, fixture)
}

// Update handles PUT /api/v1/fixtures/:id
func (h *FixtureHandlers) Update(c *gin.Context) {
	var fixture league.FixtureNode
	if err := c.ShouldBindJSON(&fixture); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid fixture payload"})
		return
	}
	fixture.ID = c.Param("id")
	if fixture.HomeClubID == "" || fixture.AwayClubID == "" || fixture.GroupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "homeClubId, awayClubId and groupId are required"})
		return
	}
	if err := h.fixtures.Save(c.Request.Context(), &fixture, false); err != nil {
		h.logger.Content().Error("Failed to update fixture", "id", fixture.ID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update fixture"})
		return
	}
	c.JSON(http.StatusOK, fixture)
}

// Result handles POST /api/v1/fixtures/:id/result. Recording a final score
// is the write that ripples furthest: it invalidates the fixture, both clubs
// and the group standings in one synchronous pass.
func (h *FixtureHandlers) Result(c *gin.Context) {
	var request struct {
		HomeGoals *int `json:"homeGoals"`
		AwayGoals *int `json:"awayGoals"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || request.HomeGoals == nil || request.AwayGoals == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "homeGoals and awayGoals are required"})
		return
	}
	if *request.HomeGoals < 0 || *request.AwayGoals < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Goals must not be negative"})
		return
	}

	fixture, err := h.fixtures.RecordResult(c.Request.Context(), c.Param("id"), *request.HomeGoals, *request.AwayGoals)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Fixture not found"})
			return
		}
		h.logger.Content().Error("Failed to record result", "id", c.Param("id"), "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record result"})
		return
	}
	c.JSON(http.StatusOK, fixture)
}

// Delete handles DELETE /api/v1/fixtures/:id
func (h *FixtureHandlers) Delete(c *gin.Context) {
	if err := h.fixtures.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Content().Error("Failed to delete fixture", "id", c.Param("id"), "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete fixture"})
		return
	}
	c.Status(http.StatusNoContent)
}
