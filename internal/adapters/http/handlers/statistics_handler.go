package handlers

import (
	"log"

	"bookmarket-api/internal/core/services"
	"bookmarket-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// StatisticsHandler serves the librarian dashboard counts
type StatisticsHandler struct {
	statisticsService *services.StatisticsService
}

// NewStatisticsHandler creates a new statistics handler
func NewStatisticsHandler(statisticsService *services.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{
		statisticsService: statisticsService,
	}
}

// Get returns aggregate counts
// @Summary Library statistics
// @Description Books, patrons and loans totals (ADMIN only)
// @Tags Statistics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Statistics
// @Failure 403 {object} response.ErrorBody
// @Router /statistics [get]
func (h *StatisticsHandler) Get(c *fiber.Ctx) error {
	stats, err := h.statisticsService.Get(c.UserContext())
	if err != nil {
		log.Printf("❌ Statistics error: %v", err)
		return response.InternalServerError(c)
	}

	return response.Success(c, stats)
}
