package controller

import (
	"github.com/gofiber/fiber/v2"

	"leadengine/store"
	"leadengine/utils"
)

type DashboardController struct {
	Prospects store.ProspectStore
}

func NewDashboardController(prospects store.ProspectStore) *DashboardController {
	return &DashboardController{Prospects: prospects}
}

// GetDashboardStats returns pipeline counts for the dashboard cards
func (dc *DashboardController) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := dc.Prospects.Stats(c.UserContext())
	if err != nil {
		utils.LogError("dashboard_stats_failed", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load stats", nil)
	}
	return c.JSON(utils.SuccessResponse(stats))
}
