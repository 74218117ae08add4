package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/SubTrack/internal/pkg/statistics"
	"github.com/ManuelReschke/SubTrack/internal/pkg/usercontext"
)

type DashboardController struct {
	statistics *statistics.Service
}

func NewDashboardController(stats *statistics.Service) *DashboardController {
	return &DashboardController{statistics: stats}
}

// HandleDashboard returns next payments, top subscriptions and installment totals.
func (dc *DashboardController) HandleDashboard(c *fiber.Ctx) error {
	d, err := dc.statistics.Dashboard(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return respondError(c, err, "Failed to fetch dashboard data")
	}
	return respondData(c, fiber.StatusOK, newDashboardResponse(d))
}
