package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger checks a backing service.
type Pinger func(ctx context.Context) error

// HealthController reports liveness and the state of the backing services.
type HealthController struct {
	checks map[string]Pinger
}

func NewHealthController(checks map[string]Pinger) *HealthController {
	return &HealthController{checks: checks}
}

// HandleHealth answers 200 while the process runs. Failing checks are reported, not fatal.
func (hc *HealthController) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	services := fiber.Map{}
	for name, ping := range hc.checks {
		if err := ping(ctx); err != nil {
			services[name] = err.Error()
			continue
		}
		services[name] = "ok"
	}
	return c.JSON(fiber.Map{"status": "ok", "services": services})
}
