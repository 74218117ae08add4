package router

import (
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get("/healthz", h.ctl.Health.HandleHealth)

	// Session
	app.Get("/auth/me", h.ctl.Auth.HandleMe)
	app.Post("/auth/logout", h.ctl.Auth.HandleLogout)

	// Social OAuth
	app.Get("/auth/:provider", h.ctl.Auth.HandleBeginAuth)
	app.Get("/auth/:provider/callback", h.ctl.Auth.HandleOAuthCallback)
}
