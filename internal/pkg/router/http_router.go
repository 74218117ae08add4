package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/SubTrack/internal/pkg/middleware"
)

type HttpRouter struct {
	sessions *session.Store
	ctl      Controllers
	secure   bool
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware(h.sessions))

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter(sessions *session.Store, ctl Controllers, secure bool) *HttpRouter {
	return &HttpRouter{sessions: sessions, ctl: ctl, secure: secure}
}
