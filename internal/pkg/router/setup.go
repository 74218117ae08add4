package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/SubTrack/app/controllers"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Controllers bundles the handlers mounted by the routers.
type Controllers struct {
	Auth         *controllers.AuthController
	User         *controllers.UserController
	Subscription *controllers.SubscriptionController
	Installment  *controllers.InstallmentController
	Dashboard    *controllers.DashboardController
	Health       *controllers.HealthController
}

func InstallRouter(app *fiber.App, sessions *session.Store, ctl Controllers, secure bool) {
	// Install HttpRouter first to register the global UserContext
	// middleware. Then register API routes which depend on it.
	setup(app, NewHttpRouter(sessions, ctl, secure), NewApiRouter(ctl))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
