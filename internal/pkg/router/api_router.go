package router

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/SubTrack/internal/pkg/constants"
	"github.com/ManuelReschke/SubTrack/internal/pkg/middleware"
)

type ApiRouter struct {
	ctl Controllers
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIPrefix, limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	// Calendar confirmation, reachable without a session
	api.Post(constants.ConfirmRoute, h.ctl.Installment.HandleConfirm)
	api.Get(constants.ConfirmRoute, func(c *fiber.Ctx) error {
		return c.Redirect(constants.ConfirmPageRoute+"?link="+url.QueryEscape(c.Query("link")), fiber.StatusFound)
	})

	auth := middleware.RequireAPISessionAuth

	api.Get("/users/me", auth, h.ctl.User.HandleGetMe)
	api.Put("/users/me", auth, h.ctl.User.HandleUpdateMe)

	api.Get("/subscriptions", auth, h.ctl.Subscription.HandleList)
	api.Post("/subscriptions", auth, h.ctl.Subscription.HandleCreate)
	api.Get("/subscriptions/upcoming", auth, h.ctl.Subscription.HandleUpcoming)
	api.Get("/subscriptions/:id", auth, h.ctl.Subscription.HandleGet)
	api.Put("/subscriptions/:id", auth, h.ctl.Subscription.HandleUpdate)
	api.Delete("/subscriptions/:id", auth, h.ctl.Subscription.HandleDelete)

	api.Get("/installments", auth, h.ctl.Installment.HandleList)
	api.Put("/installments/:id/paid", auth, h.ctl.Installment.HandleMarkPaid)

	api.Get("/dashboard", auth, h.ctl.Dashboard.HandleDashboard)
}

func NewApiRouter(ctl Controllers) *ApiRouter {
	return &ApiRouter{ctl: ctl}
}
