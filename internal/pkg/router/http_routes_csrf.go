package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/ManuelReschke/SubTrack/internal/pkg/constants"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   h.secure,
	}

	protected := csrf.New(csrfConf)
	app.Get(constants.ConfirmPageRoute, protected, h.ctl.Installment.HandleConfirmPage)
	app.Post(constants.ConfirmPageRoute, protected, h.ctl.Installment.HandleConfirmForm)
}
