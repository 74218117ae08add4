package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/SubTrack/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the user context of every request from the app session.
func UserContextMiddleware(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Goth keeps its own session on the OAuth routes; /auth/me and
		// /auth/logout read the app session themselves.
		if strings.HasPrefix(c.Path(), "/auth/google") {
			return c.Next()
		}

		anonymous := func() error {
			c.Locals(usercontext.KeyUserContext, usercontext.UserContext{IsLoggedIn: false})
			c.Locals(usercontext.KeyFromProtected, false)
			return c.Next()
		}

		sess, err := store.Get(c)
		if err != nil {
			log.Warnf("[Session] Cannot load session: %v", err)
			return anonymous()
		}
		userID, ok := sess.Get(usercontext.KeyUserID).(string)
		if !ok || userID == "" {
			return anonymous()
		}
		username, _ := sess.Get(usercontext.KeyUsername).(string)

		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
			UserID:     userID,
			Username:   username,
			IsLoggedIn: true,
		})
		c.Locals(usercontext.KeyFromProtected, true)
		return c.Next()
	}
}
