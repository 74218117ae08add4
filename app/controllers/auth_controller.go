package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/markbates/goth"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/ManuelReschke/SubTrack/internal/pkg/calendar"
	"github.com/ManuelReschke/SubTrack/internal/pkg/constants"
	"github.com/ManuelReschke/SubTrack/internal/pkg/users"
)

// AuthController signs users in through Google and manages the app session.
type AuthController struct {
	users    *users.Service
	sessions *session.Store
	// completeAuth finishes the provider flow; replaced in tests.
	completeAuth func(c *fiber.Ctx) (goth.User, error)
	// RedirectURL is where the browser lands after a successful login.
	RedirectURL string
}

func NewAuthController(usersService *users.Service, sessions *session.Store) *AuthController {
	return &AuthController{
		users:    usersService,
		sessions: sessions,
		completeAuth: func(c *fiber.Ctx) (goth.User, error) {
			return gothfiber.CompleteUserAuth(c)
		},
		RedirectURL: constants.HomeRoute,
	}
}

// HandleBeginAuth redirects to the provider consent screen.
func (ac *AuthController) HandleBeginAuth(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider flow and logs the user in
func (ac *AuthController) HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := ac.completeAuth(c)
	if err != nil {
		log.Warnf("[OAuth] Completing auth failed: %v", err)
		return errorJSON(c, fiber.StatusUnauthorized, "oauth_failed", "Google sign-in failed")
	}

	appUser, err := ac.users.LoginWithGoogle(c.UserContext(), users.GoogleProfile{
		ID:        u.UserID,
		Email:     u.Email,
		Name:      firstNonEmpty(u.Name, u.NickName),
		AvatarURL: u.AvatarURL,
		Credentials: calendar.Credentials{
			AccessToken:  u.AccessToken,
			RefreshToken: u.RefreshToken,
			Expiry:       u.ExpiresAt,
		},
	})
	if err != nil {
		return respondError(c, err, "Login failed")
	}

	sess, err := ac.sessions.Get(c)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "session init failed")
	}
	if err := sess.Regenerate(); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "session init failed")
	}
	sess.Set(AUTH_KEY, true)
	sess.Set(USER_ID, appUser.ID)
	sess.Set(USER_NAME, appUser.Name)
	if err := sess.Save(); err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "session save failed")
	}

	log.Infof("[OAuth] User %s logged in", appUser.ID)
	return c.Redirect(ac.RedirectURL, fiber.StatusSeeOther)
}

// HandleMe returns the user of the current session.
func (ac *AuthController) HandleMe(c *fiber.Ctx) error {
	sess, err := ac.sessions.Get(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}
	userID, _ := sess.Get(USER_ID).(string)
	if userID == "" {
		return errorJSON(c, fiber.StatusUnauthorized, "unauthorized", "login required")
	}
	u, err := ac.users.GetByID(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "Failed to load user")
	}
	return respondData(c, fiber.StatusOK, newUserResponse(u, c.Context().Time()))
}

// HandleLogout destroys the app session.
func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	sess, err := ac.sessions.Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "logout failed")
		}
	}
	c.Locals(FROM_PROTECTED, false)
	return respondData(c, fiber.StatusOK, fiber.Map{"logged_out": true})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
