package oauth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	redisstorage "github.com/gofiber/storage/redis"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	gothfiber "github.com/shareed2k/goth_fiber"
)

// CalendarScope grants the event access needed for payment reminders.
const CalendarScope = "https://www.googleapis.com/auth/calendar"

// Config holds the Google client and where the OAuth state is kept.
type Config struct {
	GoogleKey    string
	GoogleSecret string
	// BaseURL is the public origin the callback is served on.
	BaseURL string

	CacheHost     string
	CachePort     int
	CachePassword string
	Secure        bool
}

// CallbackURL returns the redirect URI registered with Google.
func (c Config) CallbackURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/auth/google/callback"
}

// NewGoogleProvider builds the Google provider with offline access, so a
// refresh token is issued for calendar access.
func NewGoogleProvider(cfg Config) *google.Provider {
	p := google.New(cfg.GoogleKey, cfg.GoogleSecret, cfg.CallbackURL(), "email", "profile", CalendarScope)
	p.SetAccessType("offline")
	p.SetPrompt("consent")
	return p
}

// Setup registers the Google provider and keeps the OAuth state in Redis database 2,
// separate from the app sessions.
func Setup(cfg Config) {
	goth.UseProviders(NewGoogleProvider(cfg))

	var storage fiber.Storage
	if cfg.CacheHost != "" {
		storage = redisstorage.New(redisstorage.Config{
			Host:     cfg.CacheHost,
			Port:     cfg.CachePort,
			Password: cfg.CachePassword,
			Database: 2,
			Reset:    false,
		})
	}

	gothfiber.SessionStore = session.New(session.Config{
		Storage:        storage,
		KeyLookup:      "cookie:" + gothic.SessionName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   cfg.Secure,
		Expiration:     time.Hour,
	})
}
