package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"
)

// Config describes where sessions are stored.
type Config struct {
	Host     string
	Port     int
	Password string
	// Secure marks the cookie HTTPS only.
	Secure bool
}

// NewSessionStore creates the app session store on Redis database 1 (cache uses DB 0).
func NewSessionStore(cfg Config) *session.Store {
	storage := redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		Database: 1, // Separate database for sessions
		Reset:    false,
	})
	return session.New(Options(cfg.Secure, storage))
}

// Options returns the session settings shared by all stores; storage may be nil for in-memory sessions.
func Options(secure bool, storage fiber.Storage) session.Config {
	return session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		CookieSameSite: "Lax",
		Expiration:     7 * 24 * time.Hour,
		KeyLookup:      "cookie:session_id",
	}
}
