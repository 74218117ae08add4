package env

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Config is the application configuration read from the environment.
type Config struct {
	AppHost string
	AppPort string
	// APIURL is the public base URL placed in confirmation links.
	APIURL string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	CacheHost     string
	CachePort     int
	CachePassword string

	GoogleKey        string
	GoogleSecret     string
	GoogleCalendarID string

	SessionSecret   string
	DefaultCurrency string
	Location        *time.Location
	JobQueueWorkers int
}

// Load reads Config. An unknown APP_TIMEZONE falls back to UTC.
func Load() Config {
	cfg := Config{
		AppHost:          GetEnv("APP_HOST", "localhost"),
		AppPort:          GetEnv("APP_PORT", "4000"),
		DBHost:           GetEnv("DB_HOST", "127.0.0.1"),
		DBPort:           GetEnv("DB_PORT", "3306"),
		DBUser:           GetEnv("DB_USER", ""),
		DBPassword:       GetEnv("DB_PASSWORD", ""),
		DBName:           GetEnv("DB_NAME", ""),
		CacheHost:        GetEnv("CACHE_HOST", "localhost"),
		CachePort:        GetEnvInt("CACHE_PORT", 6379),
		CachePassword:    GetEnv("CACHE_PASSWORD", ""),
		GoogleKey:        GetEnv("GOOGLE_KEY", ""),
		GoogleSecret:     GetEnv("GOOGLE_SECRET", ""),
		GoogleCalendarID: GetEnv("GOOGLE_CALENDAR_ID", "primary"),
		SessionSecret:    GetEnv("SESSION_SECRET", ""),
		DefaultCurrency:  strings.ToUpper(GetEnv("DEFAULT_CURRENCY", "IDR")),
		JobQueueWorkers:  GetEnvInt("JOBQUEUE_WORKERS", 2),
	}
	cfg.APIURL = strings.TrimRight(GetEnv("API_URL", fmt.Sprintf("http://%s:%s", cfg.AppHost, cfg.AppPort)), "/")

	tz := GetEnv("APP_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warnf("[Env] Unknown APP_TIMEZONE %q, using UTC: %v", tz, err)
		loc = time.UTC
	}
	cfg.Location = loc
	return cfg
}

// ListenAddr returns host:port for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.AppHost, c.AppPort)
}
