package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"gorm.io/gorm"

	_ "time/tzdata"

	"github.com/ManuelReschke/SubTrack/app/controllers"
	"github.com/ManuelReschke/SubTrack/app/repository"
	"github.com/ManuelReschke/SubTrack/internal/pkg/cache"
	"github.com/ManuelReschke/SubTrack/internal/pkg/calendar"
	"github.com/ManuelReschke/SubTrack/internal/pkg/credentials"
	"github.com/ManuelReschke/SubTrack/internal/pkg/database"
	"github.com/ManuelReschke/SubTrack/internal/pkg/env"
	"github.com/ManuelReschke/SubTrack/internal/pkg/installments"
	"github.com/ManuelReschke/SubTrack/internal/pkg/jobqueue"
	"github.com/ManuelReschke/SubTrack/internal/pkg/oauth"
	"github.com/ManuelReschke/SubTrack/internal/pkg/router"
	"github.com/ManuelReschke/SubTrack/internal/pkg/security"
	"github.com/ManuelReschke/SubTrack/internal/pkg/session"
	"github.com/ManuelReschke/SubTrack/internal/pkg/statistics"
	"github.com/ManuelReschke/SubTrack/internal/pkg/subscriptions"
	"github.com/ManuelReschke/SubTrack/internal/pkg/users"
)

const replenishLockTTL = 30 * time.Second

func main() {
	app, cleanup, addr := NewApplication()
	defer cleanup()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Shutdown failed: %v", err)
		}
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatal(err)
	}
}

// NewApplication wires storage, services and routes. cleanup stops the
// background workers and closes the connections.
func NewApplication() (*fiber.App, func(), string) {
	env.SetupEnvFile()
	cfg := env.Load()
	secure := strings.HasPrefix(cfg.APIURL, "https://")

	db, err := database.Open(database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		Debug:    env.IsDev(),
	})
	if err != nil {
		log.Fatal(err)
	}
	cacheClient := cache.Setup(context.Background(), cache.Config{
		Host:     cfg.CacheHost,
		Port:     cfg.CachePort,
		Password: cfg.CachePassword,
	})

	box, err := security.NewTokenBox(cfg.SessionSecret)
	if err != nil {
		log.Fatalf("SESSION_SECRET: %v", err)
	}

	repos := repository.NewRepositories(db)
	creds := credentials.NewStore(repos.ProviderAccount, box)
	gateway := calendar.NewGoogleGateway(calendar.GoogleConfig{
		ClientID:     cfg.GoogleKey,
		ClientSecret: cfg.GoogleSecret,
		CalendarID:   cfg.GoogleCalendarID,
	})

	deps := installments.Deps{
		Installments:  repos.Installment,
		Subscriptions: repos.Subscription,
		Users:         repos.User,
		Credentials:   creds,
		Gateway:       gateway,
		Locker:        cache.NewLocker(cacheClient, replenishLockTTL),
	}

	var queue *jobqueue.Queue
	if cfg.JobQueueWorkers > 0 {
		queue = jobqueue.NewQueue(cacheClient, jobqueue.Config{Workers: cfg.JobQueueWorkers})
		jobqueue.NewCalendarDeleteProcessor(creds, gateway, repos.Installment).Register(queue)
		deps.Retries = queue
		queue.Start()
	}

	engine := installments.NewEngine(deps, installments.Config{
		APIURL:          cfg.APIURL,
		Location:        cfg.Location,
		EventHour:       env.GetEnvInt("EVENT_HOUR", 9),
		DefaultCurrency: cfg.DefaultCurrency,
	})
	usersService := users.NewService(repos.User, creds, cfg.DefaultCurrency)
	subscriptionsService := subscriptions.NewService(deps, engine)
	installmentsService := installments.NewService(deps, engine)
	stats := statistics.NewService(repos.Subscription, repos.Installment, engine, cacheClient)

	sessions := session.NewSessionStore(session.Config{
		Host:     cfg.CacheHost,
		Port:     cfg.CachePort,
		Password: cfg.CachePassword,
		Secure:   secure,
	})
	oauth.Setup(oauth.Config{
		GoogleKey:     cfg.GoogleKey,
		GoogleSecret:  cfg.GoogleSecret,
		BaseURL:       cfg.APIURL,
		CacheHost:     cfg.CacheHost,
		CachePort:     cfg.CachePort,
		CachePassword: cfg.CachePassword,
		Secure:        secure,
	})

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/subtrack to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		Views: html.New(basePath+"views", ".html"),
	})

	// ignore favicon requests
	app.Use(favicon.New())

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	if password := env.GetEnv("METRICS_PASSWORD", ""); password != "" {
		app.Get("/metrics", basicauth.New(basicauth.Config{
			Users: map[string]string{
				env.GetEnv("METRICS_USER", "admin"): password,
			},
		}), monitor.New())
	}

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "docs/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app, sessions, router.Controllers{
		Auth:         controllers.NewAuthController(usersService, sessions),
		User:         controllers.NewUserController(usersService),
		Subscription: controllers.NewSubscriptionController(subscriptionsService, stats),
		Installment:  controllers.NewInstallmentController(installmentsService, stats),
		Dashboard:    controllers.NewDashboardController(stats),
		Health: controllers.NewHealthController(map[string]controllers.Pinger{
			"database": pingDatabase(db),
			"cache": func(ctx context.Context) error {
				return cacheClient.Ping(ctx).Err()
			},
		}),
	}, secure)

	cleanup := func() {
		if queue != nil {
			queue.Stop()
		}
		if err := cacheClient.Close(); err != nil {
			log.Printf("Closing cache failed: %v", err)
		}
		database.Close(db)
	}
	return app, cleanup, cfg.ListenAddr()
}

func pingDatabase(db *gorm.DB) controllers.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("connection pool: %w", err)
		}
		return sqlDB.PingContext(ctx)
	}
}
