package main // Entry point package

import (
	"context" // Context for startup deadlines
	"log"     // Logging library
	"time"    // Timeouts

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/flightdeck-site/flightdeck-api/internal/config"     // Internal config loader
	"github.com/flightdeck-site/flightdeck-api/internal/database"   // MySQL connection pool
	"github.com/flightdeck-site/flightdeck-api/internal/handler"    // HTTP handlers
	"github.com/flightdeck-site/flightdeck-api/internal/middleware" // Auth and throttle middleware
	"github.com/flightdeck-site/flightdeck-api/internal/queue"      // Session event consumer
	"github.com/flightdeck-site/flightdeck-api/internal/repository" // Data access layer
	"github.com/flightdeck-site/flightdeck-api/internal/router"     // Route registration
	queue_publisher "github.com/flightdeck-site/flightdeck-api/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not loaded: %v", err) // Fine in production, env comes from the process
	}
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewRefreshTokenRepo(db)
	groups := repository.NewTabGroupRepo(db)
	tabs := repository.NewTabRepo(db)
	environments := repository.NewEnvironmentRepo(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := tokens.EnsureSchema(ctx); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	cookies := handler.NewCookieManager(handler.CookieConfig{
		Secure:     cfg.CookieSecure,
		Path:       cfg.CookiePath,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	})

	auth := handler.NewAuthHandler(cfg, users, tokens, cookies)
	auth.Publish = queue_publisher.PublishSessionEvent // Audit trail for session events

	rdb := config.NewRedisClient() // nil when Redis is unreachable; throttle fails open
	throttle := middleware.NewLoginThrottle(config.LoadRateLimitConfig(), rdb)

	go func() {
		if err := queue.StartSessionConsumer(); err != nil {
			log.Printf("session consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Deps{
		JWTSecret:    cfg.JWTSecret,
		AdminOnly:    cfg.AdminOnly,
		Cookies:      cookies,
		Throttle:     throttle,
		Auth:         auth,
		Users:        handler.NewUsersHandler(users, groups),
		TabGroups:    handler.NewTabGroupsHandler(groups),
		Tabs:         handler.NewTabsHandler(tabs),
		Environments: handler.NewEnvironmentsHandler(environments),
		Sessions:     handler.NewAdminSessionsHandler(tokens),
		AdminUsers:   handler.NewAdminUsersHandler(cfg, users, tokens),
	})

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
