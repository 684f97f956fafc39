package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"match-ticket-system/config"
	"match-ticket-system/handlers"
	"match-ticket-system/middleware"
	"match-ticket-system/services"
	"match-ticket-system/store"
	"match-ticket-system/utils"
	"match-ticket-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // crest uploads
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed (except /health and /metrics)
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken))

	allowedOrigins := strings.Join(cfg.AllowedOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID, X-RateLimit-Limit, X-RateLimit-Remaining, Retry-After",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	var ledger store.Store
	if cfg.UseMemoryStore() {
		log.Println("⚠️  ENVIRONMENT=memory, using the in-memory ledger store")
		ledger = store.NewMemoryStore()
	} else {
		if cfg.DatabaseURL == "" {
			log.Fatal("DATABASE_URL environment variable not set")
		}
		db, err := store.OpenPostgres(cfg.DatabaseURL, cfg.MaxOpenConns)
		if err != nil {
			log.Fatal("failed to connect to database:", err)
		}
		ledger = db
	}
	defer ledger.Close()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		client, err := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, running without rate limiting and availability cache: %v", err)
		} else {
			rdb = client
			defer rdb.Close()
		}
	}

	var crests services.CrestUploader
	if cfg.R2Enabled() {
		uploader, err := utils.NewR2Uploader(ctx, utils.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			Bucket:          cfg.R2Bucket,
			CDNBaseURL:      cfg.CDNBaseURL,
		})
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		crests = uploader
	} else {
		local, err := utils.NewLocalUploader("./uploads", "/uploads")
		if err != nil {
			log.Fatal("failed to ensure upload dir:", err)
		}
		log.Println("⚠️  R2 not configured, storing crests under ./uploads")
		app.Static("/uploads", "./uploads")
		crests = local
	}

	availability := workers.NewAvailabilityCache(rdb)

	orderService := services.NewOrderService(ledger, availability)
	accountService := services.NewAccountService(ledger, cfg.DefaultAccountMin, cfg.DefaultAccountMax)
	matchService := services.NewMatchService(ledger, availability)
	teamService := services.NewTeamService(ledger, crests)
	competitionService := services.NewCompetitionService(ledger)

	var snapshot handlers.AvailabilitySnapshot
	if rdb != nil {
		snapshot = availability
	}

	handlers.SetupRoutes(app, handlers.Handlers{
		Orders:        &handlers.OrderHandler{Orders: orderService},
		Accounts:      &handlers.AccountHandler{Accounts: accountService},
		Matches:       &handlers.MatchHandler{Matches: matchService, Cache: snapshot},
		Teams:         &handlers.TeamHandler{Teams: teamService},
		Competitions:  &handlers.CompetitionHandler{Competitions: competitionService},
		Health:        &handlers.HealthHandler{Store: ledger, Redis: rdb},
		EnableMetrics: cfg.EnableMetrics,
	}, middleware.NewPurchaseRateLimiter(rdb, cfg.PurchaseRateLimit, cfg.PurchaseRateWindow))

	snapshotWorker := workers.NewInventorySnapshotWorker(ledger, availability, cfg.InventorySnapshotInterval)
	if err := snapshotWorker.Start(ctx); err != nil {
		log.Printf("⚠️  Inventory snapshot worker not started: %v", err)
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
			stop()
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := snapshotWorker.Stop(); err != nil {
		log.Printf("Snapshot worker shutdown error: %v", err)
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
