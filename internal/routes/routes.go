package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/guard-pay/guard_pay/internal/admin"
	"github.com/guard-pay/guard_pay/internal/auth"
	"github.com/guard-pay/guard_pay/internal/blacklist"
	"github.com/guard-pay/guard_pay/internal/card"
	"github.com/guard-pay/guard_pay/internal/config"
	"github.com/guard-pay/guard_pay/internal/escrow"
	"github.com/guard-pay/guard_pay/internal/identity"
	"github.com/guard-pay/guard_pay/internal/infra"
	"github.com/guard-pay/guard_pay/internal/ledger"
	"github.com/guard-pay/guard_pay/internal/middleware"
	"github.com/guard-pay/guard_pay/internal/notification"
	"github.com/guard-pay/guard_pay/internal/profile"
	"github.com/guard-pay/guard_pay/internal/risk"
	"github.com/guard-pay/guard_pay/internal/transfer"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *infra.Postgres
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	// Health and metrics
	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Storage backends
	var (
		ledgerBackend ledger.Ledger
		userRepo      identity.Repository
		blacklistRepo blacklist.Repository
		escrowRepo    escrow.Repository
		cardRepo      card.Repository
		tx            transfer.Transactor
	)
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB.DB)
		userRepo = identity.NewPostgresRepository(d.DB.DB)
		blacklistRepo = blacklist.NewPostgresRepository(d.DB.DB)
		escrowRepo = escrow.NewPostgresRepository(d.DB.DB)
		cardRepo = card.NewPostgresRepository(d.DB.DB)
		tx = d.DB.Transactor
	} else {
		ledgerBackend = ledger.NewInMemory()
		userRepo = identity.NewMemoryRepository()
		blacklistRepo = blacklist.NewMemoryRepository()
		escrowRepo = escrow.NewMemoryRepository()
		cardRepo = card.NewMemoryRepository()
		tx = transfer.NopTransactor{}
	}

	var guard transfer.Guard
	if d.Cache != nil {
		guard = transfer.NewRedisGuard(d.Cache, d.Cfg.ClaimTTL)
	} else {
		guard = transfer.NewMemoryGuard()
	}

	// Services and handlers
	identitySvc := identity.NewService(userRepo)
	tokenSvc := auth.NewTokenService(d.Cfg.JWTSecret, 24*time.Hour)
	notifier := notification.NewLoggerNotifier(d.Logger)

	transferSvc := transfer.NewService(transfer.Deps{
		Ledger:     ledgerBackend,
		Users:      userRepo,
		Collector:  risk.NewCollector(ledgerBackend, blacklistRepo),
		Thresholds: risk.NewGenerator(ledgerBackend, nil),
		Guard:      guard,
		Transactor: tx,
		Notifier:   notifier,
		Logger:     d.Logger,
	})
	escrowSvc := escrow.NewService(escrowRepo, userRepo, d.Logger)
	cardSvc := card.NewService(cardRepo, userRepo, d.Logger)
	adminSvc := admin.NewService(userRepo, ledgerBackend, blacklistRepo, escrowRepo, cardRepo, d.Logger)
	profileSvc := profile.NewService(userRepo, ledgerBackend, cardRepo, escrowRepo)

	authHandler := auth.NewHandler(identitySvc, tokenSvc)
	transferHandler := transfer.NewHandler(transferSvc)
	escrowHandler := escrow.NewHandler(escrowSvc)
	cardHandler := card.NewHandler(cardSvc)
	adminHandler := admin.NewHandler(adminSvc)
	profileHandler := profile.NewHandler(profileSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	// Protected routes
	jwtmw := middleware.JWTAuth(tokenSvc, userRepo)
	protected := api.Group("", jwtmw)
	RegisterTransferRoutes(protected, transferHandler)
	RegisterEscrowRoutes(protected, escrowHandler)
	RegisterCardRoutes(protected, cardHandler)
	RegisterProfileRoutes(protected, profileHandler)
	RegisterAdminRoutes(protected, adminHandler)

	return nil
}
