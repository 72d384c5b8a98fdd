package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/zepno/zepno/internal/activation"
	"github.com/zepno/zepno/internal/catalog"
	"github.com/zepno/zepno/internal/config"
	"github.com/zepno/zepno/internal/middleware"
	"github.com/zepno/zepno/internal/notification"
	"github.com/zepno/zepno/internal/payments"
	"github.com/zepno/zepno/internal/smsactivate"
	"github.com/zepno/zepno/internal/user"
	"github.com/zepno/zepno/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	provider := smsactivate.NewClient(d.Cfg.ProviderAPIKey, d.Cfg.ProviderBaseURL)
	prices := catalog.NewPriceCache(provider, d.Cache, d.Cfg.PriceCacheTTL, d.Logger)
	cat, err := catalog.New(catalog.DefaultServices(), prices, d.Cfg.CountryCode, d.Logger)
	if err != nil {
		return err
	}

	ledgerBackend := wallet.NewPostgresLedger(d.DB)
	sessionStore := activation.NewPostgresStore(d.DB)
	userRepo := user.NewPostgresRepository(d.DB)
	notifier := notification.NewLoggerNotifier(d.Logger)

	activationSvc := activation.NewService(provider, cat, ledgerBackend, sessionStore, notifier, d.Cfg.CountryCode, d.Logger)
	poller := activation.NewPoller(activationSvc, d.Cfg.PollInterval, d.Logger)
	gateway := payments.NewRazorpayGateway(d.Cfg.GatewayBaseURL, d.Cfg.GatewayKeyID, d.Cfg.GatewayKeySecret, d.Cfg.AppName)
	paymentSvc := payments.NewService(ledgerBackend, gateway, notifier, d.Cfg.GatewayWebhookSecret, d.Logger)

	catalogHandler := catalog.NewHandler(cat)
	userHandler := user.NewHandler(userRepo)
	walletHandler := wallet.NewHandler(ledgerBackend)
	activationHandler := activation.NewHandler(activationSvc, poller)
	paymentHandler := payments.NewHandler(paymentSvc)

	// API routes. The webhook stays off this group: gateways do not send
	// Idempotency-Key headers, and replays are deduplicated by payment id.
	api := app.Group("/api/v1")
	api.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterCatalogRoutes(api, catalogHandler)
	RegisterUserRoutes(api, userHandler)
	RegisterWalletRoutes(api, walletHandler, paymentHandler)
	RegisterActivationRoutes(api, activationHandler)

	// Gateway callbacks live outside the versioned API surface.
	RegisterWebhookRoutes(app, paymentHandler)

	return nil
}
