package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ludosixer/ludo_wallet/internal/auth"
	"github.com/ludosixer/ludo_wallet/internal/clock"
	"github.com/ludosixer/ludo_wallet/internal/config"
	"github.com/ludosixer/ludo_wallet/internal/funding"
	"github.com/ludosixer/ludo_wallet/internal/identity"
	"github.com/ludosixer/ludo_wallet/internal/ledger"
	"github.com/ludosixer/ludo_wallet/internal/lock"
	"github.com/ludosixer/ludo_wallet/internal/metrics"
	"github.com/ludosixer/ludo_wallet/internal/middleware"
	"github.com/ludosixer/ludo_wallet/internal/notification"
	"github.com/ludosixer/ludo_wallet/internal/payments"
	"github.com/ludosixer/ludo_wallet/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes. Notifier,
// Gateway and Clock are optional and derived from Cfg when nil.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Notifier notification.Notifier
	Gateway  funding.Gateway
	Clock    clock.Clock
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Clock == nil {
		d.Clock = clock.RealClock{}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(d.Cfg.CORSAllowOrigins),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type, Accept, Authorization, Idempotency-Key",
	}))
	if d.Cfg.LogFormat == "text" {
		// Plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger, d.Metrics))

	RegisterHealthRoutes(app, d)

	var (
		userRepo identity.Repository
		txnRepo  ledger.Repository
		locker   lock.Locker
	)
	if d.DB != nil {
		userRepo = identity.NewPostgresRepository(d.DB)
		txnRepo = ledger.NewPostgresRepository(d.DB)
	} else {
		userRepo = identity.NewMemoryRepository()
		txnRepo = ledger.NewInMemory()
	}
	if d.Cache != nil {
		locker = lock.NewRedisLocker(d.Cache, d.Cfg.LockTTL, d.Logger)
	} else {
		locker = lock.NewMemoryLocker()
	}

	notifier := d.Notifier
	if notifier == nil {
		if d.Cfg.TwilioConfigured() {
			notifier = notification.NewTwilioNotifier(d.Cfg.TwilioAccountSID, d.Cfg.TwilioAuthToken, d.Cfg.TwilioPhoneNumber, d.Cfg.SMSCountryCode)
		} else {
			notifier = notification.NewLoggerNotifier(d.Logger)
		}
	}
	gateway := d.Gateway
	if gateway == nil {
		gw, err := funding.NewIndianPayGateway(d.Cfg.GatewayBaseURL, d.Cfg.MerchantID, d.Cfg.RedirectURL)
		if err != nil {
			return err
		}
		gateway = gw
	}

	identitySvc := identity.NewService(userRepo, d.Clock)
	tokens := auth.NewTokens(d.Cfg.JWTSecret, d.Cfg.TokenTTL, d.Clock)
	authSvc := auth.NewService(identitySvc, tokens, notifier, auth.Options{
		OTPTTL:          d.Cfg.OTPTTL,
		Clock:           d.Clock,
		Logger:          d.Logger,
		Metrics:         d.Metrics,
		Locker:          locker,
		LogOTPOnFailure: d.Cfg.IsDevelopment(),
	})
	walletSvc := wallet.NewService(userRepo, txnRepo, locker, d.Metrics)
	paymentSvc := payments.NewService(walletSvc, d.Clock, d.Metrics, d.Logger)
	fundingSvc, err := funding.NewService(walletSvc, gateway, funding.Options{
		Deferred: d.Cfg.DeferredSettlement(),
		Clock:    d.Clock,
		Metrics:  d.Metrics,
		Logger:   d.Logger,
	})
	if err != nil {
		return err
	}

	authHandler := auth.NewHandler(authSvc)
	walletHandler := wallet.NewHandler(walletSvc)
	paymentHandler := payments.NewHandler(paymentSvc)
	fundingHandler := funding.NewHandler(fundingSvc)

	api := app.Group("/api/player")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID := middleware.RequestIDFrom(c)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterAuthRoutes(api, authHandler, middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit))
	RegisterCallbackRoutes(api, fundingHandler)

	// Protected routes
	protected := api.Group("", middleware.JWTAuth(authSvc))
	idempotency := middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	RegisterWalletRoutes(protected, walletHandler)
	RegisterFundingRoutes(protected, fundingHandler, idempotency)
	RegisterPaymentRoutes(protected, paymentHandler, idempotency)

	return nil
}

func corsOrigins(origins string) string {
	if origins == "" {
		return "*"
	}
	return origins
}
