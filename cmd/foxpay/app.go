package main

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/FoxPay/app/controllers"
	"github.com/ManuelReschke/FoxPay/app/repository"
	"github.com/ManuelReschke/FoxPay/internal/pkg/archive"
	"github.com/ManuelReschke/FoxPay/internal/pkg/cache"
	"github.com/ManuelReschke/FoxPay/internal/pkg/config"
	"github.com/ManuelReschke/FoxPay/internal/pkg/constants"
	"github.com/ManuelReschke/FoxPay/internal/pkg/database"
	"github.com/ManuelReschke/FoxPay/internal/pkg/logging"
	"github.com/ManuelReschke/FoxPay/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/FoxPay/internal/pkg/payments"
	"github.com/ManuelReschke/FoxPay/internal/pkg/router"
)

// NewApplication wires the payment services from cfg and returns the fiber app.
func NewApplication(ctx context.Context, cfg *config.Config) (*fiber.App, error) {
	db, err := database.SetupDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	repos := repository.NewFactory(db).GetRepositories()

	gateway, err := payments.NewStripeGateway(payments.StripeGatewayConfig{
		SecretKey:  cfg.Stripe.SecretKey,
		Timeout:    cfg.Stripe.Timeout,
		APIBaseURL: cfg.Stripe.APIBaseURL,
	})
	if err != nil {
		return nil, err
	}

	var statusCache payments.StatusCache
	var limiterStorage fiber.Storage
	var webhookCounter *counter.WebhookCounter
	if rdb := cache.SetupCache(cfg.Cache); rdb != nil {
		statusCache = cache.NewPaymentStatusCache(rdb)
		limiterStorage = newLimiterStorage(cfg.Cache)
		webhookCounter = counter.NewWebhookCounter(rdb)
	}

	var archiver payments.PayloadArchiver
	archiveCfg, err := archive.LoadConfig()
	if err != nil {
		return nil, err
	}
	if archiveCfg.Enabled {
		a, err := archive.NewS3Archiver(ctx, archiveCfg)
		if err != nil {
			return nil, err
		}
		archiver = a
	}

	if cfg.Stripe.WebhookSecret == "" {
		logging.Component("webhook").Warn("STRIPE_WEBHOOK_SECRET is not set; webhook signatures are not verified")
	}

	checkout := payments.NewCheckoutService(gateway, repos.Payment, payments.CheckoutConfig{
		SuccessURL: cfg.SuccessURL(),
		CancelURL:  cfg.CancelURL(),
		Timeout:    cfg.Stripe.Timeout,
	})
	verifier := payments.NewVerifier(payments.VerifierConfig{
		WebhookSecret: cfg.Stripe.WebhookSecret,
		Tolerance:     cfg.Stripe.WebhookTolerance,
		AllowUnsigned: cfg.Stripe.AllowUnsignedWebhooks && !cfg.IsProd(),
	})
	processor := payments.NewWebhookProcessor(verifier, payments.NewReconciler(repos.Payment), repos.WebhookEvent, archiver)
	if webhookCounter != nil {
		processor.RecordOutcomes(webhookCounter)
	}
	status := payments.NewStatusService(repos.Payment, statusCache, cfg.StatusCacheTTL)

	app := fiber.New(fiber.Config{
		AppName:      "FoxPay",
		BodyLimit:    controllers.MaxWebhookBodyBytes,
		ErrorHandler: controllers.ErrorHandler,
	})

	// recovery, request ids and logging
	app.Use(recover.New(), requestid.New(), logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	// fiber metrics
	app.Get(constants.MetricsRoute, monitor.New(monitor.Config{Title: "FoxPay Metrics"}))

	router.InstallRouter(app, router.Controllers{
		Checkout: controllers.NewCheckoutController(checkout, cfg.Stripe.PublicKey),
		Webhook:  controllers.NewWebhookController(processor),
		Payment:  controllers.NewPaymentController(status),
		Health:   controllers.NewHealthController(db, webhookCounter),
	}, router.Options{
		LimiterStorage:     limiterStorage,
		CheckoutMax:        cfg.CheckoutRateMax,
		CheckoutExpiration: cfg.CheckoutRateSpan,
	})

	return app, nil
}

// newLimiterStorage keeps rate-limit counters in Redis so every instance
// shares them. DB 1 keeps them apart from the status cache.
func newLimiterStorage(cfg config.CacheConfig) fiber.Storage {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		port = 6379
	}
	return redisstorage.New(redisstorage.Config{
		Host:     cfg.Host,
		Port:     port,
		Password: cfg.Password,
		Database: 1,
	})
}
