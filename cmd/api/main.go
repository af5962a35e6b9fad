package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inkwell-tcg/inkwell-backend/api/routes"
	"github.com/inkwell-tcg/inkwell-backend/internal/activity"
	authsvc "github.com/inkwell-tcg/inkwell-backend/internal/auth"
	"github.com/inkwell-tcg/inkwell-backend/internal/catalog"
	checkoutsvc "github.com/inkwell-tcg/inkwell-backend/internal/checkout"
	"github.com/inkwell-tcg/inkwell-backend/internal/fulfillment"
	"github.com/inkwell-tcg/inkwell-backend/internal/inventory"
	"github.com/inkwell-tcg/inkwell-backend/internal/orders"
	"github.com/inkwell-tcg/inkwell-backend/internal/payments"
	"github.com/inkwell-tcg/inkwell-backend/internal/submissions"
	"github.com/inkwell-tcg/inkwell-backend/internal/users"
	"github.com/inkwell-tcg/inkwell-backend/pkg/auth/session"
	"github.com/inkwell-tcg/inkwell-backend/pkg/config"
	"github.com/inkwell-tcg/inkwell-backend/pkg/db"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
	"github.com/inkwell-tcg/inkwell-backend/pkg/mercadopago"
	"github.com/inkwell-tcg/inkwell-backend/pkg/metrics"
	"github.com/inkwell-tcg/inkwell-backend/pkg/migrate"
	"github.com/inkwell-tcg/inkwell-backend/pkg/ratelimit"
	"github.com/inkwell-tcg/inkwell-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	limiter, err := ratelimit.NewLimiter(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create rate limiter", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	fulfillmentMetrics := metrics.NewFulfillmentMetrics(registry)

	gateway := mercadopago.NewClient(cfg.MercadoPago.AccessToken,
		mercadopago.WithBaseURL(cfg.MercadoPago.BaseURL),
		mercadopago.WithTimeout(cfg.MercadoPago.Timeout),
	)

	gormDB := dbClient.DB()
	activityService, err := activity.NewService(activity.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create activity service", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(gormDB)
	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:     catalogRepo,
		Tx:       dbClient,
		Activity: activityService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	inventoryRepo := inventory.NewRepository(gormDB)
	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Repo:     inventoryRepo,
		Tx:       dbClient,
		Activity: activityService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(gormDB)
	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:     ordersRepo,
		Tx:       dbClient,
		Activity: activityService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	fulfillmentEngine, err := fulfillment.NewService(fulfillment.ServiceParams{
		Orders:    ordersRepo,
		Inventory: inventoryRepo,
		Activity:  activityService,
		Tx:        dbClient,
		Logger:    logg,
		Metrics:   fulfillmentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create fulfillment engine", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Gateway:  gateway,
		Engine:   fulfillmentEngine,
		Refs:     payments.NewRefRepository(gormDB),
		Activity: activityService,
		Logger:   logg,
		Metrics:  fulfillmentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	webhookGuard, err := payments.NewIdempotencyGuard(redisClient, 0, "mp_notification")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Gateway:   gateway,
		Cards:     catalogRepo,
		Inventory: inventoryRepo,
		Config:    cfg.Checkout,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	submissionsService, err := submissions.NewService(submissions.ServiceParams{
		Repo:     submissions.NewRepository(gormDB),
		Cards:    catalogRepo,
		Tx:       dbClient,
		Activity: activityService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create submissions service", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		Users:     users.NewRepository(gormDB),
		Sessions:  sessionManager,
		Limiter:   limiter,
		JWT:       cfg.JWT,
		RateLimit: cfg.RateLimit,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Sessions:      sessionManager,
			Limiter:       limiter,
			Auth:          authService,
			Catalog:       catalogService,
			Inventory:     inventoryService,
			Checkout:      checkoutService,
			Orders:        ordersService,
			Payments:      paymentsService,
			Submissions:   submissionsService,
			Activity:      activityService,
			Gateway:       gateway,
			WebhookGuard:  webhookGuard,
			MetricsHandle: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
