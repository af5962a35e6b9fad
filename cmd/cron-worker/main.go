package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/inkwell-tcg/inkwell-backend/internal/activity"
	"github.com/inkwell-tcg/inkwell-backend/internal/cron"
	"github.com/inkwell-tcg/inkwell-backend/internal/fulfillment"
	"github.com/inkwell-tcg/inkwell-backend/internal/inventory"
	"github.com/inkwell-tcg/inkwell-backend/internal/orders"
	"github.com/inkwell-tcg/inkwell-backend/internal/payments"
	"github.com/inkwell-tcg/inkwell-backend/pkg/config"
	"github.com/inkwell-tcg/inkwell-backend/pkg/db"
	"github.com/inkwell-tcg/inkwell-backend/pkg/logger"
	"github.com/inkwell-tcg/inkwell-backend/pkg/mercadopago"
	"github.com/inkwell-tcg/inkwell-backend/pkg/metrics"
	"github.com/inkwell-tcg/inkwell-backend/pkg/migrate"
	"github.com/inkwell-tcg/inkwell-backend/pkg/redis"
)

const lockKeyFormat = "cron-worker:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	registry := prometheus.NewRegistry()
	cronMetrics := metrics.NewCronJobMetrics(registry)
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
		Inventory: inventory.NewRepository(gormDB),
		Activity:  activityService,
		Tx:        dbClient,
		Logger:    logg,
		Metrics:   fulfillmentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create fulfillment engine", err)
		os.Exit(1)
	}

	refsRepo := payments.NewRefRepository(gormDB)
	paymentsService, err := payments.NewService(payments.ServiceParams{
		Gateway:  gateway,
		Engine:   fulfillmentEngine,
		Refs:     refsRepo,
		Activity: activityService,
		Logger:   logg,
		Metrics:  fulfillmentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewReconcileJob(cron.ReconcileJobParams{
		Logger:   logg,
		Refs:     refsRepo,
		Payments: paymentsService,
		Window:   cfg.Cron.ReconcileWindow,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile job", err)
		os.Exit(1)
	}

	feeBackfillJob, err := cron.NewFeeBackfillJob(cron.FeeBackfillJobParams{
		Logger:  logg,
		Orders:  ordersRepo,
		Fees:    ordersService,
		Gateway: gateway,
		Limit:   cfg.Cron.FeeBackfillBatch,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create fee backfill job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockKey(cfg.App.Env)), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(reconcileJob, feeBackfillJob),
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
