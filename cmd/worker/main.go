// Package main is the entry point for the workshop background worker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"workshop/internal/app"
	"workshop/internal/config"
	"workshop/internal/domain/analytics"
	"workshop/internal/infrastructure/cache"
	"workshop/internal/infrastructure/storage/postgres"
	"workshop/internal/worker"
	"workshop/pkg/logger"
)

func main() {
	cfg, err := config.Load(config.Options{})
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger())
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting workshop worker")

	pool, err := postgres.NewPool(ctx, cfg.Database.Pool())
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	txManager := postgres.NewTxManager(pool)

	// Dashboards must be dropped from the cache the server reads.
	var (
		dashboards analytics.Cache = cache.NewMemoryDashboardCache(cfg.Analytics.CacheTTL)
		dedupe     worker.Deduper  = cache.NewMemoryDeduper()
	)
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer func() { _ = rdb.Close() }()
		dashboards = cache.NewDashboardCache(rdb, cfg.Analytics.CacheTTL)
		dedupe = cache.NewRedisDeduper(rdb)
	}

	services, err := app.New(app.Deps{
		TxManager:      txManager,
		DashboardCache: dashboards,
		TopCustomers:   cfg.Analytics.TopCustomers,
	})
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}

	relay := postgres.NewOutboxRelay(txManager, cfg.Worker.BatchSize, cfg.Worker.MaxRetries,
		worker.NewEventHandler(services.Analytics, dedupe, worker.DefaultDedupeTTL))

	w := worker.New(worker.Config{
		Relay:            relay,
		Invoices:         services.Invoices,
		Companies:        services.Companies,
		Analytics:        services.Analytics,
		Idempotency:      postgres.NewIdempotencyStore(txManager),
		PollInterval:     cfg.Worker.PollInterval,
		BatchSize:        cfg.Worker.BatchSize,
		SnapshotInterval: cfg.Worker.SnapshotInterval,
		OverdueInterval:  cfg.Worker.OverdueInterval,
	}, log)

	ctx = logger.WithLogger(postgres.WithTxManager(ctx, txManager), log)
	w.Run(ctx)

	log.Info("worker stopped")
}
