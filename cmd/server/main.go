// Package main is the entry point for the workshop API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"workshop/internal/app"
	"workshop/internal/config"
	"workshop/internal/core/security"
	"workshop/internal/doctypes"
	"workshop/internal/domain"
	"workshop/internal/domain/analytics"
	"workshop/internal/infrastructure/cache"
	v1 "workshop/internal/infrastructure/http/v1"
	"workshop/internal/infrastructure/http/v1/handlers"
	"workshop/internal/infrastructure/storage/postgres"
	"workshop/internal/infrastructure/storage/postgres/migrations"
	"workshop/pkg/logger"
)

// version is set at build time: -ldflags "-X main.version=1.2.0"
var version = "dev"

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
	ctx = logger.WithLogger(ctx, log)

	log.Infow("starting workshop server", "env", cfg.App.Env, "version", version)

	if cfg.Database.AutoMigrate {
		if err := migrate(cfg.Database.DSN, log); err != nil {
			log.Fatalw("migrations failed", "error", err)
		}
	}

	// --- Database ---
	pool, err := postgres.NewPool(ctx, cfg.Database.Pool())
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	txManager := postgres.NewTxManager(pool)

	// --- Redis (optional) ---
	checks := map[string]handlers.Pinger{}
	var (
		dashboards  analytics.Cache = cache.NewMemoryDashboardCache(cfg.Analytics.CacheTTL)
		idempotency domain.IdempotencyStore
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
		idempotency = cache.NewIdempotencyStore(rdb)
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		log.Infow("redis connected", "addr", cfg.Redis.Addr)
	} else {
		idempotency = postgres.NewIdempotencyStore(txManager)
	}
	if !cfg.HTTP.Idempotency {
		idempotency = nil
	}

	// --- Metadata ---
	registry, err := doctypes.NewRegistry()
	if err != nil {
		log.Fatalw("failed to build doctype registry", "error", err)
	}
	customizations := cache.NewCustomizations(pool.Pool, registry)
	if err := customizations.Start(ctx); err != nil {
		log.Fatalw("failed to load doctype customizations", "error", err)
	}
	defer customizations.Stop()
	customizations.OnReload(func(docType string) {
		log.Infow("doctype customization reloaded", "doctype", docType)
	})

	// --- Services ---
	services, err := app.New(app.Deps{
		TxManager:      txManager,
		Registry:       registry,
		DashboardCache: dashboards,
		TopCustomers:   cfg.Analytics.TopCustomers,
	})
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}

	jwtCfg := security.DefaultJWTConfig(cfg.JWT.Secret)
	jwtCfg.Issuer = cfg.JWT.Issuer
	jwtCfg.AccessTokenTTL = cfg.JWT.TTL
	jwtService := security.NewJWTService(jwtCfg)

	// --- Router ---
	router, err := v1.NewRouter(v1.RouterConfig{
		Services:         services,
		TxManager:        txManager,
		Logger:           log,
		JWTValidator:     jwtService,
		Idempotency:      idempotency,
		IdempotencyTTL:   cfg.HTTP.IdempotencyTTL,
		MetadataRegistry: registry,
		Customizations:   customizations,
		DefaultLocale:    cfg.Company.DefaultLocale,
		Health:           handlers.NewHealthHandler(pool, cfg.App.Name, version, checks),
		Debug:            !cfg.IsProduction() && cfg.Log.Level == "debug",
	})
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	var handler http.Handler = router
	if cfg.HTTP.Gzip {
		handler = gzhttp.GzipHandler(router)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server listening", "addr", server.Addr, "gzip", cfg.HTTP.Gzip, "redis", cfg.Redis.Enabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	pool.LogStats(logger.WithLogger(shutdownCtx, log))
	log.Info("server stopped")
}

func migrate(dsn string, log *logger.Logger) error {
	m, err := migrations.New(dsn, log)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}
