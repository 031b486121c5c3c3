package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/maison-storefront/api/routes"
	"github.com/angelmondragon/maison-storefront/internal/catalog"
	"github.com/angelmondragon/maison-storefront/internal/newsletter"
	"github.com/angelmondragon/maison-storefront/internal/storefront"
	"github.com/angelmondragon/maison-storefront/pkg/config"
	"github.com/angelmondragon/maison-storefront/pkg/db"
	"github.com/angelmondragon/maison-storefront/pkg/env"
	"github.com/angelmondragon/maison-storefront/pkg/instance"
	"github.com/angelmondragon/maison-storefront/pkg/logger"
	"github.com/angelmondragon/maison-storefront/pkg/metrics"
	"github.com/angelmondragon/maison-storefront/pkg/migrate"
	"github.com/angelmondragon/maison-storefront/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	// Only a bad redis config is fatal; an unreachable server degrades carts to memory.
	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to configure redis", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storefrontMetrics := metrics.NewStorefrontMetrics(reg)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	loader, err := catalog.NewLoader(catalogRepo, catalog.LoaderOptions{
		CacheTTL:    cfg.Catalog.CacheTTL,
		LoadTimeout: cfg.Catalog.LoadTimeout,
		RetryDelay:  cfg.Catalog.RetryDelay,
		Logger:      logg,
		Metrics:     storefrontMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create catalog loader", err)
		os.Exit(1)
	}
	if _, err := loader.Load(ctx); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "initial catalog load failed, serving unavailable feed until refresh")
	}

	endpoint, err := newsletter.NewEndpoint(cfg.Newsletter, dbClient.DB(), logg)
	if err != nil {
		logg.Error(ctx, "failed to create newsletter endpoint", err)
		os.Exit(1)
	}

	registry, err := storefront.NewRegistry(storefront.Dependencies{
		Snapshots:         redis.NewCartSnapshotStore(redisClient, cfg.Cart.SnapshotTTL),
		Products:          catalogRepo,
		Feed:              loader,
		Taxonomy:          catalog.NewTaxonomy(cfg.Catalog.Taxonomy),
		Endpoint:          endpoint,
		Logger:            logg,
		Metrics:           storefrontMetrics,
		Validator:         validator.New(),
		CartWriteTimeout:  cfg.Cart.WriteTimeout,
		NewsletterTimeout: cfg.Newsletter.Timeout,
		IdleTTL:           cfg.Session.IdleTTL,
	})
	if err != nil {
		logg.Error(ctx, "failed to create session registry", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, registry, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go runSweeper(ctx, logg, registry, cfg.Session.SweepInterval)

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logg.Info(serverCtx, "shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs error
	errs = multierr.Append(errs, server.Shutdown(shutdownCtx))
	errs = multierr.Append(errs, registry.Close(shutdownCtx))
	errs = multierr.Append(errs, redisClient.Close())
	errs = multierr.Append(errs, dbClient.Close())
	if errs != nil {
		logg.Error(serverCtx, "api server shutdown incomplete", errs)
		exitCode = 1
	} else {
		logg.Info(serverCtx, "api server shut down gracefully")
	}
	os.Exit(exitCode)
}

// runSweeper evicts idle sessions until ctx is cancelled.
func runSweeper(ctx context.Context, logg *logger.Logger, registry *storefront.Registry, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := registry.Sweep(ctx); evicted > 0 {
				logg.Info(logg.WithFields(ctx, map[string]any{
					"evicted": evicted,
					"active":  registry.Len(),
				}), "idle sessions swept")
			}
		}
	}
}
