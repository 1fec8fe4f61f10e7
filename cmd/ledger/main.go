package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/config"
	"ledger/internal/core"
	apphttp "ledger/internal/http"
	applog "ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/storage"
)

const (
	statsCacheSize   = 1000
	cacheCleanupTick = time.Minute
	shutdownTimeout  = 30 * time.Second
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: applog.ComponentApp,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Events are optional; without a broker the mirror simply stays idle.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, transaction events disabled", applog.FieldError, err)
		} else {
			publisher = amqpClient
			defer amqpClient.Close()
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	cacheManager := cache.NewManager()
	statsCache := cache.NewLRUCache[core.Stats](statsCacheSize, cfg.StatsCacheTTL)
	cacheManager.Register(statsCache)
	cacheManager.StartCleanup(cacheCleanupTick)
	defer cacheManager.Stop()

	svc := services.NewTransactionService(repo, publisher, statsCache)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:            ":" + cfg.Port,
		Service:         svc,
		Subscriptions:   services.NewSubscriptionService(repo),
		Settings:        services.NewSettingsService(repo, publisher, statsCache),
		Verifier:        apphttp.NewInitDataVerifier(cfg.TelegramToken, cfg.InitDataMaxAge),
		RateLimitPerMin: cfg.RateLimitPerMin,
		Logger:          logger,
		Ready:           repo.Ping,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting ledger server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
