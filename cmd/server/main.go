package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kyz7/pixelarts/internal/config"
	"github.com/Kyz7/pixelarts/internal/database"
	"github.com/Kyz7/pixelarts/internal/logger"
	"github.com/Kyz7/pixelarts/internal/server"
	"github.com/Kyz7/pixelarts/internal/storage"
	"github.com/Kyz7/pixelarts/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	migrationsDir   = "./migrations"
	purgeInterval   = time.Hour
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		logger.L().Errorw("server exited with error", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.L()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// ========== DATABASE ==========
	store, err := database.OpenStore(ctx, cfg, migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	log.Infow("✅ Database connected", "driver", cfg.DBDriver)

	// ========== STORAGE ==========
	provider, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Infow("✅ Storage initialized", "provider", provider.Name())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv, err := server.New(server.Options{
		Config:   cfg,
		Store:    store,
		Storage:  provider,
		Registry: reg,
	})
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	// ========== SEED ==========
	created, err := srv.Users.SeedDefaultAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminEmail)
	switch {
	case err != nil:
		log.Warnw("⚠️  Failed to seed default admin", "error", err)
	case created:
		log.Infow("✅ Default admin created", "username", cfg.AdminUsername)
	}

	// ========== BACKGROUND JOBS ==========
	jobsDone := make(chan struct{})
	go func() {
		defer close(jobsDone)
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := srv.Auth.PurgeRevoked(ctx)
				if err != nil {
					log.Warnw("failed to purge revoked tokens", "error", err)
					continue
				}
				if n > 0 {
					log.Infow("purged expired revoked tokens", "count", n)
				}
			}
		}
	}()

	// ========== START SERVER ==========
	listenErr := make(chan error, 1)
	go func() {
		log.Infow("🚀 Pixel Arts API starting",
			"addr", cfg.ServerAddr,
			"env", cfg.AppEnv,
			"prefix", cfg.APIPrefix,
			"storage", provider.Name(),
			"google_login", cfg.GoogleEnabled(),
		)
		listenErr <- srv.App.Listen(cfg.ServerAddr)
	}()

	select {
	case err := <-listenErr:
		stop()
		<-jobsDone
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	<-jobsDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.App.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warnw("http shutdown incomplete", "error", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Warnw("failed to close store", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warnw("failed to flush traces", "error", err)
	}

	log.Info("server stopped")
	return nil
}
