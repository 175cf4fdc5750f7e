package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ryanbastic/go-pagegrid/internal/api"
	"github.com/ryanbastic/go-pagegrid/internal/config"
	"github.com/ryanbastic/go-pagegrid/internal/editor"
	"github.com/ryanbastic/go-pagegrid/internal/hook"
	"github.com/ryanbastic/go-pagegrid/internal/media"
	"github.com/ryanbastic/go-pagegrid/internal/metrics"
	"github.com/ryanbastic/go-pagegrid/internal/render"
	"github.com/ryanbastic/go-pagegrid/internal/service"
	"github.com/ryanbastic/go-pagegrid/internal/storage"
	"github.com/spf13/cobra"
)

// sweepInterval is how often idle editing sessions are looked for.
const sweepInterval = time.Minute

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel, os.Stdout)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		pages    storage.PageStore = storage.NewMemoryStore()
		subs     hook.SubscriberStore
		backends = map[string]api.Pinger{}
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		logger.Info("connected to database")

		applied, err := storage.RunMigrations(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		logger.Info("migrations complete", "applied", applied)

		pages = storage.NewPostgresStore(pool, cfg.QueryTimeout)
		subs = hook.NewPostgresSubscriberStore(pool, cfg.QueryTimeout)
		backends["postgres"] = pool
		registerCollector(logger, metrics.NewPoolCollector(pool))
	} else {
		logger.Warn("no database configured, pages are kept in memory")
	}

	registry := hook.NewRegistry(subs)
	if err := registry.Load(ctx); err != nil {
		return err
	}
	notifier := hook.NewNotifier(
		registry,
		hook.NewRPCClient(cfg.HookRetryMax, cfg.HookRetryBackoff, cfg.HookRPCTimeout),
		hook.BreakerConfig{MaxFailures: cfg.HookBreakerFailures, ResetTimeout: cfg.HookBreakerReset},
		logger,
	)
	pageService := service.New(pages, notifier, logger)

	sessions := editor.NewManager(cfg.SessionIdleTimeout, logger)
	if cfg.SessionIdleTimeout > 0 {
		go sessions.Run(ctx, sweepInterval)
	}
	registerCollector(logger, metrics.NewSessionsGauge(sessions.Len))

	local, err := media.NewLocalStorage(cfg.MediaDir, cfg.MediaBaseURL)
	if err != nil {
		return err
	}

	handler := api.NewServer(api.Deps{
		Logger:      logger,
		Pages:       pageService,
		Sessions:    sessions,
		Renderer:    render.New(),
		Hooks:       registry,
		Notifier:    notifier,
		Uploader:    media.NewUploader(local, cfg.MediaMaxBytes, logger),
		MediaDir:    local.Dir(),
		Backends:    backends,
		CORSOrigins: cfg.CORSAllowedOrigins,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down...")

	// Stop the session sweeper before draining connections.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	notifier.Wait()

	logger.Info("shutdown complete")
	return nil
}

func registerCollector(logger *slog.Logger, c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			logger.Warn("failed to register collector", "error", err)
		}
	}
}
