package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ipcproject/luna/internal/app/migrate"
	"github.com/ipcproject/luna/internal/cache"
	"github.com/ipcproject/luna/internal/config"
	httpx "github.com/ipcproject/luna/internal/http"
	"github.com/ipcproject/luna/internal/logger"
	"github.com/ipcproject/luna/internal/repository/postgres"
	"github.com/ipcproject/luna/internal/service/alert"
	"github.com/ipcproject/luna/internal/service/analytics"
	"github.com/ipcproject/luna/internal/service/registry"
	"github.com/ipcproject/luna/internal/service/settings"
	"github.com/ipcproject/luna/internal/ws"
)

func main() {
	log := logger.New("luna", slog.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	configCache := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer configCache.Close()
	if err := configCache.Ping(ctx); err != nil {
		log.Warn("configuration cache unreachable at startup, durable storage will serve reads", "error", err)
	}

	loc := cfg.Location()
	repo := postgres.New(pool, loc)
	alertHub := ws.NewHub()

	registrySvc := registry.New(repo, log)
	settingsSvc := settings.New(configCache, repo, log)
	analyticsSvc := analytics.New(registrySvc, repo, settingsSvc, log, loc)

	if !cfg.AlertsDisabled {
		notifier := alert.MultiNotifier{
			alert.NewLogNotifier(log),
			alert.NewHubNotifier(alertHub),
		}
		evaluator := alert.New(settingsSvc, registrySvc, repo, notifier, log, loc)
		go evaluator.Run(ctx)
	}

	router := httpx.NewRouter(log, analyticsSvc, settingsSvc, registrySvc, alertHub, cfg.QueryTimeout, pool.Ping)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("luna server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("luna server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
