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

	"go.uber.org/zap"

	"salesmonitor/backend/internal/cache"
	"salesmonitor/backend/internal/config"
	"salesmonitor/backend/internal/httpapi"
	"salesmonitor/backend/internal/logger"
	"salesmonitor/backend/internal/service"
	"salesmonitor/backend/internal/store"
	"salesmonitor/backend/internal/store/memory"
	pgstore "salesmonitor/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	if err := validateSecurityConfig(cfg); err != nil {
		return fmt.Errorf("invalid security configuration: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 2)
	defer func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				log.Warn("close error", zap.Error(err))
			}
		}
	}()

	repo, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	if closeRepo != nil {
		closers = append(closers, closeRepo)
	}

	dashboardCache, closeCache := openDashboardCache(ctx, cfg, log)
	if closeCache != nil {
		closers = append(closers, closeCache)
	}

	svc := service.New(repo, dashboardCache, log.Named("service"), service.Options{
		StoreGoal: cfg.StoreGoal,
		Location:  loc,
		CacheTTL:  cfg.DashboardCacheTTL(),
	})
	auth, err := httpapi.NewAuthManager(ctx, cfg.AuthSecret, cfg.AccessTokenTTL(), repo)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL != "" && cfg.AdminBootstrapPassword != "" {
		created, err := auth.EnsureAdmin(ctx, cfg.AdminBootstrapPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			log.Info("bootstrap admin account created")
		}
	}
	api := httpapi.New(svc, auth, log.Named("http"), cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("sales monitor listening", zap.String("addr", cfg.Address()), zap.String("timezone", loc.String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		log.Info("shutdown requested", zap.String("signal", s.String()))
	case err, ok := <-serverErr:
		if ok && err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}

// openRepository picks PostgreSQL when DATABASE_URL is set and refuses to fall
// back to memory if it is unreachable.
func openRepository(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Repository, func() error, error) {
	if cfg.DatabaseURL == "" {
		log.Info("repository: in-memory (seeded demo data)")
		return memory.NewSeeded(), nil, nil
	}

	pg, err := pgstore.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres unavailable and DATABASE_URL is set: %w", err)
	}
	if err := pg.Migrate(ctx); err != nil {
		_ = pg.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}
	log.Info("repository: postgres")
	return pg, pg.Close, nil
}

// openDashboardCache degrades to the no-op cache when Redis is missing or down.
func openDashboardCache(ctx context.Context, cfg config.Config, log *zap.Logger) (cache.DashboardCache, func() error) {
	if cfg.RedisAddr == "" {
		log.Info("dashboard cache: noop")
		return cache.NoopDashboardCache{}, nil
	}

	redisCache := cache.NewRedisDashboardCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := redisCache.Ping(ctx); err != nil {
		log.Warn("redis unavailable, using noop dashboard cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = redisCache.Close()
		return cache.NoopDashboardCache{}, nil
	}
	log.Info("dashboard cache: redis", zap.String("addr", cfg.RedisAddr))
	return redisCache, redisCache.Close
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.AllowedOrigin == "*" {
		return fmt.Errorf("ALLOWED_ORIGIN must name a specific origin")
	}
	return nil
}
