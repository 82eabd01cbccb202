package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"school_portal/internal/attendance"
	"school_portal/internal/config"
	"school_portal/internal/portal"
	"school_portal/internal/server"
	"school_portal/internal/services"
	"school_portal/internal/storage"
	"school_portal/src"
	"school_portal/src/logger"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file loaded, using the environment")
	}

	cfg, err := src.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitLogger(cfg.LogConfig); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		logger.Fatal().Err(err).Msg("service stopped")
	}
}

func run(cfg *src.Config) error {
	ctx := context.Background()

	// Load tuning from config.yaml
	yamlConfig, err := config.LoadConfig(cfg.ServerConfig.ConfigPath)
	if err != nil {
		return err
	}
	retrieval, err := config.BuildRetrievalConfig(yamlConfig)
	if err != nil {
		return err
	}
	retrieval.MaxCacheAge = cfg.CacheConfig.MaxAge

	kv, err := storage.Open(ctx, storage.Options{
		Backend:    cfg.CacheConfig.Backend,
		Dir:        cfg.CacheConfig.Dir,
		RedisURL:   cfg.RedisURL,
		Retention:  cfg.CacheConfig.Retention,
		QuotaBytes: cfg.CacheConfig.QuotaBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to open cache storage: %w", err)
	}
	defer kv.Close()

	api := services.NewAttendanceService(cfg.APIConfig.BaseURL, cfg.APIConfig.Timeout)
	cache := storage.NewAttendanceCache(kv, nil)

	service, err := attendance.NewService(ctx, api, cache, retrieval, nil)
	if err != nil {
		return err
	}

	srv, err := server.New(ctx, service, portal.NewRegistry(yamlConfig.Menus))
	if err != nil {
		return err
	}

	logger.Info().
		Str("api", cfg.APIConfig.BaseURL).
		Str("cache_backend", cfg.CacheConfig.Backend).
		Int("port", cfg.ServerConfig.Port).
		Msg("school portal service starting")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(fmt.Sprintf("0.0.0.0:%d", cfg.ServerConfig.Port))
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
