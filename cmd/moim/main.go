package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"moim/internal/backend"
	"moim/internal/cli"
	"moim/internal/config"
	apphttp "moim/internal/http"
	applog "moim/internal/log"
	"moim/internal/metrics"
	"moim/internal/middleware/ratelimit"
	"moim/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)
	cli.MustValidate(logger.Logger, cfg.Validate)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Failed to create backend config", "error", err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	m := metrics.New()
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Store:      result.Store,
		Meetings:   services.NewMeetingService(result.Store, result.Publisher),
		Metrics:    m,
		Logger:     logger,
		SessionTTL: cfg.EditSessionTTL,
		RateLimit:  ratelimit.DefaultConfig(),
	})

	_, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	})

	logger.Info("Starting moim server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"sync_enabled", result.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
