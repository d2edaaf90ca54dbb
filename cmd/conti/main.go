package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"conti/internal/backend"
	"conti/internal/cli"
	apphttp "conti/internal/http"
	"conti/internal/ledger"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("conti")

	cfg := cli.LoadAndValidateConfig(logger)
	group := cli.LoadGroup(logger, cfg)

	result, err := backend.NewFactory(logger.Logger).Open(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to open backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	svc := ledger.NewService(group, result.Store, result.Publisher)
	srv := apphttp.NewServer(":"+cfg.Port, svc, group)

	// Server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting conti server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"members", group.Size())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
