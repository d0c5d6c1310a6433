package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"turia/internal/app"
	"turia/internal/platform/config"
	"turia/internal/platform/logger"
)

// main loads configuration, wires the service and blocks until SIGINT or
// SIGTERM. Business logic lives in the internal service packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	log.Info("starting turia", "addr", cfg.Server.Addr, "mastergst_configured", cfg.MasterGST.ClientID != "" && cfg.MasterGST.ClientSecret != "")
	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server stopped", "error", err)
		a.Close()
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
