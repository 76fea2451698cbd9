package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pushp314/crova-storefront/internal/cli"
	"github.com/pushp314/crova-storefront/internal/config"
	"github.com/pushp314/crova-storefront/internal/logging"
	"github.com/pushp314/crova-storefront/internal/tracing"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logging.New("storefront", cfg.LogLevel)
	log.Info("starting storefront",
		slog.String("environment", cfg.Environment),
		slog.String("api_url", cfg.APIBaseURL),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, cfg, version)
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown", slog.String("error", err.Error()))
		}
	}()

	app, err := cli.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}

	app.Run(ctx)
	return nil
}
