package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/booking-harvester/internal/app"
	"github.com/samvad-hq/booking-harvester/internal/config"
	"github.com/samvad-hq/booking-harvester/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fetch failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.InitTo(cfg, os.Stderr)
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher, err := app.NewFetcher(cfg, log)
	if err != nil {
		return err
	}
	if err := fetcher.Run(ctx, os.Stdout); err != nil {
		logger.WarnObj("fetch aborted", "booking_url", cfg.BookingURL)
		return err
	}
	logger.DebugObj("fetch finished", "booking_url", cfg.BookingURL)
	return nil
}
