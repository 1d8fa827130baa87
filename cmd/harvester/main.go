package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/booking-harvester/internal/app"
	"github.com/samvad-hq/booking-harvester/internal/config"
	"github.com/samvad-hq/booking-harvester/internal/logger"
)

func main() {
	once := flag.Bool("once", false, "run a single poll pass and exit")
	flag.Parse()

	if err := run(*once); err != nil {
		fmt.Fprintf(os.Stderr, "harvester failed: %v\n", err)
		os.Exit(1)
	}
}

func run(once bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("harvester starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h, err := app.NewHarvester(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("harvester init failed", "error", err.Error())
		return err
	}

	if once {
		err = h.RunOnce(ctx)
	} else {
		err = h.Run(ctx)
	}
	if err != nil {
		logger.ErrorObj("harvester stopped", "error", err.Error())
	}
	return err
}
