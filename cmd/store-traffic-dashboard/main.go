package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"store-traffic-service/internal/config"
	"store-traffic-service/internal/dashboard"
	"store-traffic-service/internal/logger"
	"store-traffic-service/internal/utils"
)

func main() {
	cfg, err := config.LoadDashboard()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// the terminal belongs to the dashboard, logs go to stderr
	appLogger := logger.NewWithWriter(os.Stderr, cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim := dashboard.NewSimulator(
		utils.NewWeightedSampler(cfg.SimulationZeroProb, nil),
		cfg.SimulationStoreID,
		cfg.SimulationMaxIn,
	)

	board := dashboard.New(
		dashboard.NewAPIClient(cfg.APIURL),
		dashboard.NewSocketFeed(cfg.SocketURL, 0, appLogger),
		sim,
		dashboard.Options{
			StoreID:            cfg.SimulationStoreID,
			GracePeriod:        cfg.GracePeriod,
			SimulationInterval: cfg.SimulationInterval,
			HourlyPollInterval: cfg.HourlyPollInterval,
			RenderInterval:     cfg.RenderInterval,
			ClearScreen:        true,
		},
		os.Stdout,
		appLogger,
	)

	if err := board.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error().Err(err).Msg("dashboard stopped")
		os.Exit(1)
	}
}
