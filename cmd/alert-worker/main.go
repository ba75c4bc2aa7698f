package main

import (
	"context"
	"errors"
	"os"
	"time"

	"pagotrack/internal/cli"
	"pagotrack/internal/log"
	"pagotrack/internal/services"
	"pagotrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentAlert)
	logger.Info("Starting alert-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required: alerts are published to the missed payments queue")
		os.Exit(1)
	}

	state, res, err := cli.OpenState(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to open state", log.FieldError, err)
		os.Exit(1)
	}
	defer res.Close()
	if res.Bus == nil {
		logger.Error("AMQP client unavailable, cannot publish alerts")
		os.Exit(1)
	}

	processor := services.NewAlertProcessor(state, res.Bus)
	// Another process owns the writes, so state is reloaded before each run.
	w := worker.NewAlertWorker(processor, cfg.AlertInterval, state.Init)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Missed payment checks configured",
		"interval", cfg.AlertInterval,
		"backend", cfg.DataBackend,
		"queue", cfg.AMQPAlertQueue)

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Alert worker failed", log.FieldError, err)
	}
	cli.WaitForShutdown(ctx, done)
}
