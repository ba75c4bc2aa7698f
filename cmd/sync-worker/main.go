package main

import (
	"context"
	"errors"
	"os"
	"time"

	"pagotrack/internal/cli"
	"pagotrack/internal/log"
	"pagotrack/internal/report/sheets"
	"pagotrack/internal/services"
	"pagotrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting sync-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required: the worker consumes payment events")
		os.Exit(1)
	}
	if !cfg.SheetsEnabled() {
		logger.Error("GOOGLE_SPREADSHEET_ID is required: the worker exports to Google Sheets")
		os.Exit(1)
	}

	bootCtx := context.Background()
	state, res, err := cli.OpenState(bootCtx, logger, cfg)
	if err != nil {
		logger.Error("Failed to open state", log.FieldError, err)
		os.Exit(1)
	}
	defer res.Close()
	if res.Bus == nil {
		logger.Error("AMQP client unavailable, cannot consume payment events")
		os.Exit(1)
	}

	client, err := sheets.New(bootCtx, cfg.GoogleSpreadsheetID, cfg.GoogleReportSheetPrefix)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	reports := services.NewReportService(state)
	exports := services.NewExportProcessor(reports, client, state.Init, services.ExportProcessorConfig{
		PollInterval: cfg.ExportInterval,
		MaxRetries:   services.DefaultExportProcessorConfig().MaxRetries,
	})
	syncWorker := worker.NewSyncWorker(state, exports, cfg.TrendWindow)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := exports.Stop(ctx); err != nil {
			logger.Warn("Export processor stop failed", log.FieldError, err)
		}
	})

	logger.Info("Performing startup sync check...")
	if n, err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	} else {
		logger.Info("Months queued for export", "count", n)
	}

	// Stop flushes pending months, so the loop outlives the signal context.
	if err := exports.Start(context.Background()); err != nil {
		logger.Error("Failed to start export processor", log.FieldError, err)
		os.Exit(1)
	}

	go func() {
		err := res.Bus.ConsumePaymentEvents(ctx, syncWorker.HandlePaymentEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Payment event consumption failed", log.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
