package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pagotrack/internal/cache"
	"pagotrack/internal/core"
	apphttp "pagotrack/internal/http"
	"pagotrack/internal/log"
	"pagotrack/internal/ports"
	"pagotrack/internal/report/sheets"
	"pagotrack/internal/services"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&flagSeedDemo, "seed-demo", false, "Seed two demo payments when the ledger is empty")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	if flagSeedDemo {
		if n, err := a.state.SeedDemo(ctx); err != nil {
			return err
		} else if n > 0 {
			logger.Info("Seeded demo payments", "count", n)
		}
	}

	var sheetsRenderer ports.ReportRenderer
	if a.cfg.SheetsEnabled() {
		client, err := sheets.New(ctx, a.cfg.GoogleSpreadsheetID, a.cfg.GoogleReportSheetPrefix)
		if err != nil {
			logger.Warn("Google Sheets export disabled", log.FieldError, err)
		} else {
			sheetsRenderer = client
		}
	}

	var extractor ports.Extractor
	if a.cfg.OCREnabled {
		extractor = a.extractor()
	}

	manager := cache.NewManager()
	manager.Register(a.views)
	manager.StartCleanup(5 * time.Minute)
	defer manager.Stop()

	srv := apphttp.NewServer(":"+a.cfg.Port, apphttp.Deps{
		State:          a.state,
		Tracker:        a.tracker,
		Reports:        a.reports,
		Extractor:      extractor,
		Sheets:         sheetsRenderer,
		Ping:           a.backend.Ping,
		TrendWindow:    a.cfg.TrendWindow,
		TrustedProxies: a.cfg.TrustedProxies,
		Logger:         logger,
	})
	srv.ReadTimeout = 15 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)

	// Without a bus the sync worker never sees events, so months are
	// exported from this process.
	if sheetsRenderer != nil && a.backend.Bus == nil {
		exports := services.NewExportProcessor(a.reports, sheetsRenderer, nil, services.ExportProcessorConfig{
			PollInterval: a.cfg.ExportInterval,
			MaxRetries:   services.DefaultExportProcessorConfig().MaxRetries,
		})
		a.state.OnChange(func(e core.PaymentEvent) { exports.Enqueue(e) })
		if err := exports.Start(gctx); err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return exports.Stop(stopCtx)
		})
	}

	g.Go(func() error {
		logger.Info("Starting pagotrack server",
			"port", a.cfg.Port,
			"backend", a.cfg.DataBackend,
			"amqp_enabled", a.backend.Bus != nil,
			"sheets_enabled", sheetsRenderer != nil,
			"ocr_enabled", extractor != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
