package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pagotrack/internal/backend"
	"pagotrack/internal/cache"
	"pagotrack/internal/cli"
	"pagotrack/internal/config"
	"pagotrack/internal/core"
	"pagotrack/internal/extract"
	"pagotrack/internal/log"
	"pagotrack/internal/ports"
	"pagotrack/internal/schedule"
	"pagotrack/internal/services"
)

var (
	flagBackend string
	flagDBPath  string
	flagMonth   string
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "pagotrack",
	Short: "Weekly payment tracker",
	Long:  "Record weekly payments to an employee and reconcile them against the expected schedule.",
	RunE:  runStatus,
	PersistentPreRun: func(*cobra.Command, []string) {
		cli.LoadEnvFile()
	},
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Storage backend: sqlite or memory (overrides DATA_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path (overrides SQLITE_DB_PATH)")
	rootCmd.PersistentFlags().StringVarP(&flagMonth, "month", "m", "", "Month as YYYY-MM (default: current month)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log warnings and errors")
}

// app is the wiring shared by every command.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	backend *backend.Result
	state   *services.StateStore
	views   *cache.LRUCache[schedule.MonthView]
	tracker *services.Tracker
	reports *services.ReportService
}

func openApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	if flagBackend != "" {
		cfg.DataBackend = flagBackend
	}
	if flagDBPath != "" {
		cfg.SQLiteDBPath = flagDBPath
	}
	if flagQuiet {
		cfg.LogLevel = "warn"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentApp,
		Output:    os.Stderr,
	})
	log.SetDefault(logger)

	state, res, err := cli.OpenState(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}
	views := services.NewViewCache()
	return &app{
		cfg:     cfg,
		logger:  logger,
		backend: res,
		state:   state,
		views:   views,
		tracker: services.NewTracker(state, views),
		reports: services.NewReportService(state),
	}, nil
}

func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		a.logger.Warn("Failed to close backend", log.FieldError, err)
	}
}

// extractor returns the OCR extractor, or Noop when OCR is disabled.
func (a *app) extractor() ports.Extractor {
	if !a.cfg.OCREnabled {
		return extract.Noop{}
	}
	return extract.NewTesseract(a.cfg.OCRLanguage, a.cfg.OCRTimeout)
}

// selectedMonth resolves --month, defaulting to the current month.
func (a *app) selectedMonth() (core.MonthRef, error) {
	if flagMonth == "" {
		return a.tracker.Today().MonthRef(), nil
	}
	return core.ParseMonthRef(flagMonth)
}

func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}
