package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pagotrack/internal/core"
	"pagotrack/internal/report"
	"pagotrack/internal/storage"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the storage backend and what it holds",
	RunE:  runInfo,
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Print missed-payment alerts from the bus as they arrive",
	RunE:  runAlerts,
}

func init() {
	rootCmd.AddCommand(infoCmd, alertsCmd)
}

// recordLister is implemented by the SQLite backend.
type recordLister interface {
	Records(ctx context.Context) ([]storage.Record, error)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd, 30*time.Second)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, settings, err := a.state.Snapshot()
	if err != nil {
		return err
	}
	fields := []report.Field{
		{Label: "Backend", Value: a.cfg.DataBackend},
		{Label: "Empleado", Value: settings.Name},
		{Label: "Pagos registrados", Value: fmt.Sprint(len(snap))},
		{Label: "AMQP", Value: enabled(a.backend.Bus != nil)},
		{Label: "Google Sheets", Value: enabled(a.cfg.SheetsEnabled())},
		{Label: "OCR", Value: enabled(a.cfg.OCREnabled)},
	}
	if a.cfg.DataBackend == "sqlite" {
		fields = append(fields, report.Field{Label: "Base de datos", Value: a.cfg.SQLiteDBPath})
	}
	fmt.Println()
	fmt.Print(report.RenderFields(fields))

	lister, ok := a.backend.Store.(recordLister)
	if !ok {
		fmt.Println()
		return nil
	}
	records, err := lister.Records(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Key, fmt.Sprint(r.Version), r.UpdatedAt.Local().Format("2006-01-02 15:04"), fmt.Sprintf("%d B", r.Size)})
	}
	fmt.Println()
	fmt.Println(report.RenderTable(report.Table{
		Title:   "REGISTROS ALMACENADOS",
		Columns: []string{"Clave", "Versión", "Actualizado", "Tamaño"},
		Rows:    rows,
	}))
	return nil
}

func runAlerts(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.backend.Bus == nil {
		return errors.New("alerts need a reachable AMQP_URL")
	}
	fmt.Println("Esperando alertas (Ctrl-C para salir)...")
	err = a.backend.Bus.ConsumeAlerts(ctx, func(_ context.Context, alert core.Alert) error {
		fmt.Println(report.RenderWarning(fmt.Sprintf("[%s] %s", alert.Date, alert.Message)))
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func enabled(on bool) string {
	if on {
		return "habilitado"
	}
	return "deshabilitado"
}
