package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"pagotrack/internal/ports"
	"pagotrack/internal/report"
	"pagotrack/internal/report/sheets"
)

var (
	flagFormat string
	flagOut    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the monthly report as text, xlsx or a Google Sheets tab",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&flagFormat, "format", "f", "text", "Report format: text, xlsx or sheets")
	reportCmd.Flags().StringVarP(&flagOut, "out", "o", ".", "Output directory for xlsx")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd, 2*time.Minute)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	month, err := a.selectedMonth()
	if err != nil {
		return err
	}

	var renderer ports.ReportRenderer
	switch flagFormat {
	case "text":
		renderer = report.Terminal{}
	case "xlsx":
		renderer = report.XLSX{}
	case "sheets":
		if !a.cfg.SheetsEnabled() {
			return fmt.Errorf("sheets export needs GOOGLE_SPREADSHEET_ID")
		}
		if renderer, err = sheets.New(ctx, a.cfg.GoogleSpreadsheetID, a.cfg.GoogleReportSheetPrefix); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown report format %q (want text, xlsx or sheets)", flagFormat)
	}

	doc, err := a.reports.Render(ctx, month, renderer)
	if err != nil {
		return err
	}

	switch flagFormat {
	case "text":
		fmt.Print(string(doc.Body))
	case "sheets":
		fmt.Printf("Reporte exportado: %s\n", doc.Body)
	default:
		path := filepath.Join(flagOut, doc.Name)
		if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("Reporte guardado en %s\n", path)
	}
	return nil
}
