package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pagotrack/internal/report"
)

var extractCmd = &cobra.Command{
	Use:   "extract IMAGE",
	Short: "Read the date and amount off a receipt image",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd, time.Minute)
	defer cancel()

	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.cfg.OCREnabled {
		fmt.Fprintln(os.Stderr, report.RenderWarning("OCR deshabilitado (OCR_ENABLED=false)"))
	}
	hint, err := a.extractor().Extract(ctx, image)
	if err != nil {
		return err
	}

	date, amount := "-", "-"
	if hint.Date != nil {
		date = hint.Date.String()
	}
	if hint.Amount != nil {
		amount = report.FormatMoney(*hint.Amount)
	}
	fmt.Print(report.RenderFields([]report.Field{
		{Label: "Fecha", Value: date},
		{Label: "Monto", Value: amount},
	}))
	return nil
}
