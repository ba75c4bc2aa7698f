package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pagotrack/internal/core"
	"pagotrack/internal/report"
	"pagotrack/internal/services"
)

var (
	flagDate     string
	flagAmount   string
	flagNote     string
	flagReceipt  string
	flagSeedDemo bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record or replace the payment of a date",
	Long: "Record a payment. A payment on a date that already has one replaces it.\n" +
		"With --receipt, a missing --date or --amount is read off the receipt image.",
	RunE: runRecord,
}

var removeCmd = &cobra.Command{
	Use:   "remove DATE",
	Short: "Remove the payment recorded on DATE (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	recordCmd.Flags().StringVar(&flagDate, "date", "", "Payment date YYYY-MM-DD (default: today)")
	recordCmd.Flags().StringVar(&flagAmount, "amount", "", "Amount paid (default: expected weekly amount)")
	recordCmd.Flags().StringVar(&flagNote, "note", "", "Optional note")
	recordCmd.Flags().StringVar(&flagReceipt, "receipt", "", "Receipt image to attach")
	recordCmd.Flags().BoolVar(&flagSeedDemo, "seed-demo", false, "Seed two demo payments when the ledger is empty")
	rootCmd.AddCommand(recordCmd, removeCmd)
}

func runRecord(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd, time.Minute)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if flagSeedDemo {
		n, err := a.state.SeedDemo(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Pagos de ejemplo agregados: %d\n", n)
		return nil
	}

	settings, err := a.state.Settings()
	if err != nil {
		return err
	}

	var (
		draft core.PaymentDraft
		hint  core.ExtractionHint
	)
	draft.Note = flagNote
	if flagReceipt != "" {
		if draft.ReceiptImage, err = os.ReadFile(flagReceipt); err != nil {
			return fmt.Errorf("read receipt: %w", err)
		}
		if flagDate == "" || flagAmount == "" {
			session := services.NewPrefillSession(a.extractor())
			session.Start(ctx, draft.ReceiptImage, func(h core.ExtractionHint) { hint = h })
			session.Wait()
		}
	}

	switch {
	case flagDate != "":
		if draft.Date, err = core.ParseDate(flagDate); err != nil {
			return err
		}
	case hint.Date != nil:
		draft.Date = *hint.Date
	default:
		draft.Date = a.tracker.Today()
	}

	switch {
	case flagAmount != "":
		if draft.Amount, err = core.ParseMoney(flagAmount); err != nil {
			return err
		}
	case hint.Amount != nil:
		draft.Amount = *hint.Amount
	default:
		draft.Amount = settings.ExpectedAmount
	}

	p, err := a.state.UpsertPayment(ctx, draft)
	if err != nil {
		return err
	}
	fmt.Printf("Pago registrado: %s  %s\n", p.Date, report.FormatMoney(p.Amount))
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd, 30*time.Second)
	defer cancel()

	date, err := core.ParseDate(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.state.RemovePayment(ctx, date)
	if err != nil {
		return err
	}
	if !removed {
		return errors.New("no hay pago registrado el " + date.String())
	}
	fmt.Printf("Pago eliminado: %s\n", date)
	return nil
}
