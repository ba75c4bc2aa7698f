package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pagotrack/internal/core"
	"pagotrack/internal/report"
	"pagotrack/internal/schedule"
)

var flagWindow int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the month's schedule, payments and progress",
	RunE:  runStatus,
}

var missedCmd = &cobra.Command{
	Use:   "missed",
	Short: "List paydays of the month with no payment recorded",
	RunE:  runMissed,
}

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show totals paid over the trailing months",
	RunE:  runTrend,
}

func init() {
	trendCmd.Flags().IntVarP(&flagWindow, "window", "w", 0, "Number of months (default: TREND_WINDOW)")
	rootCmd.AddCommand(statusCmd, missedCmd, trendCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd, 30*time.Second)
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
	view, err := a.tracker.MonthView(month)
	if err != nil {
		return err
	}
	settings, err := a.state.Settings()
	if err != nil {
		return err
	}

	doc, err := a.reports.Build(month)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(report.RenderTable(report.Build(doc)))
	fmt.Println()
	fmt.Print(report.RenderFields(statusFields(view, settings)))
	if len(view.Missed) > 0 {
		fmt.Println()
		fmt.Println(report.RenderWarning(fmt.Sprintf("  %d pago(s) omitido(s): %s", len(view.Missed), joinDates(view.Missed))))
	}
	fmt.Println()
	return nil
}

func statusFields(view schedule.MonthView, settings core.EmployeeSettings) []report.Field {
	s := view.Summary
	next := s.NextDue.Date.String()
	if s.NextDue.DueToday {
		next += " (hoy)"
	}
	last := "-"
	if s.LastPayment != nil {
		last = fmt.Sprintf("%s  %s", s.LastPayment.Date, report.FormatMoney(s.LastPayment.Amount))
	}
	return []report.Field{
		{Label: "Día de pago", Value: weekdayName(settings.WeeklyPaymentDay)},
		{Label: "Pagos esperados", Value: fmt.Sprintf("%d x %s", s.ExpectedCount, report.FormatMoney(settings.ExpectedAmount))},
		{Label: "Total esperado", Value: report.FormatMoney(s.ExpectedTotal)},
		{Label: "Progreso", Value: report.Bar(s.ProgressPercent, 20) + " " + report.Percent(s.ProgressPercent)},
		{Label: "Próximo pago", Value: next},
		{Label: "Último pago", Value: last},
	}
}

func runMissed(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd, 30*time.Second)
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
	missed, err := a.tracker.Missed(month)
	if err != nil {
		return err
	}
	if len(missed) == 0 {
		fmt.Printf("Sin pagos omitidos en %s\n", report.Period(month))
		return nil
	}
	for _, d := range missed {
		fmt.Printf("%s  %s\n", d, weekdayName(d.Weekday()))
	}
	return nil
}

func runTrend(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd, 30*time.Second)
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
	window := flagWindow
	if window == 0 {
		window = a.cfg.TrendWindow
	}
	totals, err := a.tracker.Trend(month, window)
	if err != nil {
		return err
	}

	peak := core.Money{}
	for _, t := range totals {
		if t.Total.Value.GreaterThan(peak.Value) {
			peak = t.Total
		}
	}

	fmt.Println()
	fmt.Println(report.RenderTitle("HISTORIAL DE PAGOS"))
	fmt.Println()
	for _, t := range totals {
		pct := schedule.Progress(t.Total, peak)
		fmt.Printf("  %s  %s %s\n", t.Label, report.Bar(pct, 30), report.FormatMoney(t.Total))
	}
	fmt.Println()
	return nil
}

var weekdayNames = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

func weekdayName(w time.Weekday) string {
	if w < time.Sunday || w > time.Saturday {
		return w.String()
	}
	return weekdayNames[w]
}

func joinDates(dates []core.Date) string {
	parts := make([]string, len(dates))
	for i, d := range dates {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}
