package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pagotrack/internal/core"
	"pagotrack/internal/report"
)

var (
	flagName      string
	flagWeekday   string
	flagExpected  string
	flagStartDate string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or update the employee settings",
	Long:  "Without flags, prints the current settings. Any flag given replaces that field.",
	RunE:  runSettings,
}

func init() {
	settingsCmd.Flags().StringVar(&flagName, "name", "", "Employee name")
	settingsCmd.Flags().StringVar(&flagWeekday, "weekday", "", "Payday: 0-6 (0 = Sunday) or a weekday name")
	settingsCmd.Flags().StringVar(&flagExpected, "amount", "", "Expected weekly amount")
	settingsCmd.Flags().StringVar(&flagStartDate, "start", "", "Employment start date YYYY-MM-DD")
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd, 30*time.Second)
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	settings, err := a.state.Settings()
	if err != nil {
		return err
	}

	changed := false
	if cmd.Flags().Changed("name") {
		settings.Name = strings.TrimSpace(flagName)
		changed = true
	}
	if cmd.Flags().Changed("weekday") {
		if settings.WeeklyPaymentDay, err = parseWeekday(flagWeekday); err != nil {
			return err
		}
		changed = true
	}
	if cmd.Flags().Changed("amount") {
		if settings.ExpectedAmount, err = core.ParseMoney(flagExpected); err != nil {
			return err
		}
		changed = true
	}
	if cmd.Flags().Changed("start") {
		if settings.StartDate, err = core.ParseDate(flagStartDate); err != nil {
			return err
		}
		changed = true
	}
	if changed {
		if err := a.state.ReplaceSettings(ctx, settings); err != nil {
			return err
		}
	}

	fmt.Print(report.RenderFields([]report.Field{
		{Label: "Empleado", Value: settings.Name},
		{Label: "Día de pago", Value: weekdayName(settings.WeeklyPaymentDay)},
		{Label: "Monto semanal", Value: report.FormatMoney(settings.ExpectedAmount)},
		{Label: "Inicio", Value: settings.StartDate.String()},
	}))
	return nil
}

// parseWeekday accepts 0-6 or a Spanish or English weekday name.
func parseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 1 && s[0] >= '0' && s[0] <= '6' {
		return time.Weekday(s[0] - '0'), nil
	}
	for i, name := range weekdayNames {
		w := time.Weekday(i)
		if s == name || s == strings.ToLower(w.String()) {
			return w, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", core.ErrInvalidWeekday, s)
}
