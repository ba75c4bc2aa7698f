// Package report renders the monthly payment report in the formats the
// tools offer: a terminal table, an XLSX workbook and a Google Sheet.
package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"pagotrack/internal/core"
)

const (
	Title        = "Reporte de Pagos Semanales"
	noteFallback = "Sin nota"
	statusPaid   = "Pagado"
	emptyMonth   = "No hay pagos registrados este mes"
	totalLabel   = "TOTAL MENSUAL"
)

// Columns of the payments table.
var Columns = []string{"Fecha", "Concepto / Notas", "Estado", "Monto"}

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// Field is a label/value pair printed above the table.
type Field struct {
	Label string
	Value string
}

// Table is the format-independent layout shared by every renderer.
type Table struct {
	Title   string
	Period  string
	Fields  []Field
	Columns []string
	Rows    [][]string
	// HasTotal marks the last row as the monthly total.
	HasTotal bool
}

// Build lays out the report: one row per payment, then a total row, or a
// single placeholder row when nothing was paid.
func Build(r core.MonthlyReport) Table {
	t := Table{
		Title:  Title,
		Period: Period(r.Month),
		Fields: []Field{
			{"Nombre", r.Settings.Name},
			{"Periodo", Period(r.Month)},
			{"Monto Esperado Semanal", FormatMoney(r.Settings.ExpectedAmount)},
			{"Total Pagado este Mes", FormatMoney(r.TotalPaid)},
			{"Fecha de emisión", r.GeneratedAt.Format("02/01/2006")},
		},
		Columns: Columns,
	}

	for _, p := range r.Payments {
		t.Rows = append(t.Rows, []string{p.Date.String(), noteOr(p.Note), statusPaid, FormatMoney(p.Amount)})
	}

	if len(t.Rows) == 0 {
		t.Rows = append(t.Rows, []string{"-", emptyMonth, "-", FormatMoney(core.Money{})})
		return t
	}
	t.Rows = append(t.Rows, []string{"", totalLabel, "", FormatMoney(r.TotalPaid)})
	t.HasTotal = true
	return t
}

func noteOr(note string) string {
	if note = strings.TrimSpace(note); note == "" {
		return noteFallback
	}
	return note
}

// Period renders "marzo 2024".
func Period(m core.MonthRef) string {
	return MonthName(m.Month) + " " + fmt.Sprint(m.Year)
}

func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return m.String()
	}
	return monthNames[m-1]
}

var spaces = regexp.MustCompile(`\s+`)

// FileName is Reporte_Pagos_<name>_<month>_<year>.<ext>.
func FileName(r core.MonthlyReport, ext string) string {
	name := spaces.ReplaceAllString(strings.TrimSpace(r.Settings.Name), "_")
	return fmt.Sprintf("Reporte_Pagos_%s_%s_%d.%s", name, MonthName(r.Month.Month), r.Month.Year, ext)
}

// FormatMoney renders $2,500.00.
func FormatMoney(m core.Money) string {
	fixed := m.Value.StringFixed(2)
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	whole, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return sign + "$" + b.String() + "." + frac
}
