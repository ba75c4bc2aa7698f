package report

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"pagotrack/internal/core"
	"pagotrack/internal/ports"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	moneyFormat     = `"$"#,##0.00`
	headerFill      = "C1272D"
	totalFill       = "F5F5F5"
)

var _ ports.ReportRenderer = XLSX{}

// XLSX renders the report as a single-sheet workbook. Amounts are written
// as numbers so the sheet can be summed.
type XLSX struct{}

// SheetName is the worksheet name for a month, e.g. "2024-03".
func SheetName(m core.MonthRef) string {
	return m.String()
}

func (XLSX) Render(_ context.Context, r core.MonthlyReport) (core.Document, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(r.Month)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return core.Document{}, fmt.Errorf("rename sheet: %w", err)
	}
	w := &sheetWriter{f: f, sheet: sheet}
	t := Build(r)

	styles, err := newStyles(f)
	if err != nil {
		return core.Document{}, err
	}

	w.set(1, 1, t.Title)
	w.style(1, 1, 1, 1, styles.title)

	row := 3
	for _, field := range t.Fields {
		w.set(1, row, field.Label)
		w.set(2, row, field.Value)
		w.style(1, row, 1, row, styles.label)
		row++
	}

	row++
	headerRow := row
	for i, c := range t.Columns {
		w.set(i+1, row, c)
	}
	w.style(1, row, len(t.Columns), row, styles.header)
	row++

	for _, p := range r.Payments {
		cells := []any{p.Date.String(), noteOr(p.Note), statusPaid, p.Amount.Float64()}
		for i, v := range cells {
			w.set(i+1, row, v)
		}
		w.style(4, row, 4, row, styles.money)
		row++
	}
	if len(r.Payments) == 0 {
		for i, v := range []any{"-", emptyMonth, "-", 0.0} {
			w.set(i+1, row, v)
		}
		w.style(4, row, 4, row, styles.money)
	} else {
		w.set(2, row, totalLabel)
		w.set(4, row, r.TotalPaid.Float64())
		w.style(1, row, 3, row, styles.total)
		w.style(4, row, 4, row, styles.totalMoney)
	}

	for col, width := range map[string]float64{"A": 24, "B": 40, "C": 12, "D": 16} {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return core.Document{}, fmt.Errorf("set column width: %w", err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
		ActivePane:  "bottomLeft",
	}); err != nil {
		return core.Document{}, fmt.Errorf("freeze header: %w", err)
	}

	if w.err != nil {
		return core.Document{}, w.err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return core.Document{}, fmt.Errorf("write workbook: %w", err)
	}
	return core.Document{
		Name:        FileName(r, "xlsx"),
		ContentType: xlsxContentType,
		Body:        buf.Bytes(),
	}, nil
}

type xlsxStyles struct {
	title, label, header, money, total, totalMoney int
}

func newStyles(f *excelize.File) (xlsxStyles, error) {
	var (
		s   xlsxStyles
		err error
	)
	mf := moneyFormat
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16, Color: headerFill}}},
		{&s.label, &excelize.Style{Font: &excelize.Font{Color: "505050"}}},
		{&s.header, &excelize.Style{
			Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill: excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		}},
		{&s.money, &excelize.Style{CustomNumFmt: &mf, Font: &excelize.Font{Bold: true}}},
		{&s.total, &excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{totalFill}, Pattern: 1},
		}},
		{&s.totalMoney, &excelize.Style{
			CustomNumFmt: &mf,
			Font:         &excelize.Font{Bold: true},
			Fill:         excelize.Fill{Type: "pattern", Color: []string{totalFill}, Pattern: 1},
		}},
	}
	for _, d := range defs {
		if *d.dst, err = f.NewStyle(d.style); err != nil {
			return s, fmt.Errorf("create style: %w", err)
		}
	}
	return s, nil
}

// sheetWriter keeps the first error so the layout code stays linear.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(col, row int, v any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellValue(w.sheet, cell, v); err != nil {
		w.err = fmt.Errorf("set %s: %w", cell, err)
	}
}

func (w *sheetWriter) style(col1, row1, col2, row2, id int) {
	if w.err != nil {
		return
	}
	from, err := excelize.CoordinatesToCellName(col1, row1)
	if err != nil {
		w.err = err
		return
	}
	to, err := excelize.CoordinatesToCellName(col2, row2)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellStyle(w.sheet, from, to, id); err != nil {
		w.err = fmt.Errorf("style %s:%s: %w", from, to, err)
	}
}
