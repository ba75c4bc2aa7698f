package extract

import (
	"testing"
	"time"

	"pagotrack/internal/core"
)

var today = core.NewDate(2024, 3, 20)

func TestParseText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantDate   string
		wantAmount string
	}{
		{
			name:       "bank transfer",
			text:       "BBVA\nTransferencia exitosa\nFecha: 08/03/2024 14:35\nImporte: $2,500.00\nFolio 123456789",
			wantDate:   "2024-03-08",
			wantAmount: "2500.00",
		},
		{
			name:       "iso date and total",
			text:       "Fecha de operación 2024-03-15\nTOTAL MXN 3000",
			wantDate:   "2024-03-15",
			wantAmount: "3000.00",
		},
		{
			name:       "spanish month name",
			text:       "Comprobante\n8 de marzo de 2024\nMonto pagado 1.250,50",
			wantDate:   "2024-03-08",
			wantAmount: "1250.50",
		},
		{
			name:       "abbreviated month",
			text:       "01 MAR 2024\n$ 2500",
			wantDate:   "2024-03-01",
			wantAmount: "2500.00",
		},
		{
			name:       "most recent date not in the future wins",
			text:       "Emitido 01/02/2024\nPagado 15/03/2024\nVence 30/04/2024\nTotal $900",
			wantDate:   "2024-03-15",
			wantAmount: "900.00",
		},
		{
			name:       "dot groups thousands",
			text:       "Total $1.234",
			wantAmount: "1234.00",
		},
		{
			name:       "comma groups thousands",
			text:       "Total $1,234",
			wantAmount: "1234.00",
		},
		{
			name: "bare numbers are not amounts",
			text: "Referencia 987654\nCuenta ****1234",
		},
		{
			name:     "impossible date rejected",
			text:     "31/02/2024 and 2024-03-01",
			wantDate: "2024-03-01",
		},
		{
			name: "empty text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint := ParseText(tt.text, today)

			switch {
			case tt.wantDate == "" && hint.Date != nil:
				t.Errorf("date = %s, want none", hint.Date)
			case tt.wantDate != "" && (hint.Date == nil || hint.Date.String() != tt.wantDate):
				t.Errorf("date = %v, want %s", hint.Date, tt.wantDate)
			}

			switch {
			case tt.wantAmount == "" && hint.Amount != nil:
				t.Errorf("amount = %s, want none", hint.Amount)
			case tt.wantAmount != "" && (hint.Amount == nil || hint.Amount.String() != tt.wantAmount):
				t.Errorf("amount = %v, want %s", hint.Amount, tt.wantAmount)
			}
		})
	}
}

func TestPickDateAllInFuture(t *testing.T) {
	dates := []core.Date{core.NewDate(2024, 4, 1), core.NewDate(2024, 5, 1)}
	got, ok := pickDate(dates, today)
	if !ok || !got.Equal(core.NewDate(2024, time.May, 1)) {
		t.Fatalf("got %s %v", got, ok)
	}
}
