package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pagotrack/internal/core"
)

var errBadRequest = errors.New("bad request")

const maxJSONBytes = 16 << 20

// paymentRequest is the body of POST /api/payments. The receipt image is
// base64 encoded. Amount is a pointer so an omitted or null amount is told
// apart from an explicit 0.
type paymentRequest struct {
	Date         core.Date   `json:"date"`
	Amount       *core.Money `json:"amount"`
	Note         string      `json:"note"`
	ReceiptImage []byte      `json:"receiptImage"`
}

func (p paymentRequest) draft() (core.PaymentDraft, error) {
	if p.Amount == nil {
		return core.PaymentDraft{}, fmt.Errorf("%w: amount is required", core.ErrInvalidAmount)
	}
	return core.PaymentDraft{
		Date:         p.Date,
		Amount:       *p.Amount,
		Note:         sanitizeInput(p.Note),
		ReceiptImage: p.ReceiptImage,
	}, nil
}

// decodeJSON reads one JSON value into v. Domain parse errors (bad date or
// amount) pass through so they map to 422.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, core.ErrInvalidDate) || errors.Is(err, core.ErrInvalidAmount) {
			return err
		}
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// parseMonthPath reads {year} and {month} path values.
func parseMonthPath(r *http.Request) (core.MonthRef, error) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		return core.MonthRef{}, fmt.Errorf("%w: year %q", errBadRequest, r.PathValue("year"))
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil {
		return core.MonthRef{}, fmt.Errorf("%w: month %q", errBadRequest, r.PathValue("month"))
	}
	return core.NewMonthRef(year, time.Month(month))
}

// parseMonthQuery reads optional year and month query parameters. ok is
// false when neither is given; a lone year or month defaults the other to
// now.
func parseMonthQuery(r *http.Request, now time.Time) (m core.MonthRef, ok bool, err error) {
	q := r.URL.Query()
	ys, ms := strings.TrimSpace(q.Get("year")), strings.TrimSpace(q.Get("month"))
	if ys == "" && ms == "" {
		return core.DateOf(now).MonthRef(), false, nil
	}

	year, month := now.Year(), int(now.Month())
	if ys != "" {
		if year, err = strconv.Atoi(ys); err != nil {
			return core.MonthRef{}, false, fmt.Errorf("%w: year %q", errBadRequest, ys)
		}
	}
	if ms != "" {
		if month, err = strconv.Atoi(ms); err != nil {
			return core.MonthRef{}, false, fmt.Errorf("%w: month %q", errBadRequest, ms)
		}
	}
	m, err = core.NewMonthRef(year, time.Month(month))
	return m, true, err
}

// parseWindow reads the optional window query parameter.
func parseWindow(r *http.Request, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("window"))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: window %q", errBadRequest, v)
	}
	return n, nil
}

func parseDatePath(r *http.Request) (core.Date, error) {
	return core.ParseDate(r.PathValue("date"))
}

// sanitizeInput trims and strips control characters except tab and
// newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
