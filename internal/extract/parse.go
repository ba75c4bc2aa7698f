package extract

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"pagotrack/internal/core"
)

var (
	isoDateRe     = regexp.MustCompile(`\b(20\d{2})[-/.](\d{1,2})[-/.](\d{1,2})\b`)
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[-/.](\d{1,2})[-/.](\d{2}|\d{4})\b`)
	namedDateRe   = regexp.MustCompile(`(?i)\b(\d{1,2})(?:\s+de)?[\s\-/.]+([a-záéíóú]{3,10})\.?(?:\s+de)?[\s\-/.]+(\d{4})\b`)

	amountRe = regexp.MustCompile(`\$?\s*(\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{2})?|\d+(?:[.,]\d{1,2})?)`)
)

// totalKeywords mark the line that carries the amount actually paid.
var totalKeywords = []string{"total", "importe", "monto", "pagado", "cantidad"}

var spanishMonths = map[string]time.Month{
	"ene": time.January, "enero": time.January,
	"feb": time.February, "febrero": time.February,
	"mar": time.March, "marzo": time.March,
	"abr": time.April, "abril": time.April,
	"may": time.May, "mayo": time.May,
	"jun": time.June, "junio": time.June,
	"jul": time.July, "julio": time.July,
	"ago": time.August, "agosto": time.August,
	"sep": time.September, "sept": time.September, "septiembre": time.September, "setiembre": time.September,
	"oct": time.October, "octubre": time.October,
	"nov": time.November, "noviembre": time.November,
	"dic": time.December, "diciembre": time.December,
}

// ParseText pulls a transaction date and total amount out of OCR text.
// When several dates are present the most recent one not after today
// wins. Values that cannot be read stay nil.
func ParseText(text string, today core.Date) core.ExtractionHint {
	var hint core.ExtractionHint
	if d, ok := pickDate(findDates(text), today); ok {
		hint.Date = &d
	}
	if m, ok := findAmount(text); ok {
		hint.Amount = &m
	}
	return hint
}

func findDates(text string) []core.Date {
	var out []core.Date
	add := func(y, m, d int) {
		if date, ok := validDate(y, m, d); ok {
			out = append(out, date)
		}
	}

	for _, m := range isoDateRe.FindAllStringSubmatch(text, -1) {
		add(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	// Day first, as printed on Mexican receipts.
	for _, m := range numericDateRe.FindAllStringSubmatch(text, -1) {
		add(fullYear(atoi(m[3])), atoi(m[2]), atoi(m[1]))
	}
	for _, m := range namedDateRe.FindAllStringSubmatch(text, -1) {
		month, ok := spanishMonths[foldAccents(strings.ToLower(m[2]))]
		if !ok {
			continue
		}
		add(atoi(m[3]), int(month), atoi(m[1]))
	}
	return out
}

func pickDate(dates []core.Date, today core.Date) (core.Date, bool) {
	if len(dates) == 0 {
		return core.Date{}, false
	}
	slices.SortFunc(dates, func(a, b core.Date) int { return b.Compare(a) })
	for _, d := range dates {
		if today.IsZero() || !d.After(today) {
			return d, true
		}
	}
	return dates[0], true
}

// findAmount prefers amounts on a keyword line, then any amount written
// with a currency sign. Bare numbers elsewhere are ignored: they are
// usually folios, card digits or times.
func findAmount(text string) (core.Money, bool) {
	var keyword, currency []core.Money
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		onKeyword := false
		for _, k := range totalKeywords {
			if strings.Contains(lower, k) {
				onKeyword = true
				break
			}
		}
		stripped := stripDates(line)
		for _, loc := range amountRe.FindAllStringSubmatchIndex(stripped, -1) {
			raw := stripped[loc[0]:loc[1]]
			m, err := core.ParseMoney(strings.TrimSpace(stripped[loc[2]:loc[3]]))
			if err != nil || m.IsZero() {
				continue
			}
			switch {
			case onKeyword:
				keyword = append(keyword, m)
			case strings.HasPrefix(strings.TrimSpace(raw), "$"):
				currency = append(currency, m)
			}
		}
	}
	if m, ok := largest(keyword); ok {
		return m, true
	}
	return largest(currency)
}

func stripDates(line string) string {
	line = isoDateRe.ReplaceAllString(line, " ")
	line = numericDateRe.ReplaceAllString(line, " ")
	return namedDateRe.ReplaceAllString(line, " ")
}

func largest(ms []core.Money) (core.Money, bool) {
	if len(ms) == 0 {
		return core.Money{}, false
	}
	best := ms[0]
	for _, m := range ms[1:] {
		if m.Value.GreaterThan(best.Value) {
			best = m
		}
	}
	return best, true
}

func validDate(y, m, d int) (core.Date, bool) {
	if m < 1 || m > 12 || d < 1 || d > 31 || y < 2000 || y > 2099 {
		return core.Date{}, false
	}
	date := core.NewDate(y, time.Month(m), d)
	// Reject 31/02 and friends rather than letting time.Date roll over.
	if date.Day() != d {
		return core.Date{}, false
	}
	return date, true
}

func fullYear(y int) int {
	if y < 100 {
		return 2000 + y
	}
	return y
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func foldAccents(s string) string {
	return strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u").Replace(s)
}
