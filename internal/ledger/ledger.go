// Package ledger holds the ordered, per-date-unique collection of recorded
// payments.
//
// The ledger keeps payments sorted ascending by date and never holds two
// payments for the same calendar date: recording a payment for a date that
// already has one replaces it. Mutations are serialized by an internal lock.
package ledger

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"pagotrack/internal/core"
)

// Lookup is the read side used by reconciliation.
type Lookup interface {
	FindByDate(date core.Date) (core.Payment, bool)
}

// Ledger is safe for concurrent use.
type Ledger struct {
	mu       sync.RWMutex
	payments []core.Payment
	newID    func() string
}

var (
	_ Lookup = (*Ledger)(nil)
	_ Lookup = Snapshot(nil)
)

// New builds a ledger from an arbitrary slice (e.g. loaded from storage).
// Later entries win when two share a date; the result is sorted.
func New(payments []core.Payment) *Ledger {
	return &Ledger{
		payments: normalize(payments),
		newID:    func() string { return uuid.NewString() },
	}
}

// Upsert stores a new record for draft.Date with a fresh identifier,
// replacing any record already on that date. Invalid drafts are rejected
// before the ledger is touched.
func (l *Ledger) Upsert(draft core.PaymentDraft, now time.Time) (core.Payment, error) {
	if err := draft.Validate(); err != nil {
		return core.Payment{}, err
	}

	p := core.Payment{
		ID:           l.newID(),
		Date:         draft.Date,
		Amount:       draft.Amount,
		Note:         draft.Note,
		ReceiptImage: slices.Clone(draft.ReceiptImage),
		RecordedAt:   now,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := slices.DeleteFunc(slices.Clone(l.payments), func(e core.Payment) bool {
		return e.Date.Equal(p.Date)
	})
	i, _ := slices.BinarySearchFunc(next, p.Date, comparePaymentDate)
	l.payments = slices.Insert(next, i, p)
	return p, nil
}

// Remove deletes the record on date. It reports whether one existed.
func (l *Ledger) Remove(date core.Date) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, found := slices.BinarySearchFunc(l.payments, date, comparePaymentDate)
	if !found {
		return false
	}
	l.payments = slices.Delete(slices.Clone(l.payments), i, i+1)
	return true
}

func (l *Ledger) FindByDate(date core.Date) (core.Payment, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Snapshot(l.payments).FindByDate(date)
}

// All returns the payments ascending by date.
func (l *Ledger) All() []core.Payment {
	return l.Snapshot()
}

// Snapshot returns an immutable view of the current payments.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.payments)
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.payments)
}

// Snapshot is a sorted, per-date-unique payment slice. Callers must not
// modify it.
type Snapshot []core.Payment

func (s Snapshot) FindByDate(date core.Date) (core.Payment, bool) {
	i, found := slices.BinarySearchFunc(s, date, comparePaymentDate)
	if !found {
		return core.Payment{}, false
	}
	return s[i], true
}

// Last returns the chronologically latest payment.
func (s Snapshot) Last() (core.Payment, bool) {
	if len(s) == 0 {
		return core.Payment{}, false
	}
	return s[len(s)-1], true
}

func comparePaymentDate(p core.Payment, d core.Date) int {
	return p.Date.Compare(d)
}

func normalize(in []core.Payment) []core.Payment {
	byDate := make(map[string]int, len(in))
	out := make([]core.Payment, 0, len(in))
	for _, p := range in {
		if p.Date.IsZero() {
			continue
		}
		key := p.Date.String()
		if i, ok := byDate[key]; ok {
			out[i] = p
			continue
		}
		byDate[key] = len(out)
		out = append(out, p)
	}
	slices.SortStableFunc(out, func(a, b core.Payment) int {
		return a.Date.Compare(b.Date)
	})
	return out
}
