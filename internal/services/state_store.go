package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pagotrack/internal/core"
	"pagotrack/internal/ledger"
	"pagotrack/internal/ports"
)

// Storage keys.
const (
	KeyPayments = "payments"
	KeySettings = "settings"
	KeyAlerts   = "alerts"
)

var (
	ErrNotInitialized = errors.New("state store not initialized")
	// ErrPersist wraps write-through failures. The in-memory change has
	// already been applied when it is returned.
	ErrPersist = errors.New("persist state")
)

// StateStore owns the ledger and the employee settings. It loads them once
// (Init), applies mutations and writes every change through to the KV
// store before returning.
type StateStore struct {
	kv     ports.KVStore
	events ports.EventPublisher
	now    func() time.Time

	// mu serializes mutate+persist so stored bytes always match a
	// consistent ledger.
	mu        sync.Mutex
	ready     bool
	ledger    *ledger.Ledger
	settings  core.EmployeeSettings
	listeners []func(core.PaymentEvent)
}

// NewStateStore returns an uninitialized store. events may be nil.
func NewStateStore(kv ports.KVStore, events ports.EventPublisher) *StateStore {
	return &StateStore{
		kv:     kv,
		events: events,
		now:    time.Now,
	}
}

// Init loads persisted state. Missing or malformed values fall back to an
// empty ledger and default settings; only storage failures are returned.
func (s *StateStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payments []core.Payment
	raw, found, err := s.kv.Load(ctx, KeyPayments)
	if err != nil {
		return fmt.Errorf("load payments: %w", err)
	}
	if found {
		if err := json.Unmarshal(raw, &payments); err != nil {
			slog.WarnContext(ctx, "Stored payments are malformed, starting with an empty ledger",
				"error", err,
				"bytes", len(raw))
			payments = nil
		}
	}

	settings := core.DefaultSettings(s.now())
	raw, found, err = s.kv.Load(ctx, KeySettings)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if found {
		var stored core.EmployeeSettings
		switch err := json.Unmarshal(raw, &stored); {
		case err != nil:
			slog.WarnContext(ctx, "Stored settings are malformed, using defaults", "error", err)
		case stored.Validate() != nil:
			slog.WarnContext(ctx, "Stored settings are invalid, using defaults", "error", stored.Validate())
		default:
			settings = stored
		}
	}

	s.ledger = ledger.New(payments)
	s.settings = settings
	s.ready = true

	slog.InfoContext(ctx, "State loaded",
		"payments", s.ledger.Len(),
		"employee", settings.Name,
		"weekday", settings.WeeklyPaymentDay.String())
	return nil
}

// Snapshot returns a consistent view of the ledger and settings.
func (s *StateStore) Snapshot() (ledger.Snapshot, core.EmployeeSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil, core.EmployeeSettings{}, ErrNotInitialized
	}
	return s.ledger.Snapshot(), s.settings, nil
}

func (s *StateStore) Settings() (core.EmployeeSettings, error) {
	_, settings, err := s.Snapshot()
	return settings, err
}

// FindPayment returns the payment recorded on date.
func (s *StateStore) FindPayment(date core.Date) (core.Payment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return core.Payment{}, false, ErrNotInitialized
	}
	p, ok := s.ledger.FindByDate(date)
	return p, ok, nil
}

// OnChange registers fn to run after every ledger or settings mutation.
// Settings changes are reported as EventSettingsChanged.
func (s *StateStore) OnChange(fn func(core.PaymentEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// UpsertPayment records draft, replacing any payment on the same date.
func (s *StateStore) UpsertPayment(ctx context.Context, draft core.PaymentDraft) (core.Payment, error) {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return core.Payment{}, ErrNotInitialized
	}

	now := s.now()
	p, err := s.ledger.Upsert(draft, now)
	if err != nil {
		s.mu.Unlock()
		return core.Payment{}, err
	}
	persistErr := s.persistPaymentsLocked(ctx)
	event := core.PaymentEvent{
		Type:       core.EventPaymentRecorded,
		Date:       p.Date,
		Amount:     p.Amount,
		OccurredAt: now,
	}
	listeners := s.listeners
	s.mu.Unlock()

	slog.InfoContext(ctx, "Payment recorded",
		"date", p.Date.String(),
		"amount", p.Amount.String(),
		"id", p.ID)
	s.announce(ctx, event, listeners)
	return p, persistErr
}

// RemovePayment deletes the payment on date and reports whether one
// existed. Nothing is persisted or announced when it did not.
func (s *StateStore) RemovePayment(ctx context.Context, date core.Date) (bool, error) {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return false, ErrNotInitialized
	}
	if !s.ledger.Remove(date) {
		s.mu.Unlock()
		return false, nil
	}
	persistErr := s.persistPaymentsLocked(ctx)
	event := core.PaymentEvent{
		Type:       core.EventPaymentRemoved,
		Date:       date,
		OccurredAt: s.now(),
	}
	listeners := s.listeners
	s.mu.Unlock()

	slog.InfoContext(ctx, "Payment removed", "date", date.String())
	s.announce(ctx, event, listeners)
	return true, persistErr
}

// ReplaceSettings validates and stores new settings.
func (s *StateStore) ReplaceSettings(ctx context.Context, settings core.EmployeeSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	s.settings = settings
	persistErr := s.saveLocked(ctx, KeySettings, settings)
	event := core.PaymentEvent{Type: core.EventSettingsChanged, OccurredAt: s.now()}
	listeners := s.listeners
	s.mu.Unlock()

	slog.InfoContext(ctx, "Settings updated",
		"employee", settings.Name,
		"weekday", settings.WeeklyPaymentDay.String(),
		"expected_amount", settings.ExpectedAmount.String(),
		"start_date", settings.StartDate.String())
	s.announce(ctx, event, listeners)
	return persistErr
}

// SeedDemo records two sample payments (the 5th and 12th of the current
// month) when the ledger is empty. It returns how many were added.
func (s *StateStore) SeedDemo(ctx context.Context) (int, error) {
	snap, settings, err := s.Snapshot()
	if err != nil {
		return 0, err
	}
	if len(snap) > 0 {
		return 0, nil
	}

	month := core.DateOf(s.now()).MonthRef()
	seeded := 0
	for i, day := range []int{5, 12} {
		draft := core.PaymentDraft{
			Date:   core.NewDate(month.Year, month.Month, day),
			Amount: settings.ExpectedAmount,
			Note:   fmt.Sprintf("Pago semana %d", i+1),
		}
		if _, err := s.UpsertPayment(ctx, draft); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}

// LoadAlerted returns the dates already alerted on.
func (s *StateStore) LoadAlerted(ctx context.Context) (map[string]bool, error) {
	raw, found, err := s.kv.Load(ctx, KeyAlerts)
	if err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}
	alerted := make(map[string]bool)
	if !found {
		return alerted, nil
	}
	var dates []core.Date
	if err := json.Unmarshal(raw, &dates); err != nil {
		slog.WarnContext(ctx, "Stored alerts are malformed, starting over", "error", err)
		return alerted, nil
	}
	for _, d := range dates {
		alerted[d.String()] = true
	}
	return alerted, nil
}

// SaveAlerted persists the alerted dates.
func (s *StateStore) SaveAlerted(ctx context.Context, dates []core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, KeyAlerts, dates)
}

func (s *StateStore) persistPaymentsLocked(ctx context.Context) error {
	return s.saveLocked(ctx, KeyPayments, s.ledger.All())
}

func (s *StateStore) saveLocked(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrPersist, key, err)
	}
	if err := s.kv.Save(ctx, key, raw); err != nil {
		slog.ErrorContext(ctx, "Failed to persist state", "key", key, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrPersist, key, err)
	}
	return nil
}

func (s *StateStore) announce(ctx context.Context, event core.PaymentEvent, listeners []func(core.PaymentEvent)) {
	for _, fn := range listeners {
		fn(event)
	}
	if s.events == nil {
		return
	}
	if err := s.events.PublishPaymentEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "Failed to publish payment event",
			"type", event.Type,
			"date", event.Date.String(),
			"error", err)
	}
}
