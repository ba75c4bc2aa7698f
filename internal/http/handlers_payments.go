package http

import (
	"fmt"
	"net/http"

	"pagotrack/internal/core"
	"pagotrack/internal/log"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.state.Settings()
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings core.EmployeeSettings
	if err := decodeJSON(r, &settings); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	settings.Name = sanitizeInput(settings.Name)

	if err := s.state.ReplaceSettings(r.Context(), settings); err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	month, filtered, err := parseMonthQuery(r, s.tracker.Today().Time)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	filter := &month
	if !filtered {
		filter = nil
	}
	payments, err := s.tracker.Payments(filter)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, log.OpRecord, err)
		return
	}

	draft, err := req.draft()
	if err != nil {
		s.writeError(w, r, log.OpRecord, err)
		return
	}
	p, err := s.state.UpsertPayment(r.Context(), draft)
	if err != nil {
		s.writeError(w, r, log.OpRecord, err)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogPaymentRecorded(r.Context(), p.Date.String(), p.Amount.String(), p.Note)

	w.Header().Set("Location", "/api/payments/"+p.Date.String())
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	date, err := parseDatePath(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	p, ok, err := s.state.FindPayment(date)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	if !ok {
		s.writeError(w, r, log.OpRead, fmt.Errorf("%w: no payment on %s", errNotFound, date))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	date, err := parseDatePath(r)
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	removed, err := s.state.RemovePayment(r.Context(), date)
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	if !removed {
		s.writeError(w, r, log.OpDelete, fmt.Errorf("%w: no payment on %s", errNotFound, date))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
