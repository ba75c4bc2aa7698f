package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"pagotrack/internal/core"
	"pagotrack/internal/log"
	"pagotrack/internal/schedule"
	"pagotrack/internal/services"
)

type errorBody struct {
	Error string `json:"error"`
}

var errNotFound = errors.New("not found")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrNoteTooLong):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidWeekday),
		errors.Is(err, schedule.ErrInvalidWindow),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs server-side failures and hides their detail from the
// client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		ctx := r.Context()
		fields := log.NewFields().WithErrorType(log.ErrorTypeInternal)
		if year := r.PathValue("year"); year != "" {
			fields.WithMonth(year + "-" + r.PathValue("month"))
		}
		log.NewStructuredLogger(log.FromContext(ctx)).
			LogError(ctx, "Request failed", err, log.FromContext(ctx).Component(), op, fields)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorBody{Error: msg})
}
