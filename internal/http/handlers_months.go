package http

import (
	"net/http"

	"pagotrack/internal/core"
	"pagotrack/internal/log"
)

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthPath(r)
	if err != nil {
		s.writeError(w, r, log.OpReconcile, err)
		return
	}
	view, err := s.tracker.MonthView(month)
	if err != nil {
		s.writeError(w, r, log.OpReconcile, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type trendResponse struct {
	Window int               `json:"window"`
	Months []core.MonthTotal `json:"months"`
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	month, _, err := parseMonthQuery(r, s.tracker.Today().Time)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	window, err := parseWindow(r, s.trendWindow)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	totals, err := s.tracker.Trend(month, window)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, trendResponse{Window: window, Months: totals})
}
