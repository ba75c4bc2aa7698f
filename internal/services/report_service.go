package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pagotrack/internal/core"
	"pagotrack/internal/ports"
	"pagotrack/internal/schedule"
)

// ReportService hands a month's payments and total to a renderer.
type ReportService struct {
	state *StateStore
	now   func() time.Time
}

func NewReportService(state *StateStore) *ReportService {
	return &ReportService{state: state, now: time.Now}
}

// Build assembles the renderer input for month.
func (s *ReportService) Build(month core.MonthRef) (core.MonthlyReport, error) {
	snap, settings, err := s.state.Snapshot()
	if err != nil {
		return core.MonthlyReport{}, err
	}
	return schedule.BuildMonthlyReport(snap, settings, month, s.now())
}

// Render builds the report for month and renders it with r.
func (s *ReportService) Render(ctx context.Context, month core.MonthRef, r ports.ReportRenderer) (core.Document, error) {
	report, err := s.Build(month)
	if err != nil {
		return core.Document{}, err
	}
	doc, err := r.Render(ctx, report)
	if err != nil {
		return core.Document{}, fmt.Errorf("render report %s: %w", month, err)
	}
	slog.InfoContext(ctx, "Report rendered",
		"month", month.String(),
		"payments", len(report.Payments),
		"total", report.TotalPaid.String(),
		"document", doc.Name)
	return doc, nil
}
