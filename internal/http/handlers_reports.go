package http

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"pagotrack/internal/core"
	"pagotrack/internal/extract"
	"pagotrack/internal/log"
)

const defaultReportFormat = "xlsx"

// handleExtract reads a raw image body and returns the extraction hint.
// Extraction failures degrade to an empty hint with 200.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	image, err := io.ReadAll(io.LimitReader(r.Body, maxReceiptBytes+1))
	if err != nil {
		s.writeError(w, r, log.OpExtract, fmt.Errorf("%w: read body: %v", errBadRequest, err))
		return
	}
	if len(image) > maxReceiptBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "receipt image too large"})
		return
	}
	if len(image) == 0 {
		s.writeError(w, r, log.OpExtract, fmt.Errorf("%w: %v", errBadRequest, extract.ErrEmptyImage))
		return
	}

	hint := core.ExtractionHint{}
	if s.extractor != nil {
		if hint, err = s.extractor.Extract(r.Context(), image); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(),
				"Receipt extraction failed, returning empty hint", log.FieldError, err)
			hint = core.ExtractionHint{}
		}
	}
	writeJSON(w, http.StatusOK, hint)
}

// handleReport renders the month report. format is xlsx (default), text
// or sheets; sheets answers with the tab URL.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthPath(r)
	if err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = defaultReportFormat
	}
	renderer, ok := s.renderers[format]
	if !ok {
		s.writeError(w, r, log.OpRender, fmt.Errorf("%w: unsupported report format %q", errBadRequest, format))
		return
	}

	doc, err := s.reports.Render(r.Context(), month, renderer)
	if err != nil {
		s.writeError(w, r, log.OpRender, err)
		return
	}

	if format == "sheets" {
		writeJSON(w, http.StatusOK, map[string]string{"name": doc.Name, "url": string(doc.Body)})
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	if format != "text" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}
