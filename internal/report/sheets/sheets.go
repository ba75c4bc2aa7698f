// Package sheets exports monthly reports to a Google spreadsheet, one tab
// per month.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"pagotrack/internal/core"
	"pagotrack/internal/ports"
	"pagotrack/internal/report"
)

var _ ports.ReportRenderer = (*Client)(nil)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	prefix        string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// New creates a client for spreadsheetID. Without options it authenticates
// with service account credentials from the environment.
func New(ctx context.Context, spreadsheetID, prefix string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if prefix == "" {
		prefix = "Reporte"
	}

	var (
		svc *gsheet.Service
		err error
	)
	if len(opts) == 0 {
		svc, err = newSheetsService(ctx)
	} else {
		svc, err = gsheet.NewService(ctx, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		prefix:        prefix,
		sheetIDs:      make(map[string]int64),
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// SheetTitle is the tab name used for month.
func (c *Client) SheetTitle(month core.MonthRef) string {
	return c.prefix + " " + month.String()
}

// Render implements ports.ReportRenderer. The month's tab is created if
// missing and fully rewritten; the returned document body is the tab URL.
func (c *Client) Render(ctx context.Context, r core.MonthlyReport) (core.Document, error) {
	if c.svc == nil {
		return core.Document{}, errors.New("sheets service not initialized")
	}

	title := c.SheetTitle(r.Month)
	sheetID, err := c.ensureSheet(ctx, title)
	if err != nil {
		return core.Document{}, err
	}

	quoted := "'" + strings.ReplaceAll(title, "'", "''") + "'"
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quoted+"!A:Z",
		&gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return core.Document{}, fmt.Errorf("clear %s: %w", title, err)
	}

	vr := &gsheet.ValueRange{Values: Values(report.Build(r))}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, quoted+"!A1", vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do(); err != nil {
		return core.Document{}, fmt.Errorf("write %s: %w", title, err)
	}

	slog.InfoContext(ctx, "Report exported to Google Sheets",
		"sheet", title,
		"payments", len(r.Payments))

	url := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/edit#gid=%d", c.spreadsheetID, sheetID)
	return core.Document{
		Name:        title,
		ContentType: "text/uri-list",
		Body:        []byte(url),
	}, nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.sheetIDs[title]; ok {
		return id, nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties == nil {
			continue
		}
		c.sheetIDs[s.Properties.Title] = s.Properties.SheetId
	}
	if id, ok := c.sheetIDs[title]; ok {
		return id, nil
	}

	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("add sheet %s: %w", title, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("add sheet %s: empty reply", title)
	}

	id := resp.Replies[0].AddSheet.Properties.SheetId
	c.sheetIDs[title] = id
	slog.InfoContext(ctx, "Created report sheet", "sheet", title, "sheet_id", id)
	return id, nil
}

// Values lays the table out as spreadsheet rows: title, fields, a blank
// line, then the payments table.
func Values(t report.Table) [][]any {
	out := [][]any{{t.Title}, {}}
	for _, f := range t.Fields {
		out = append(out, []any{f.Label, f.Value})
	}
	out = append(out, []any{}, toAny(t.Columns))
	for _, row := range t.Rows {
		out = append(out, toAny(row))
	}
	return out
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
