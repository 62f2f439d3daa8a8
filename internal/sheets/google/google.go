package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hatauchi-tech/Fukui-BI/internal/core"
	ports "github.com/hatauchi-tech/Fukui-BI/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ ports.SummaryWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Summary"),
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS for auth.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Summary"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
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
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

var header = []interface{}{
	"期間", "部門コード", "部門名", "売上高", "売上原価", "売上総利益",
	"販管費", "営業利益", "経常利益", "当期純利益",
	"原価率(%)", "粗利率(%)", "営業利益率(%)", "売上構成比(%)",
}

// WriteSummaries appends one row per summary to the configured sheet. The
// header row is written only when the sheet is still empty.
func (c *Client) WriteSummaries(ctx context.Context, period core.Period, rows []core.Summary) error {
	if len(rows) == 0 {
		return nil
	}

	values := make([][]interface{}, 0, len(rows)+1)

	existing, err := c.svc.Spreadsheets.Values.
		Get(c.spreadsheetID, c.sheetName+"!A1:A1").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read sheet header: %w", err)
	}
	if len(existing.Values) == 0 {
		values = append(values, header)
	}

	for _, s := range rows {
		values = append(values, summaryRow(s))
	}

	vr := &gsheet.ValueRange{Values: values}
	_, err = c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, c.sheetName+"!A1", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append summaries: %w", err)
	}

	slog.InfoContext(ctx, "Wrote summaries to spreadsheet",
		"period", period.String(),
		"rows", len(rows),
		"sheet", c.sheetName)

	return nil
}

func summaryRow(s core.Summary) []interface{} {
	return []interface{}{
		s.PeriodName,
		int64(s.Department),
		s.DeptName,
		int64(s.Sales),
		int64(s.Cost),
		int64(s.GrossProfit),
		int64(s.SGA),
		int64(s.OperatingProfit),
		int64(s.OrdinaryProfit),
		int64(s.NetProfit),
		ratioCell(s.CostRatio),
		ratioCell(s.GrossMargin),
		ratioCell(s.OperatingMargin),
		ratioCell(s.SalesShare),
	}
}

// ratioCell renders NaN as an empty cell so the spreadsheet stays numeric.
func ratioCell(r core.Ratio) interface{} {
	if r.IsNaN() {
		return ""
	}
	return float64(r)
}
