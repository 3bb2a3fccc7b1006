package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"faktura/internal/cache"
	"faktura/internal/forecast"
	ports "faktura/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetName is the base name of the forecast sheets; the year is
// prefixed per sheet ("2025 Forecast").
const DefaultSheetName = "Forecast"

const (
	rowCacheSize = 8
	rowCacheTTL  = 10 * time.Minute
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year; forecastSheet prefixes it.
	sheetBase string

	// rows caches sheet contents by sheet name. Exports write through it.
	rows     *cache.LRU[[]ports.Row]
	cacheMgr *cache.Manager
}

var (
	_ ports.ForecastExporter = (*Client)(nil)
	_ ports.ForecastReader   = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetBase string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetBase = strings.TrimSpace(sheetBase)
	if sheetBase == "" {
		sheetBase = DefaultSheetName
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return newClient(svc, spreadsheetID, sheetBase), nil
}

func newClient(svc *gsheet.Service, spreadsheetID, sheetBase string) *Client {
	c := &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetBase,
		rows:          cache.NewLRU[[]ports.Row](rowCacheSize, rowCacheTTL),
		cacheMgr:      cache.NewManager(),
	}
	c.cacheMgr.Register(c.rows)
	c.cacheMgr.StartCleanup(rowCacheTTL)
	return c
}

// Close stops the cache cleanup.
func (c *Client) Close() error {
	c.cacheMgr.Stop()
	return nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON, err := loadCredentials()
	if err != nil {
		return nil, err
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "credentials_size", len(credentialsJSON))
	return service, nil
}

func loadCredentials() ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) forecastSheet(year int) string {
	return yearPrefixedName(c.sheetBase, year)
}

// ExportForecast rewrites one sheet per calendar year covered by entries.
// Months already in a sheet but absent from entries are kept.
func (c *Client) ExportForecast(ctx context.Context, entries []forecast.Entry) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	byYear := ports.RowsByYear(entries)
	for _, year := range ports.Years(byYear) {
		existing, err := c.ReadForecast(ctx, year)
		if err != nil {
			return err
		}
		rows := ports.MergeRows(existing, byYear[year])
		if err := c.writeSheet(ctx, c.forecastSheet(year), rows); err != nil {
			c.rows.Delete(c.forecastSheet(year))
			return err
		}
		c.rows.Set(c.forecastSheet(year), rows)
		slog.InfoContext(ctx, "Exported forecast to sheet",
			"sheet", c.forecastSheet(year),
			"rows", len(rows))
	}
	return nil
}

func (c *Client) writeSheet(ctx context.Context, sheet string, rows []ports.Row) error {
	clearRange := fmt.Sprintf("%s!A:D", sheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rng := fmt.Sprintf("%s!A1:D%d", sheet, len(rows)+1)
	vr := &gsheet.ValueRange{Values: rowsToValues(rows)}
	// RAW keeps the ISO dates as text; amounts are sent as numbers.
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// ReadForecast returns the rows of the given year's sheet. A missing sheet
// reads as empty.
func (c *Client) ReadForecast(ctx context.Context, year int) ([]ports.Row, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	sheet := c.forecastSheet(year)
	if rows, ok := c.rows.Get(sheet); ok {
		return slices.Clone(rows), nil
	}

	rng := fmt.Sprintf("%s!A:D", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		if isMissingSheet(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	rows, err := parseForecastRows(resp.Values)
	if err != nil {
		return nil, err
	}
	c.rows.Set(sheet, rows)
	return slices.Clone(rows), nil
}

func isMissingSheet(err error) bool {
	return strings.Contains(err.Error(), "Unable to parse range")
}

func rowsToValues(rows []ports.Row) [][]any {
	values := make([][]any, 0, len(rows)+1)
	header := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		header[i] = h
	}
	values = append(values, header)
	for _, r := range rows {
		values = append(values, []any{
			r.MonthEnd,
			r.Income.Round(2).InexactFloat64(),
			r.Expenses.Round(2).InexactFloat64(),
			r.Balance.Round(2).InexactFloat64(),
		})
	}
	return values
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
