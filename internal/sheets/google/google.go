package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"ledger/internal/core"
	applog "ledger/internal/log"
	ports "ledger/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultSheetCacheDuration = 10 * time.Minute

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// sheetBase is suffixed with the user ID to name each user's tab.
	sheetBase string

	// Tabs known to exist, so most writes skip the spreadsheet lookup.
	mu                 sync.Mutex
	knownSheets        map[string]time.Time
	cacheValidDuration time.Duration
}

// Ensure interface conformance
var _ ports.HistoryWriter = (*Client)(nil)

// New creates a Sheets client using service account credentials from the
// environment.
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetBase string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, sheetBase), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetBase string) *Client {
	sheetBase = strings.TrimSpace(sheetBase)
	if sheetBase == "" {
		sheetBase = "History"
	}
	return &Client{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		sheetBase:          sheetBase,
		knownSheets:        make(map[string]time.Time),
		cacheValidDuration: defaultSheetCacheDuration,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
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
		slog.InfoContext(ctx, "Using inline JSON credentials", applog.FieldComponent, applog.ComponentSheets)
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file",
			applog.FieldComponent, applog.ComponentSheets,
			"path", serviceAccountFile)
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

// WriteHistory rewrites the user's tab: it is created when missing,
// cleared and filled with a header and one row per record.
func (c *Client) WriteHistory(ctx context.Context, userID int64, currency string, records []core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if userID <= 0 {
		return core.ErrInvalidUser
	}

	sheet := userSheetName(c.sheetBase, userID)
	if err := c.ensureSheet(ctx, sheet); err != nil {
		return err
	}

	clearRange := a1Range(sheet, "A:F")
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		c.InvalidateSheetCache()
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	vr := &gsheet.ValueRange{Values: historyRows(currency, records)}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1Range(sheet, "A1"), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", sheet, err)
	}

	slog.InfoContext(ctx, "History mirrored",
		applog.FieldComponent, applog.ComponentSheets,
		applog.FieldUserID, userID,
		applog.FieldRows, len(records),
		"sheet", sheet)
	return nil
}

// ensureSheet adds the tab when the spreadsheet does not have it yet.
func (c *Client) ensureSheet(ctx context.Context, name string) error {
	if c.sheetKnown(name) {
		return nil
	}

	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range resp.Sheets {
		if s.Properties != nil && s.Properties.Title == name {
			c.rememberSheet(name)
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: name},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", name, err)
	}
	slog.InfoContext(ctx, "Sheet created", applog.FieldComponent, applog.ComponentSheets, "sheet", name)
	c.rememberSheet(name)
	return nil
}

func (c *Client) sheetKnown(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	expires, ok := c.knownSheets[name]
	return ok && time.Now().Before(expires)
}

func (c *Client) rememberSheet(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.knownSheets[name] = time.Now().Add(c.cacheValidDuration)
}

// InvalidateSheetCache forgets which tabs exist; the next write looks
// them up again. Used when a tab may have been removed by hand.
func (c *Client) InvalidateSheetCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.knownSheets = make(map[string]time.Time)
}
