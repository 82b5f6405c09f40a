// Package google reads order-history exports kept in a Google Sheets tab.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"wrapped/internal/core"
	"wrapped/internal/log"
	"wrapped/internal/source"
)

// Ensure interface conformance
var _ source.RowReader = (*Client)(nil)

// Config selects the spreadsheet and the service account used to read it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// New wraps an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID, sheetName string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	if sheetName == "" {
		sheetName = "Orders"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentIntake),
	}
}

// NewFromConfig creates a read-only Sheets client authenticated with a service account.
func NewFromConfig(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, strings.TrimSpace(cfg.SpreadsheetID), strings.TrimSpace(cfg.SheetName), logger), nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when neither JSON nor file is configured.
func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	if logger == nil {
		logger = log.Discard()
	}
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		logger.DebugContext(ctx, "using inline service account credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		logger.DebugContext(ctx, "reading service account credentials", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set WRAPPED_GOOGLE_SERVICE_ACCOUNT_JSON, WRAPPED_GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) Describe() string {
	return "sheets:" + c.spreadsheetID + "#" + c.sheetName
}

// ReadRows fetches the tab's formatted values, header row first.
func (c *Client) ReadRows(ctx context.Context) ([]core.RawRow, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:Z", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("sheets get %s: %w", rng, err)
	}
	rows, err := valuesToRows(resp.Values)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", c.sheetName, err)
	}
	c.logger.DebugContext(ctx, "sheet read", "range", rng, log.FieldRows, len(rows))
	return rows, nil
}

// valuesToRows converts a values matrix (as returned by the Sheets API)
// into keyed rows using the first row as header.
func valuesToRows(values [][]interface{}) ([]core.RawRow, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: sheet is empty", source.ErrMissingColumn)
	}
	matrix := make([][]string, 0, len(values)-1)
	for _, row := range values[1:] {
		matrix = append(matrix, toStrings(row))
	}
	return source.RowsFromMatrix(toStrings(values[0]), matrix)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
