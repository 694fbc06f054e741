// Package google stores expenses as rows of a Google Sheets tab.
//
// Layout, one expense per row after a header row:
//
//	A ID | B Date | C Category | D Subtype | E Description | F Payer |
//	G Mobile | H Payment Mode | I Total | J Paid | K Balance
//
// Balance is written for people reading the sheet and ignored on read.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"expensedesk/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const lastColumn = "K"

// Config selects the spreadsheet and the credentials used to reach it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *slog.Logger
}

// New creates a client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, cfg,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// NewWithOptions creates a client with explicit API options, e.g. a custom
// endpoint and HTTP client.
func NewWithOptions(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Expenses"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		sheet:         sheet,
		logger:        slog.Default().With("component", "sheets"),
	}, nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	if path := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

func (c *Client) rng(cells string) string {
	return fmt.Sprintf("%s!%s", c.sheet, cells)
}

// EnsureHeader writes the header row when the sheet is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng("A1:"+lastColumn+"1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", c.sheet, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	vr := &gsheet.ValueRange{Values: [][]any{header}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.rng("A1:"+lastColumn+"1"), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header of %s: %w", c.sheet, err)
	}
	c.logger.InfoContext(ctx, "Wrote expense sheet header", "sheet", c.sheet)
	return nil
}

// Append adds e as a new row and returns its ID.
func (c *Client) Append(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}

	vr := &gsheet.ValueRange{Values: [][]any{formatRow(e)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.rng("A:"+lastColumn), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("append to sheet %s: %w", c.sheet, err)
	}

	updated := ""
	if resp.Updates != nil {
		updated = resp.Updates.UpdatedRange
	}
	c.logger.InfoContext(ctx, "Expense appended to sheet",
		"id", e.ID,
		"range", updated,
		"total_cents", e.Total.Cents)
	return e.ID, nil
}

// ListAll reads every expense row. Rows that cannot be parsed are skipped
// and logged; blank rows are ignored.
func (c *Client) ListAll(ctx context.Context) ([]core.Expense, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng("A2:"+lastColumn)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.sheet, err)
	}

	out := make([]core.Expense, 0, len(resp.Values))
	for i, row := range resp.Values {
		cols := toStrings(row)
		if isBlank(cols) {
			continue
		}
		e, err := parseRow(cols)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping unreadable expense row",
				"row", i+2,
				"error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Contains reports whether an expense with id is already in the sheet.
func (c *Client) Contains(ctx context.Context, id int64) (bool, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng("A2:A")).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("read ids of %s: %w", c.sheet, err)
	}
	want := fmt.Sprint(id)
	for _, row := range resp.Values {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return true, nil
		}
	}
	return false, nil
}
