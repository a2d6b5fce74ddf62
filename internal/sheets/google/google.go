// Package google exports monthly summaries to a Google spreadsheet.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"paga/internal/core"
	ports "paga/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	summarySheet  string
}

var _ ports.SummaryAppender = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Credentials are either a service
// account (GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS) or an OAuth client plus the token
// written by cmd/oauth-init (GOOGLE_OAUTH_CLIENT_JSON/_FILE and
// GOOGLE_OAUTH_TOKEN_JSON/_FILE). Optional: GOOGLE_SUMMARY_SHEET_NAME
// (default "Summary").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheet := strings.TrimSpace(os.Getenv("GOOGLE_SUMMARY_SHEET_NAME"))
	if sheet == "" {
		sheet = "Summary"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		summarySheet:  sheet,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	// OAuth client + stored token takes precedence: that is the path
	// bootstrapped by cmd/oauth-init for personal spreadsheets.
	if svc, ok, err := oauthService(ctx); ok {
		return svc, err
	}

	credentialsJSON, err := serviceAccountJSON()
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Creating Sheets service with service account",
		"credentials_size", len(credentialsJSON))
	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

func oauthService(ctx context.Context) (*gsheet.Service, bool, error) {
	clientJSON := readEnvOrFile("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE")
	tokenJSON := readEnvOrFile("GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE")
	if clientJSON == nil || tokenJSON == nil {
		return nil, false, nil
	}

	cfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, true, fmt.Errorf("oauth config: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, true, fmt.Errorf("oauth token: %w", err)
	}

	slog.InfoContext(ctx, "Creating Sheets service with OAuth token")
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(cfg.Client(ctx, &tok)))
	return svc, true, err
}

func readEnvOrFile(jsonVar, fileVar string) []byte {
	if v := strings.TrimSpace(os.Getenv(jsonVar)); v != "" {
		return []byte(v)
	}
	if path := strings.TrimSpace(os.Getenv(fileVar)); path != "" {
		if b, err := os.ReadFile(path); err == nil {
			return b
		}
	}
	return nil
}

func serviceAccountJSON() ([]byte, error) {
	if v := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); v != "" {
		return []byte(v), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing Google credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS, or the OAuth pair)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// AppendSummary appends one summary row:
// uid, year, month (1-12 for readability), days worked, hours, total,
// exported-at timestamp.
func (c *Client) AppendSummary(ctx context.Context, s core.MonthSummary) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:G", c.summarySheet)
	vr := &gsheet.ValueRange{Values: [][]any{{
		s.UID, s.Year, s.Month + 1, s.DaysWorked, s.Hours, s.Total,
		time.Now().UTC().Format(time.RFC3339),
	}}}

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append summary row to %s: %w", c.summarySheet, err)
	}

	slog.InfoContext(ctx, "Summary row exported",
		"uid", s.UID, "year", s.Year, "month", s.Month, "total", s.Total)
	return nil
}
