package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/report"
	ports "fintrack/internal/sheets"
)

var _ ports.ReportExporter = (*Client)(nil)

// Config selects the spreadsheet and the credentials used to reach it.
// A service account wins over OAuth user credentials, and inline JSON wins
// over a file path.
type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string

	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenJSON  string
	OAuthTokenFile  string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
	now           func() time.Time
}

// New creates a Sheets client authenticated with a service account or, when
// none is configured, with a stored OAuth user token.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	opts, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, logger), nil
}

func clientOptions(ctx context.Context, cfg Config) ([]goption.ClientOption, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return serviceAccountOptions(goption.WithCredentialsJSON([]byte(cfg.CredentialsJSON))), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		if _, err := os.Stat(cfg.CredentialsFile); err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return serviceAccountOptions(goption.WithCredentialsFile(cfg.CredentialsFile)), nil
	}

	clientJSON, err := readSecret(cfg.OAuthClientJSON, cfg.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client: %w", err)
	}
	tokenJSON, err := readSecret(cfg.OAuthTokenJSON, cfg.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	if clientJSON == nil || tokenJSON == nil {
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON/FILE or GOOGLE_OAUTH_CLIENT_* with GOOGLE_OAUTH_TOKEN_*)")
	}

	oauthCfg, err := OAuthConfig(clientJSON)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	// The pooled client carries the token source's requests too.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	return []goption.ClientOption{goption.WithHTTPClient(oauthCfg.Client(ctx, &tok))}, nil
}

func serviceAccountOptions(creds goption.ClientOption) []goption.ClientOption {
	return []goption.ClientOption{
		creds,
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()),
	}
}

// OAuthConfig parses an OAuth client secret for spreadsheet access.
func OAuthConfig(clientJSON []byte) (*oauth2.Config, error) {
	cfg, err := oauthgoogle.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

// readSecret returns inline when set, the file contents when path is set,
// and nil when neither is.
func readSecret(inline, path string) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		return []byte(inline), nil
	}
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithComponent(log.ComponentSheets),
		now:           time.Now,
	}
}

func (c *Client) Destination() string { return "google_sheets" }

// WithClock overrides the clock used to name exported tabs.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// newHTTPClientWithPooling keeps connections to the Sheets API warm.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// ExportReport writes r into its own tab, creating the tab when missing and
// overwriting it otherwise.
func (c *Client) ExportReport(ctx context.Context, userID string, r report.Report) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	title := ports.SheetTitle(userID, r, c.now())
	if err := c.ensureSheet(ctx, title); err != nil {
		return "", err
	}

	rows := ports.ReportRows(r)
	quoted := "'" + strings.ReplaceAll(title, "'", "''") + "'"

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quoted, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear sheet %s: %w: %w", title, core.ErrUnavailable, err)
	}

	rng := fmt.Sprintf("%s!A1", quoted)
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write sheet %s: %w: %w", title, core.ErrUnavailable, err)
	}

	ref := resp.UpdatedRange
	if ref == "" {
		ref = rng
	}
	c.logger.InfoContext(ctx, "Exported report",
		log.FieldUserID, userID,
		log.FieldPeriod, string(r.Period),
		"range", ref,
		"rows", len(rows))
	return ref, nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err == nil || isAlreadyExists(err) {
		return nil
	}
	return fmt.Errorf("add sheet %s: %w: %w", title, core.ErrUnavailable, err)
}

func isAlreadyExists(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest {
		return strings.Contains(strings.ToLower(gerr.Message), "already exists")
	}
	return false
}
