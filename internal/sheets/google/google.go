// Package google mirrors the family roster to a Google Sheets tab.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"gestaosocial/internal/core"
	ports "gestaosocial/internal/sheets"
)

const (
	DefaultSheetName = "Familias"
	lastColumn       = "M"
)

// Ensure interface conformance
var _ ports.RosterWriter = (*Client)(nil)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

// Options selects the spreadsheet and the credentials. A service account
// file wins over an OAuth client/token pair.
type Options struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountFile string
	OAuthClientFile    string
	OAuthTokenFile     string
}

// New creates a Sheets client from opts.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, opts.SpreadsheetID, opts.SheetName), nil
}

func newClient(svc *gsheet.Service, spreadsheetID, sheet string) *Client {
	if strings.TrimSpace(sheet) == "" {
		sheet = DefaultSheetName
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	switch {
	case opts.ServiceAccountFile != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", opts.ServiceAccountFile)
		credentialsJSON, err := os.ReadFile(opts.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return gsheet.NewService(ctx,
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	case opts.OAuthClientFile != "" && opts.OAuthTokenFile != "":
		httpClient, err := oauthHTTPClient(ctx, opts.OAuthClientFile, opts.OAuthTokenFile)
		if err != nil {
			return nil, err
		}
		return gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	default:
		return nil, errors.New("missing credentials (set a service account file or an OAuth client and token file)")
	}
}

// oauthHTTPClient builds a token-refreshing client on top of a pooled
// transport.
func oauthHTTPClient(ctx context.Context, clientFile, tokenFile string) (*http.Client, error) {
	b, err := os.ReadFile(clientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(b, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	tok, err := ReadToken(tokenFile)
	if err != nil {
		return nil, err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	return cfg.Client(ctx, tok), nil
}

// ReadToken loads an OAuth token saved by SaveToken.
func ReadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &tok, nil
}

// SaveToken writes tok to path, readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// WriteRoster clears the roster tab and writes the header and one row per
// family starting at A1.
func (c *Client) WriteRoster(ctx context.Context, families []core.Family) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:%s", c.sheet, lastColumn)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	values := ports.RosterValues(families)
	rng := c.rosterRange(len(values))
	vr := &gsheet.ValueRange{Values: values}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Roster mirrored to sheet", "sheet", c.sheet, "families", len(families))
	return nil
}

func (c *Client) rosterRange(rows int) string {
	return fmt.Sprintf("%s!A1:%s%d", c.sheet, lastColumn, rows)
}
