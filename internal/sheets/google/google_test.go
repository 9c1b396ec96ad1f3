package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/oauth2"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"gestaosocial/internal/core"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if err == nil || err.Error() != "missing spreadsheet id" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "sheet-id"})
	if err == nil || !strings.Contains(err.Error(), "missing credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_InvalidOAuthClient(t *testing.T) {
	dir := t.TempDir()
	clientFile := filepath.Join(dir, "client.json")
	tokenFile := filepath.Join(dir, "token.json")
	if err := os.WriteFile(clientFile, []byte("invalid-json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := SaveToken(tokenFile, &oauth2.Token{AccessToken: "test"}); err != nil {
		t.Fatal(err)
	}

	_, err := New(context.Background(), Options{
		SpreadsheetID:   "sheet-id",
		OAuthClientFile: clientFile,
		OAuthTokenFile:  tokenFile,
	})
	if err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Fatalf("expected oauth config error, got: %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := SaveToken(path, &oauth2.Token{AccessToken: "abc", RefreshToken: "def"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	tok, err := ReadToken(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tok.AccessToken != "abc" || tok.RefreshToken != "def" {
		t.Fatalf("unexpected token: %+v", tok)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestRosterRange(t *testing.T) {
	c := newClient(nil, "id", "")
	if got := c.rosterRange(3); got != "Familias!A1:M3" {
		t.Errorf("rosterRange(3) = %q", got)
	}
}

func TestWriteRoster_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "id", sheet: "Familias"}
	if err := c.WriteRoster(context.Background(), nil); err == nil {
		t.Fatal("expected error with nil service")
	}
}

func TestWriteRoster_ClearsThenUpdates(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []string
		written  gsheet.ValueRange
		option   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		requests = append(requests, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPut {
			option = r.URL.Query().Get("valueInputOption")
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &written)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	c := newClient(svc, "sheet-id", "Roster")

	families := []core.Family{
		{ID: "f1", Code: "#FAM-2024-001", Name: "Família Souza", Status: core.StatusActive},
		{ID: "f2", Code: "#FAM-2024-002", Name: "Família Lima", Status: core.StatusCritical},
	}
	if err := c.WriteRoster(context.Background(), families); err != nil {
		t.Fatalf("WriteRoster: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %v", requests)
	}
	if !strings.HasPrefix(requests[0], "POST ") || !strings.HasSuffix(requests[0], ":clear") {
		t.Errorf("first request should clear the tab, got %q", requests[0])
	}
	if !strings.HasPrefix(requests[1], "PUT ") || !strings.Contains(requests[1], "Roster!A1:M3") {
		t.Errorf("second request should update the roster range, got %q", requests[1])
	}
	if option != "USER_ENTERED" {
		t.Errorf("valueInputOption = %q", option)
	}
	if len(written.Values) != 3 || written.Values[2][0] != "f2" {
		t.Errorf("unexpected values: %v", written.Values)
	}
}
