// Command sheets-auth runs the OAuth consent flow once and saves the token
// the roster worker uses to write to Google Sheets.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"

	"gestaosocial/internal/cli"
	"gestaosocial/internal/config"
	applog "gestaosocial/internal/log"
	gsheet "gestaosocial/internal/sheets/google"
)

const consentTimeout = 5 * time.Minute

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig(nil)
	if err != nil {
		cli.Fatal(nil, "Configuration load failed", err)
	}
	logger := cli.SetupLogger(cfg, applog.ComponentSheets)
	defer logger.Close()

	clientJSON, err := readClientJSON(cfg)
	if err != nil {
		cli.Fatal(logger.Logger, "OAuth client credentials unavailable", err)
	}

	oauthCfg, err := google.ConfigFromJSON(clientJSON, sheets.SpreadsheetsScope)
	if err != nil {
		cli.Fatal(logger.Logger, "Invalid OAuth client credentials", err)
	}

	// The redirect URI must be registered on the OAuth client.
	redirectPort := os.Getenv("OAUTH_REDIRECT_PORT")
	if redirectPort == "" {
		redirectPort = "8085"
	}
	oauthCfg.RedirectURL = "http://localhost:" + redirectPort + "/callback"

	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	srv := &http.Server{Addr: ":" + redirectPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		if errStr := r.URL.Query().Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Autorização concluída. Pode fechar esta janela.")
		select {
		case codeCh <- r.URL.Query().Get("code"):
		default:
		}
	})
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Callback server error", applog.FieldError, err)
		}
	}()
	defer srv.Close()

	fmt.Printf("Open this URL to authorize:\n%s\n", oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, consentTimeout)
	defer cancel()

	var code string
	select {
	case code = <-codeCh:
	case <-ctx.Done():
		cli.Fatal(logger.Logger, "Authorization not completed", ctx.Err())
	}

	tok, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		cli.Fatal(logger.Logger, "Token exchange failed", err)
	}

	outFile := cfg.GoogleOAuthTokenFile
	if outFile == "" {
		outFile = "token.json"
	}
	if err := gsheet.SaveToken(outFile, tok); err != nil {
		cli.Fatal(logger.Logger, "Failed to save token", err)
	}
	logger.Info("Saved OAuth token", "path", outFile)
}

func readClientJSON(cfg *config.Config) ([]byte, error) {
	if raw := os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"); raw != "" {
		return []byte(raw), nil
	}
	if cfg.GoogleOAuthClientFile == "" {
		return nil, errors.New("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	}
	return os.ReadFile(cfg.GoogleOAuthClientFile)
}
