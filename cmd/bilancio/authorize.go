package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	gsheet "bilancio/internal/sheets/google"
)

type authorizeCmd struct {
	port    string
	out     string
	timeout time.Duration
}

func (*authorizeCmd) Name() string { return "authorize" }
func (*authorizeCmd) Synopsis() string {
	return "obtain an OAuth token for the Google Sheets backend"
}
func (*authorizeCmd) Usage() string {
	return `bilancio authorize [-port <port>] [-o <token.json>]

  Runs the OAuth consent flow for the client in GOOGLE_OAUTH_CLIENT_JSON
  or GOOGLE_OAUTH_CLIENT_FILE and saves the token for GOOGLE_OAUTH_TOKEN_FILE.
  The client must list http://localhost:<port>/callback as a redirect URI.
`
}

func (c *authorizeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.port, "port", "8085", "Local port for the OAuth redirect.")
	f.StringVar(&c.out, "o", "", "Token output file. Defaults to GOOGLE_OAUTH_TOKEN_FILE or token.json.")
	f.DurationVar(&c.timeout, "timeout", 5*time.Minute, "How long to wait for the browser consent.")
}

func (c *authorizeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := gsheet.OAuthClientFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	cfg.RedirectURL = "http://localhost:" + c.port + "/callback"

	state := uuid.NewString()
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	srv := &http.Server{Addr: ":" + c.port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if errStr := q.Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			errCh <- fmt.Errorf("oauth error: %s", errStr)
			return
		}
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		select {
		case codeCh <- q.Get("code"):
		default:
		}
	})
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	defer srv.Close()

	fmt.Printf("Open this URL to authorize:\n%s\n", cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	case <-time.After(c.timeout):
		fmt.Fprintln(os.Stderr, "authorization timed out")
		return subcommands.ExitFailure
	case <-sig:
		fmt.Fprintln(os.Stderr, "interrupted")
		return subcommands.ExitFailure
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token exchange: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := saveToken(c.tokenPath(), tok); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Saved token to %s\n", c.tokenPath())
	return subcommands.ExitSuccess
}

func (c *authorizeCmd) tokenPath() string {
	if c.out != "" {
		return c.out
	}
	if p := os.Getenv("GOOGLE_OAUTH_TOKEN_FILE"); p != "" {
		return p
	}
	return "token.json"
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}
