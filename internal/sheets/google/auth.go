package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// clientOptionsFromEnv prefers an OAuth user token when an OAuth client is
// configured and falls back to service account credentials.
func clientOptionsFromEnv(ctx context.Context) ([]goption.ClientOption, error) {
	clientJSON, err := envOrFile("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE")
	if err != nil {
		return nil, fmt.Errorf("read oauth client: %w", err)
	}
	if clientJSON != nil {
		ts, err := oauthTokenSource(ctx, clientJSON)
		if err != nil {
			return nil, err
		}
		slog.DebugContext(ctx, "Using OAuth user credentials")
		return []goption.ClientOption{goption.WithTokenSource(ts)}, nil
	}

	creds, err := serviceAccountCredentials(ctx)
	if err != nil {
		return nil, err
	}
	return []goption.ClientOption{
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

// OAuthConfig parses an OAuth client definition scoped to Sheets.
func OAuthConfig(clientJSON []byte) (*oauth2.Config, error) {
	cfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

// OAuthClientFromEnv reads GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE.
func OAuthClientFromEnv() (*oauth2.Config, error) {
	clientJSON, err := envOrFile("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE")
	if err != nil {
		return nil, fmt.Errorf("read oauth client: %w", err)
	}
	if clientJSON == nil {
		return nil, errors.New("missing oauth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
	}
	return OAuthConfig(clientJSON)
}

func oauthTokenSource(ctx context.Context, clientJSON []byte) (oauth2.TokenSource, error) {
	cfg, err := OAuthConfig(clientJSON)
	if err != nil {
		return nil, err
	}
	tokJSON, err := envOrFile("GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE")
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	if tokJSON == nil {
		return nil, errors.New("missing oauth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE)")
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokJSON, &tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}
	return cfg.TokenSource(ctx, &tok), nil
}

// serviceAccountCredentials reads GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS, in that order.
func serviceAccountCredentials(ctx context.Context) ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	slog.DebugContext(ctx, "Reading service account credentials", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// envOrFile returns the inline value of jsonKey, or the content of the file
// named by fileKey. Both unset yields nil.
func envOrFile(jsonKey, fileKey string) ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv(jsonKey)); inline != "" {
		return []byte(inline), nil
	}
	path := strings.TrimSpace(os.Getenv(fileKey))
	if path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}
