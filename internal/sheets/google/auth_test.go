package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testOAuthClient = `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`

func clearAuthEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE",
		"GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE",
		"GOOGLE_SERVICE_ACCOUNT_JSON", "GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_APPLICATION_CREDENTIALS",
	} {
		t.Setenv(k, "")
	}
}

func TestClientOptionsFromEnv_OAuthMissingToken(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", testOAuthClient)

	_, err := clientOptionsFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing oauth token") {
		t.Fatalf("expected missing token error, got %v", err)
	}
}

func TestClientOptionsFromEnv_OAuthInvalidClient(t *testing.T) {
	clearAuthEnv(t)
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", "not json")

	_, err := clientOptionsFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Fatalf("expected oauth config error, got %v", err)
	}
}

func TestClientOptionsFromEnv_OAuthTokenFile(t *testing.T) {
	clearAuthEnv(t)
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token.json")
	if err := os.WriteFile(tokenPath, []byte(`{"access_token":"abc","token_type":"Bearer","refresh_token":"r"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", testOAuthClient)
	t.Setenv("GOOGLE_OAUTH_TOKEN_FILE", tokenPath)

	opts, err := clientOptionsFromEnv(context.Background())
	if err != nil {
		t.Fatalf("clientOptionsFromEnv: %v", err)
	}
	if len(opts) != 1 {
		t.Errorf("expected a single token source option, got %d", len(opts))
	}
}

func TestClientOptionsFromEnv_ServiceAccountFile(t *testing.T) {
	clearAuthEnv(t)
	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", path)

	opts, err := clientOptionsFromEnv(context.Background())
	if err != nil {
		t.Fatalf("clientOptionsFromEnv: %v", err)
	}
	if len(opts) != 2 {
		t.Errorf("expected credentials and scopes, got %d options", len(opts))
	}
}

func TestOAuthClientFromEnv_Missing(t *testing.T) {
	clearAuthEnv(t)
	_, err := OAuthClientFromEnv()
	if err == nil || err.Error() != "missing oauth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)" {
		t.Fatalf("unexpected error %v", err)
	}
}
