package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_ComponentAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentRebuild, JSON: true, Output: &buf})

	logger.Info("Ledger rebuilt", FieldRunID, "abc")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", buf.String(), err)
	}
	if entry[FieldComponent] != ComponentRebuild {
		t.Errorf("component = %v, want %s", entry[FieldComponent], ComponentRebuild)
	}
	if entry[FieldRunID] != "abc" {
		t.Errorf("run_id = %v, want abc", entry[FieldRunID])
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(out, "component=app") {
		t.Errorf("default component missing: %q", out)
	}
}

func TestMiddleware_AccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, JSON: true, Output: &buf})

	handler := chimw.RequestID(Middleware(logger)(AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()).Component() != ComponentHTTP {
			t.Errorf("logger in context has component %q", FromContext(r.Context()).Component())
		}
		w.WriteHeader(http.StatusNotFound)
	}))))

	req := httptest.NewRequest(http.MethodGet, "/api/months/March", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", buf.String(), err)
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
	if entry[FieldStatusCode] != float64(http.StatusNotFound) {
		t.Errorf("status = %v", entry[FieldStatusCode])
	}
	if entry[FieldRequestID] == nil || entry[FieldRequestID] == "" {
		t.Errorf("request id missing: %v", entry)
	}
}

func TestFromContext_Default(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := FromContext(req.Context()).Component(); got != "unknown" {
		t.Errorf("Component() = %q, want unknown", got)
	}
}
