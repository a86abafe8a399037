package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vector-starter/internal/contextutil"
)

func TestLoggerMiddleware(t *testing.T) {
	var gotLogger *slog.Logger
	handler := LoggerMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLogger = contextutil.LoggerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if gotLogger == nil {
		t.Fatal("LoggerMiddleware() did not add a logger to the context")
	}
	if gotLogger == slog.Default() {
		t.Error("LoggerMiddleware() should add a request-scoped logger")
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	handler := LoggerMiddleware(RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/brew", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	out := buf.String()
	if !strings.Contains(out, "status=418") || !strings.Contains(out, "path=/brew") {
		t.Errorf("RequestLogger() output = %q", out)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{
			name:       "preflight",
			method:     http.MethodOptions,
			origin:     "http://localhost:3000",
			wantOrigin: "http://localhost:3000",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "no origin",
			method:     http.MethodGet,
			wantOrigin: "*",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/api/health", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("CORS() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("CORS() origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}
