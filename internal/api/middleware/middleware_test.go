package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bigkaa/edi-console/internal/ediclient"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/health/live", "/health/live"},
		{"/metrics", "/metrics"},
		{"/admin/folders/inbox", "/admin/folders/inbox"},
		{"/admin/transactions/0b5c2f7e-3b8a-4c57-9f0e-2f4d7e1c9a10", "/admin/transactions/{id}"},
		{"/admin/transactions/0b5c2f7e-3b8a-4c57-9f0e-2f4d7e1c9a10/history", "/admin/transactions/{id}/history"},
		{"/admin/users/7/permissions", "/admin/users/{id}/permissions"},
		{"/partner-portal/downloads/42", "/partner-portal/downloads/{id}"},
		{"/static/css/app.css", "/static/*"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.expected {
				t.Errorf("normalizePath(%q) = %q, ожидается %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestMetricsMiddleware_PassesStatus(t *testing.T) {
	handler := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users/7", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("статус = %d, ожидается %d", rec.Code, http.StatusTeapot)
	}
}

func TestRequestID(t *testing.T) {
	var fromCtx string
	handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = ediclient.RequestIDFromContext(r.Context())
	}))

	// Заданный клиентом идентификатор сохраняется
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ediclient.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if fromCtx != "abc-123" {
		t.Errorf("request_id в контексте = %q, ожидается abc-123", fromCtx)
	}
	if got := rec.Header().Get(ediclient.RequestIDHeader); got != "abc-123" {
		t.Errorf("X-Request-ID ответа = %q, ожидается abc-123", got)
	}

	// Без заголовка генерируется новый
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if fromCtx == "" || fromCtx == "abc-123" {
		t.Errorf("ожидается новый request_id, получен %q", fromCtx)
	}
}

func TestRequestLogger_Levels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusFound, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusBadGateway, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("ok"))
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/", nil))

			out := buf.String()
			if !strings.Contains(out, "level="+tt.level) {
				t.Errorf("лог %q не содержит level=%s", out, tt.level)
			}
			if !strings.Contains(out, "bytes=2") {
				t.Errorf("лог %q не содержит размер ответа", out)
			}
		})
	}
}
