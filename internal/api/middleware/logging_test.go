package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		inHeader  string
		wantLevel string
	}{
		{"успех", "/admin/users", http.StatusOK, "", "level=INFO"},
		{"клиентская ошибка", "/api/v1/users/7/access", http.StatusBadRequest, "", "level=WARN"},
		{"ошибка сервера", "/api/v1/modules", http.StatusBadGateway, "", "level=ERROR"},
		{"liveness", "/health/live", http.StatusOK, "", "level=DEBUG"},
		{"request id из заголовка", "/admin", http.StatusOK, "req-42", "request_id=req-42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			var ctxID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxID = RequestIDFromContext(r.Context())
				w.WriteHeader(tt.status)
			})
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.inHeader != "" {
				req.Header.Set(RequestIDHeader, tt.inHeader)
			}
			rec := httptest.NewRecorder()
			RequestLogger(logger)(next).ServeHTTP(rec, req)

			if !strings.Contains(buf.String(), tt.wantLevel) {
				t.Errorf("лог %q не содержит %q", buf.String(), tt.wantLevel)
			}
			if ctxID == "" || rec.Header().Get(RequestIDHeader) != ctxID {
				t.Errorf("request id в контексте %q, в ответе %q", ctxID, rec.Header().Get(RequestIDHeader))
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/admin/users/42/permissions", "/admin/users/{id}/permissions"},
		{"/api/v1/users/7/access/history", "/api/v1/users/{id}/access/history"},
		{"/static/css/app.css", "/static/*"},
		{"/admin/roles", "/admin/roles"},
		{"/", "/"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, ожидается %q", tt.in, got, tt.want)
		}
	}
}
