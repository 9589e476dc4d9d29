package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bigkaa/accessadmin/internal/backend"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
	"github.com/bigkaa/accessadmin/internal/ui/auth"
)

type mockResolver struct {
	levels map[string]rbac.AccessLevel
	err    error
	token  string
}

func (m *mockResolver) SessionAccess(ctx context.Context, _ int) (map[string]rbac.AccessLevel, error) {
	m.token, _ = backend.TokenFromContext(ctx)
	return m.levels, m.err
}

func newSessions(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-secret", false, time.Hour)
	if err != nil {
		t.Fatalf("SessionManager: %v", err)
	}
	return sm
}

// withSession добавляет в запрос cookie сессии.
func withSession(t *testing.T, sm *auth.SessionManager, r *http.Request, expiresAt time.Time) *http.Request {
	t.Helper()
	value, err := sm.Encrypt(&auth.SessionData{
		Token:     "tok-1",
		ExpiresAt: expiresAt.Unix(),
		UserID:    3,
		Email:     "ops@example.com",
	})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	r.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: value})
	return r
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUIAuth_Middleware(t *testing.T) {
	sm := newSessions(t)

	tests := []struct {
		name         string
		cookie       bool
		expiresAt    time.Time
		resolverErr  error
		wantCode     int
		wantLocation string
		wantAccess   bool
	}{
		{name: "без cookie", wantCode: http.StatusFound, wantLocation: LoginPath},
		{name: "истёкшая сессия", cookie: true, expiresAt: time.Now().Add(-time.Minute), wantCode: http.StatusFound, wantLocation: LoginPath},
		{name: "действующая сессия", cookie: true, expiresAt: time.Now().Add(time.Hour), wantCode: http.StatusOK, wantAccess: true},
		{
			name:         "backend отклонил токен",
			cookie:       true,
			expiresAt:    time.Now().Add(time.Hour),
			resolverErr:  &backend.APIError{Status: http.StatusUnauthorized},
			wantCode:     http.StatusFound,
			wantLocation: LoginPath,
		},
		{
			name:        "карта доступа недоступна",
			cookie:      true,
			expiresAt:   time.Now().Add(time.Hour),
			resolverErr: errors.New("backend недоступен"),
			wantCode:    http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &mockResolver{
				levels: map[string]rbac.AccessLevel{rbac.ModuleUsers: rbac.LevelEdit},
				err:    tt.resolverErr,
			}
			var seen *auth.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = auth.PrincipalFromContext(r.Context())
			})
			handler := NewUIAuth(sm, resolver, quiet()).Middleware()(next)

			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			if tt.cookie {
				req = withSession(t, sm, req, tt.expiresAt)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("статус = %d, ожидается %d", rec.Code, tt.wantCode)
			}
			if tt.wantLocation != "" && rec.Header().Get("Location") != tt.wantLocation {
				t.Errorf("Location = %q, ожидается %q", rec.Header().Get("Location"), tt.wantLocation)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			if seen == nil {
				t.Fatal("принципал не передан в контекст")
			}
			if resolver.token != "tok-1" {
				t.Errorf("токен backend в контексте = %q, ожидается tok-1", resolver.token)
			}
			if got := seen.Access.CanEdit(rbac.ModuleUsers); got != tt.wantAccess {
				t.Errorf("CanEdit(users) = %v, ожидается %v", got, tt.wantAccess)
			}
		})
	}
}

func TestRequireModule(t *testing.T) {
	tests := []struct {
		name     string
		access   auth.Access
		levels   []rbac.AccessLevel
		wantCode int
		wantLoc  string
	}{
		{name: "нет принципала", wantCode: http.StatusFound, wantLoc: LoginPath},
		{name: "любой доступ", access: auth.Access{"roles": rbac.LevelReadOnly}, wantCode: http.StatusOK},
		{name: "нужно edit, есть readonly", access: auth.Access{"roles": rbac.LevelReadOnly}, levels: []rbac.AccessLevel{rbac.LevelEdit}, wantCode: http.StatusFound, wantLoc: NoAccessPath},
		{name: "модуль не выдан", access: auth.Access{"users": rbac.LevelEdit}, wantCode: http.StatusFound, wantLoc: NoAccessPath},
		{name: "пустая карта", access: nil, wantCode: http.StatusFound, wantLoc: NoAccessPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/roles", nil)
			if tt.name != "нет принципала" {
				req = req.WithContext(auth.WithPrincipal(req.Context(), &auth.Principal{
					Session: &auth.SessionData{UserID: 1},
					Access:  tt.access,
				}))
			}
			rec := httptest.NewRecorder()
			ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			RequireModule("roles", tt.levels...)(ok).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("статус = %d, ожидается %d", rec.Code, tt.wantCode)
			}
			if tt.wantLoc != "" && rec.Header().Get("Location") != tt.wantLoc {
				t.Errorf("Location = %q, ожидается %q", rec.Header().Get("Location"), tt.wantLoc)
			}
		})
	}
}
