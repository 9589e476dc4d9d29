package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubChecker struct {
	status  string
	message string
}

func (s stubChecker) CheckReady() (string, string) {
	return s.status, s.message
}

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler()
	rec := httptest.NewRecorder()
	h.HealthLive(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("статус %d, ожидалось 200", rec.Code)
	}
	var resp healthLiveResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Service != serviceName {
		t.Errorf("ответ %+v", resp)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []NamedChecker
		wantStatus string
		wantCode   int
	}{
		{
			name: "все ok",
			checkers: []NamedChecker{
				{Name: "postgresql", Checker: stubChecker{"ok", ""}},
				{Name: "backend", Checker: stubChecker{"ok", ""}},
			},
			wantStatus: "ok",
			wantCode:   http.StatusOK,
		},
		{
			name: "redis degraded",
			checkers: []NamedChecker{
				{Name: "postgresql", Checker: stubChecker{"ok", ""}},
				{Name: "redis", Checker: stubChecker{"degraded", "медленно"}},
			},
			wantStatus: "degraded",
			wantCode:   http.StatusOK,
		},
		{
			name: "backend fail",
			checkers: []NamedChecker{
				{Name: "postgresql", Checker: stubChecker{"ok", ""}},
				{Name: "backend", Checker: stubChecker{"fail", "недоступен"}},
			},
			wantStatus: "fail",
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name:       "не инициализирован",
			checkers:   []NamedChecker{{Name: "postgresql"}},
			wantStatus: "fail",
			wantCode:   http.StatusServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.checkers...)
			rec := httptest.NewRecorder()
			h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("статус %d, ожидалось %d", rec.Code, tt.wantCode)
			}
			var resp healthReadyResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, ожидается %q", resp.Status, tt.wantStatus)
			}
			if len(resp.Checks) != len(tt.checkers) {
				t.Errorf("проверок %d, ожидается %d", len(resp.Checks), len(tt.checkers))
			}
		})
	}
}
