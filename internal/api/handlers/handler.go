// handler.go — основной обработчик JSON API консоли.
// Объединяет health endpoints и API прав, делегируя запросы в сервисный слой.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bigkaa/accessadmin/internal/domain/model"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
	"github.com/bigkaa/accessadmin/internal/service"
)

// ModuleSource — реестр модулей.
// Реализуется *service.ModuleRegistry.
type ModuleSource interface {
	Modules(ctx context.Context) ([]model.Module, error)
	Reload(ctx context.Context) ([]model.Module, error)
}

// PermissionStore — представление и сохранение прав.
// Реализуется *service.PermissionService.
type PermissionStore interface {
	View(ctx context.Context, userID int) (*rbac.AccessView, error)
	Save(ctx context.Context, actor string, userID int, edits map[string]rbac.Effective) (*rbac.AccessView, error)
	History(ctx context.Context, userID, limit int) ([]*model.PermissionChange, error)
}

// UserDirectory — поиск пользователей и смена роли.
// Реализуется *service.Directory.
type UserDirectory interface {
	SearchUsersByEmail(ctx context.Context, query string, limit int) ([]model.User, error)
	ChangeUserRole(ctx context.Context, actor string, id, roleID int) (*service.UserChange, error)
}

// APIHandler — основной обработчик JSON API.
type APIHandler struct {
	health    *HealthHandler
	modules   ModuleSource
	perms     PermissionStore
	directory UserDirectory
	logger    *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	modules ModuleSource,
	perms PermissionStore,
	directory UserDirectory,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:    health,
		modules:   modules,
		perms:     perms,
		directory: directory,
		logger:    logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ без конверта (health endpoints).
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// limitDefault нормализует необязательный limit.
func limitDefault(limit *int, def, max int) int {
	if limit == nil || *limit < 1 {
		return def
	}
	if *limit > max {
		return max
	}
	return *limit
}
