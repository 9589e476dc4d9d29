package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/accessadmin/internal/domain/rbac"
	"github.com/bigkaa/accessadmin/internal/ui/pages"
)

// DashboardHandler — главная страница и страница отказа в доступе.
type DashboardHandler struct {
	registry ModuleRegistry
	logger   *slog.Logger
}

// NewDashboardHandler создаёт DashboardHandler.
func NewDashboardHandler(registry ModuleRegistry, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		registry: registry,
		logger:   logger.With(slog.String("component", "ui.dashboard")),
	}
}

// HandleDashboard — GET /admin/. Профиль и модули, доступные пользователю.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	data := pages.DashboardData{
		FullName: p.Session.FullName,
		RoleName: p.Session.RoleName,
		IsAdmin:  rbac.IsAdministratorRole(p.Session.RoleName),
	}

	modules, err := h.registry.Active(r.Context())
	if err != nil {
		h.logger.Warn("Реестр модулей недоступен", slog.String("error", err.Error()))
		data.ModulesError = true
	}
	for _, m := range modules {
		if !p.Access.Allows(m.Code) {
			continue
		}
		data.Modules = append(data.Modules, pages.DashboardModule{
			Code:  m.Code,
			Name:  m.Name,
			Level: p.Access[rbac.CanonicalCode(m.Code)],
		})
	}

	render(w, r, http.StatusOK, pages.Dashboard(newPage(w, r, "title.dashboard"), data), h.logger)
}

// HandleNoAccess — GET /admin/no-access.
func (h *DashboardHandler) HandleNoAccess(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusForbidden, pages.NoAccess(newPage(w, r, "title.no_access")), h.logger)
}
