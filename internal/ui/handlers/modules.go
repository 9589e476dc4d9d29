// modules.go — реестр модулей и его перезагрузка.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/accessadmin/internal/domain/rbac"
	"github.com/bigkaa/accessadmin/internal/ui/i18n"
	"github.com/bigkaa/accessadmin/internal/ui/pages"
)

const modulesPath = "/admin/modules"

// ModulesHandler — страница модулей.
type ModulesHandler struct {
	registry ModuleRegistry
	logger   *slog.Logger
}

// NewModulesHandler создаёт ModulesHandler.
func NewModulesHandler(registry ModuleRegistry, logger *slog.Logger) *ModulesHandler {
	return &ModulesHandler{
		registry: registry,
		logger:   logger.With(slog.String("component", "ui.modules")),
	}
}

// HandleList — GET /admin/modules.
func (h *ModulesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := newPage(w, r, "title.modules")
	modules, err := h.registry.Modules(r.Context())
	if err != nil {
		if sessionRejected(err) {
			failure(w, r, h.logger, modulesPath, "список модулей", err)
			return
		}
		h.logger.Warn("Реестр модулей недоступен", slog.String("error", err.Error()))
		page.Flash = &pages.Flash{Kind: flashError, Message: i18n.T(r.Context(), "error.modules_unavailable")}
	}
	data := pages.ModulesData{
		Modules:  modules,
		LoadedAt: h.registry.LoadedAt(),
		CanEdit:  principal(r).Access.CanEdit(rbac.ModuleModules),
	}
	render(w, r, http.StatusOK, pages.Modules(page, data), h.logger)
}

// HandleReload — POST /admin/modules/reload.
func (h *ModulesHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	modules, err := h.registry.Reload(r.Context())
	if err != nil {
		failure(w, r, h.logger, modulesPath, "перезагрузка модулей", err)
		return
	}
	h.logger.Info("Реестр модулей перезагружен",
		slog.Int("modules", len(modules)),
		slog.String("actor", actor(r)),
	)
	redirectWithFlash(w, r, modulesPath, flashSuccess, i18n.Tf(r.Context(), "flash.modules_reloaded", len(modules)))
}
