// roles.go — список, создание, редактирование и удаление ролей.
package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/bigkaa/accessadmin/internal/domain/model"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
	"github.com/bigkaa/accessadmin/internal/service"
	"github.com/bigkaa/accessadmin/internal/ui/i18n"
	"github.com/bigkaa/accessadmin/internal/ui/pages"
)

const rolesPath = "/admin/roles"

// RolesHandler — страницы ролей.
type RolesHandler struct {
	directory UserDirectory
	logger    *slog.Logger
}

// NewRolesHandler создаёт RolesHandler.
func NewRolesHandler(directory UserDirectory, logger *slog.Logger) *RolesHandler {
	return &RolesHandler{
		directory: directory,
		logger:    logger.With(slog.String("component", "ui.roles")),
	}
}

// HandleList — GET /admin/roles.
func (h *RolesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := newPage(w, r, "title.roles")
	roles, err := h.directory.ListRoles(r.Context())
	if err != nil {
		if sessionRejected(err) {
			failure(w, r, h.logger, rolesPath, "список ролей", err)
			return
		}
		h.logger.Warn("Ошибка загрузки ролей", slog.String("error", err.Error()))
		page.Flash = &pages.Flash{Kind: flashError, Message: errorMessage(r.Context(), err)}
	}
	data := pages.RolesData{
		Roles:   roles,
		CanEdit: principal(r).Access.CanEdit(rbac.ModuleRoles),
	}
	render(w, r, http.StatusOK, pages.Roles(page, data), h.logger)
}

// HandleNew — GET /admin/roles/new.
func (h *RolesHandler) HandleNew(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, pages.RoleForm(newPage(w, r, "title.role_new"), pages.RoleFormData{}), h.logger)
}

// HandleCreate — POST /admin/roles.
func (h *RolesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	input := roleInputFromForm(r)
	if _, err := h.directory.CreateRole(r.Context(), actor(r), input); err != nil {
		if sessionRejected(err) {
			failure(w, r, h.logger, rolesPath, "создание роли", err)
			return
		}
		data := pages.RoleFormData{Input: input, Errors: []string{errorMessage(r.Context(), err)}}
		render(w, r, errorStatus(err), pages.RoleForm(pages.Page{Title: "title.role_new"}, data), h.logger)
		return
	}
	redirectWithFlash(w, r, rolesPath, flashSuccess, i18n.T(r.Context(), "flash.role_created"))
}

// HandleEdit — GET /admin/roles/{id}/edit. Системную роль редактировать нельзя.
func (h *RolesHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	role, err := h.directory.GetRole(r.Context(), id)
	if err == nil {
		err = rbac.CheckEditRole(role)
	}
	if err != nil {
		failure(w, r, h.logger, rolesPath, "загрузка роли", err)
		return
	}
	data := pages.RoleFormData{
		ID:    id,
		Input: model.RoleInput{Name: role.Name, Description: role.Description},
	}
	render(w, r, http.StatusOK, pages.RoleForm(newPage(w, r, "title.role_edit"), data), h.logger)
}

// HandleUpdate — POST /admin/roles/{id}.
func (h *RolesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	input := roleInputFromForm(r)
	if _, err := h.directory.UpdateRole(r.Context(), actor(r), id, input); err != nil {
		if sessionRejected(err) || service.IsPolicyViolation(err) {
			failure(w, r, h.logger, rolesPath, "обновление роли", err)
			return
		}
		data := pages.RoleFormData{ID: id, Input: input, Errors: []string{errorMessage(r.Context(), err)}}
		render(w, r, errorStatus(err), pages.RoleForm(pages.Page{Title: "title.role_edit"}, data), h.logger)
		return
	}
	redirectWithFlash(w, r, rolesPath, flashSuccess, i18n.T(r.Context(), "flash.role_updated"))
}

// HandleDeleteConfirm — GET /admin/roles/{id}/delete.
// Показывает, у скольких пользователей роль назначена.
func (h *RolesHandler) HandleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	impact, err := h.directory.RoleDeletionImpact(r.Context(), id)
	if err == nil {
		err = rbac.CheckDeleteRole(impact.Role)
	}
	if err != nil {
		failure(w, r, h.logger, rolesPath, "проверка удаления роли", err)
		return
	}
	data := pages.RoleDeleteData{Role: *impact.Role, AffectedUsers: impact.AffectedUsers}
	render(w, r, http.StatusOK, pages.RoleDelete(newPage(w, r, "title.role_delete"), data), h.logger)
}

// HandleDelete — POST /admin/roles/{id}/delete.
func (h *RolesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := h.directory.DeleteRole(r.Context(), actor(r), id); err != nil {
		failure(w, r, h.logger, rolesPath, "удаление роли", err)
		return
	}
	redirectWithFlash(w, r, rolesPath, flashSuccess, i18n.T(r.Context(), "flash.role_deleted"))
}

func roleInputFromForm(r *http.Request) model.RoleInput {
	return model.RoleInput{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
}
