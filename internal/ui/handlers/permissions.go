// permissions.go — поиск пользователя и матрица его прав.
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bigkaa/accessadmin/internal/domain/rbac"
	"github.com/bigkaa/accessadmin/internal/ui/i18n"
	"github.com/bigkaa/accessadmin/internal/ui/pages"
)

const permissionsPath = "/admin/permissions"

const (
	permissionsSearchLimit = 20
	historyLimit           = 20
)

// PermissionsHandler — страницы прав пользователей.
type PermissionsHandler struct {
	perms     PermissionMatrix
	directory UserDirectory
	logger    *slog.Logger
}

// NewPermissionsHandler создаёт PermissionsHandler.
func NewPermissionsHandler(perms PermissionMatrix, directory UserDirectory, logger *slog.Logger) *PermissionsHandler {
	return &PermissionsHandler{
		perms:     perms,
		directory: directory,
		logger:    logger.With(slog.String("component", "ui.permissions")),
	}
}

// HandleSearch — GET /admin/permissions?q=...
func (h *PermissionsHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	page := newPage(w, r, "title.permissions")
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	data := pages.PermissionsSearchData{Query: query}

	if query != "" {
		users, err := h.directory.SearchUsersByEmail(r.Context(), query, permissionsSearchLimit)
		if err != nil {
			if sessionRejected(err) {
				failure(w, r, h.logger, permissionsPath, "поиск пользователей", err)
				return
			}
			page.Flash = &pages.Flash{Kind: flashError, Message: errorMessage(r.Context(), err)}
		}
		data.Users = users
	}
	render(w, r, http.StatusOK, pages.PermissionsSearch(page, data), h.logger)
}

// HandleView — GET /admin/permissions/{id}.
// Журнал недоступен — матрица показывается без истории.
func (h *PermissionsHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	user, err := h.directory.GetUser(r.Context(), id)
	if err != nil {
		failure(w, r, h.logger, permissionsPath, "загрузка пользователя", err)
		return
	}
	view, err := h.perms.View(r.Context(), id)
	if err != nil {
		failure(w, r, h.logger, permissionsPath, "загрузка прав", err)
		return
	}

	data := pages.PermissionsData{
		User:           user,
		View:           view,
		HistoryEnabled: h.perms.HistoryEnabled(),
		CanEdit:        principal(r).Access.CanEdit(rbac.ModulePermissions),
	}
	if data.HistoryEnabled {
		history, err := h.perms.History(r.Context(), id, historyLimit)
		if err != nil {
			h.logger.Warn("Не удалось загрузить журнал прав",
				slog.Int("user_id", id),
				slog.String("error", err.Error()),
			)
		}
		data.History = history
	}
	render(w, r, http.StatusOK, pages.Permissions(newPage(w, r, "title.permissions"), data), h.logger)
}

// HandleSave — POST /admin/permissions/{id}.
// Набор прав пользователя заменяется целиком.
func (h *PermissionsHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	back := permissionsPath + "/" + strconv.Itoa(id)

	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, back, flashError, i18n.T(r.Context(), "error.validation"))
		return
	}
	edits := matrixEdits(r)

	if _, err := h.perms.Save(r.Context(), actor(r), id, edits); err != nil {
		failure(w, r, h.logger, back, "сохранение прав", err)
		return
	}
	redirectWithFlash(w, r, back, flashSuccess, i18n.T(r.Context(), "flash.permissions_saved"))
}

// matrixEdits собирает изменения матрицы из формы.
// Включённый модуль без уровня получает readonly.
func matrixEdits(r *http.Request) map[string]rbac.Effective {
	codes := r.Form[pages.FieldModule]
	edits := make(map[string]rbac.Effective, len(codes))
	for _, code := range codes {
		if code == "" {
			continue
		}
		if r.Form.Get(pages.FieldEnabledPref+code) != "true" {
			edits[code] = rbac.NoAccess
			continue
		}
		level := rbac.AccessLevel(r.Form.Get(pages.FieldTypePref + code))
		if level == "" {
			level = rbac.LevelReadOnly
		}
		edits[code] = rbac.Effective{Enabled: true, Type: level}
	}
	return edits
}
