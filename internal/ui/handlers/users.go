// users.go — список, поиск, создание, редактирование, активация и удаление пользователей.
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bigkaa/accessadmin/internal/domain/model"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
	"github.com/bigkaa/accessadmin/internal/service"
	"github.com/bigkaa/accessadmin/internal/ui/i18n"
	"github.com/bigkaa/accessadmin/internal/ui/pages"
)

const usersPath = "/admin/users"

// usersSearchLimit — максимум результатов поиска на странице.
const usersSearchLimit = 50

// UsersHandler — страницы пользователей.
type UsersHandler struct {
	directory UserDirectory
	logger    *slog.Logger
}

// NewUsersHandler создаёт UsersHandler.
func NewUsersHandler(directory UserDirectory, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{
		directory: directory,
		logger:    logger.With(slog.String("component", "ui.users")),
	}
}

// HandleList — GET /admin/users?q=...
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var (
		users []model.User
		err   error
	)
	if query != "" {
		users, err = h.directory.SearchUsersByEmail(r.Context(), query, usersSearchLimit)
	} else {
		users, err = h.directory.ListUsers(r.Context())
	}
	page := newPage(w, r, "title.users")
	if err != nil {
		if sessionRejected(err) {
			failure(w, r, h.logger, usersPath, "список пользователей", err)
			return
		}
		h.logger.Warn("Ошибка загрузки пользователей", slog.String("error", err.Error()))
		page.Flash = &pages.Flash{Kind: flashError, Message: errorMessage(r.Context(), err)}
	}

	p := principal(r)
	data := pages.UsersData{
		Users:                users,
		Query:                query,
		CanEdit:              p.Access.CanEdit(rbac.ModuleUsers),
		CanManagePermissions: p.Access.Allows(rbac.ModulePermissions),
	}
	render(w, r, http.StatusOK, pages.Users(page, data), h.logger)
}

// HandleNew — GET /admin/users/new.
func (h *UsersHandler) HandleNew(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, pages.UserFormData{Input: model.UserInput{IsActive: true}})
}

// HandleCreate — POST /admin/users.
// Выбранная роль сразу распространяет права.
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	input := userInputFromForm(r)

	change, err := h.directory.CreateUser(r.Context(), actor(r), input)
	if err != nil {
		if sessionRejected(err) {
			failure(w, r, h.logger, usersPath, "создание пользователя", err)
			return
		}
		input.Password = ""
		h.renderForm(w, r, errorStatus(err), pages.UserFormData{
			Input:  input,
			Errors: []string{errorMessage(r.Context(), err)},
		})
		return
	}

	kind, msg := changeNotice(r, "flash.user_created", change)
	redirectWithFlash(w, r, usersPath, kind, msg)
}

// HandleEdit — GET /admin/users/{id}/edit.
func (h *UsersHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	user, err := h.directory.GetUser(r.Context(), id)
	if err != nil {
		failure(w, r, h.logger, usersPath, "загрузка пользователя", err)
		return
	}
	h.renderForm(w, r, http.StatusOK, pages.UserFormData{
		ID: id,
		Input: model.UserInput{
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			RoleID:    user.RoleID,
			IsActive:  user.IsActive,
		},
	})
}

// HandleUpdate — POST /admin/users/{id}.
// Смена роли распространяет права; ошибка распространения показывается предупреждением.
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	input := userInputFromForm(r)
	input.Password = ""

	change, err := h.directory.UpdateUser(r.Context(), actor(r), id, input)
	if err != nil {
		if sessionRejected(err) {
			failure(w, r, h.logger, usersPath, "обновление пользователя", err)
			return
		}
		h.renderForm(w, r, errorStatus(err), pages.UserFormData{
			ID:     id,
			Input:  input,
			Errors: []string{errorMessage(r.Context(), err)},
		})
		return
	}

	kind, msg := changeNotice(r, "flash.user_updated", change)
	redirectWithFlash(w, r, usersPath, kind, msg)
}

// HandleActivate — POST /admin/users/{id}/activate.
func (h *UsersHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// HandleDeactivate — POST /admin/users/{id}/deactivate.
// Администратора деактивировать нельзя.
func (h *UsersHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *UsersHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if _, err := h.directory.SetUserActive(r.Context(), actor(r), id, active); err != nil {
		failure(w, r, h.logger, usersPath, "смена активности пользователя", err)
		return
	}
	key := "flash.user_deactivated"
	if active {
		key = "flash.user_activated"
	}
	redirectWithFlash(w, r, usersPath, flashSuccess, i18n.T(r.Context(), key))
}

// HandleDelete — POST /admin/users/{id}/delete.
// Администратора удалить нельзя.
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := h.directory.DeleteUser(r.Context(), actor(r), id); err != nil {
		failure(w, r, h.logger, usersPath, "удаление пользователя", err)
		return
	}
	redirectWithFlash(w, r, usersPath, flashSuccess, i18n.T(r.Context(), "flash.user_deleted"))
}

// renderForm дополняет форму списком ролей.
func (h *UsersHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, data pages.UserFormData) {
	roles, err := h.directory.ListRoles(r.Context())
	if err != nil {
		h.logger.Warn("Не удалось загрузить роли", slog.String("error", err.Error()))
		data.Errors = append(data.Errors, errorMessage(r.Context(), err))
	}
	data.Roles = roles

	title := "title.user_new"
	if data.ID != 0 {
		title = "title.user_edit"
	}
	render(w, r, status, pages.UserForm(newPage(w, r, title), data), h.logger)
}

// userInputFromForm читает поля формы пользователя.
// Нечисловой roleId даёт -1 и отклоняется валидацией.
func userInputFromForm(r *http.Request) model.UserInput {
	roleID, err := strconv.Atoi(r.FormValue("roleId"))
	if err != nil {
		roleID = -1
		if r.FormValue("roleId") == "" {
			roleID = 0
		}
	}
	return model.UserInput{
		FirstName: r.FormValue("firstName"),
		LastName:  r.FormValue("lastName"),
		Email:     r.FormValue("email"),
		Password:  r.FormValue("password"),
		RoleID:    roleID,
		IsActive:  r.FormValue("isActive") == "true",
	}
}

// changeNotice — уведомление о сохранении пользователя с итогом распространения прав.
func changeNotice(r *http.Request, key string, change *service.UserChange) (kind, message string) {
	ctx := r.Context()
	message = i18n.T(ctx, key)
	switch {
	case change.PropagationErr != nil:
		return flashWarning, message + " " + i18n.T(ctx, "flash.propagation_failed")
	case change.Propagation != nil && change.Propagation.Propagated:
		return flashSuccess, message + " " + i18n.Tf(ctx, "flash.propagated", change.Propagation.RoleName)
	default:
		return flashSuccess, message
	}
}
