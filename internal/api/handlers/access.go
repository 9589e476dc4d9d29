// access.go — JSON API прав доступа: карта текущего пользователя, модули,
// поиск пользователей, эффективное представление, сохранение, журнал и смена роли.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/accessadmin/internal/api/errors"
	"github.com/bigkaa/accessadmin/internal/domain/model"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
	"github.com/bigkaa/accessadmin/internal/ui/auth"
)

const (
	searchLimitDefault  = 10
	searchLimitMax      = 50
	historyLimitDefault = 20
	historyLimitMax     = 100
)

// myAccessResponse — ответ GET /api/v1/me/access.
type myAccessResponse struct {
	UserID   int                         `json:"userId"`
	Email    string                      `json:"email"`
	FullName string                      `json:"fullName"`
	RoleName string                      `json:"roleName"`
	IsAdmin  bool                        `json:"isAdmin"`
	Access   map[string]rbac.AccessLevel `json:"access"`
}

// userSummary — пользователь в результатах поиска.
type userSummary struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	RoleName string `json:"roleName,omitempty"`
	IsActive bool   `json:"isActive"`
}

// historyEntry — запись журнала изменений прав.
type historyEntry struct {
	ID        string            `json:"id"`
	Actor     string            `json:"actor"`
	Reason    string            `json:"reason"`
	RoleName  string            `json:"roleName,omitempty"`
	Entries   map[string]string `json:"entries"`
	CreatedAt string            `json:"createdAt"`
}

// saveAccessRequest — тело PUT /api/v1/users/{id}/access.
type saveAccessRequest struct {
	Edits map[string]rbac.Effective `json:"edits"`
}

// changeRoleRequest — тело PUT /api/v1/users/{id}/role.
type changeRoleRequest struct {
	RoleID int `json:"roleId"`
}

// changeRoleResponse — пользователь и итог распространения прав.
type changeRoleResponse struct {
	User             userSummary        `json:"user"`
	Propagated       bool               `json:"propagated"`
	Permissions      []model.Permission `json:"permissions,omitempty"`
	PropagationError string             `json:"propagationError,omitempty"`
}

// GetMyAccess — GET /api/v1/me/access.
func (h *APIHandler) GetMyAccess(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	if p == nil {
		apierrors.Unauthorized(w, "требуется вход в консоль")
		return
	}
	access := map[string]rbac.AccessLevel(p.Access)
	if access == nil {
		access = map[string]rbac.AccessLevel{}
	}
	apierrors.WriteJSON(w, http.StatusOK, myAccessResponse{
		UserID:   p.Session.UserID,
		Email:    p.Session.Email,
		FullName: p.Session.FullName,
		RoleName: p.Session.RoleName,
		IsAdmin:  rbac.IsAdministratorRole(p.Session.RoleName),
		Access:   access,
	})
}

// ListModules — GET /api/v1/modules.
func (h *APIHandler) ListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.modules.Modules(r.Context())
	if err != nil {
		h.serviceError(w, r, "список модулей", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, modules)
}

// ReloadModules — POST /api/v1/modules/reload.
func (h *APIHandler) ReloadModules(w http.ResponseWriter, r *http.Request) {
	modules, err := h.modules.Reload(r.Context())
	if err != nil {
		h.serviceError(w, r, "перезагрузка модулей", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, modules)
}

// SearchUsers — GET /api/v1/users/search?q=...&limit=...
func (h *APIHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	var q string
	if err := runtime.BindQueryParameter("form", true, true, "q", r.URL.Query(), &q); err != nil {
		apierrors.ValidationError(w, "некорректный параметр q", err.Error())
		return
	}
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		apierrors.ValidationError(w, "некорректный параметр limit", err.Error())
		return
	}

	users, err := h.directory.SearchUsersByEmail(r.Context(), q,
		limitDefault(limit, searchLimitDefault, searchLimitMax))
	if err != nil {
		h.serviceError(w, r, "поиск пользователей", err)
		return
	}

	result := make([]userSummary, 0, len(users))
	for i := range users {
		result = append(result, summarize(&users[i]))
	}
	apierrors.WriteJSON(w, http.StatusOK, result)
}

// GetUserAccess — GET /api/v1/users/{id}/access.
func (h *APIHandler) GetUserAccess(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	view, err := h.perms.View(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, "представление прав", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, view)
}

// SaveUserAccess — PUT /api/v1/users/{id}/access.
// Набор прав заменяется целиком: модули без правки сохраняют текущий уровень.
func (h *APIHandler) SaveUserAccess(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var req saveAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса", err.Error())
		return
	}

	view, err := h.perms.Save(r.Context(), actorOf(r), id, req.Edits)
	if err != nil {
		h.serviceError(w, r, "сохранение прав", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, view)
}

// GetUserAccessHistory — GET /api/v1/users/{id}/access/history.
func (h *APIHandler) GetUserAccessHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		apierrors.ValidationError(w, "некорректный параметр limit", err.Error())
		return
	}

	changes, err := h.perms.History(r.Context(), id,
		limitDefault(limit, historyLimitDefault, historyLimitMax))
	if err != nil {
		h.serviceError(w, r, "журнал прав", err)
		return
	}

	result := make([]historyEntry, 0, len(changes))
	for _, c := range changes {
		entries := make(map[string]string, len(c.Entries))
		for code, t := range c.Entries {
			entries[code] = t.String()
		}
		result = append(result, historyEntry{
			ID:        c.ID,
			Actor:     c.Actor,
			Reason:    c.Reason,
			RoleName:  c.RoleName,
			Entries:   entries,
			CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	apierrors.WriteJSON(w, http.StatusOK, result)
}

// ChangeUserRole — PUT /api/v1/users/{id}/role.
// Ошибка распространения не отменяет смену роли и возвращается в propagationError.
func (h *APIHandler) ChangeUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var req changeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса", err.Error())
		return
	}

	change, err := h.directory.ChangeUserRole(r.Context(), actorOf(r), id, req.RoleID)
	if err != nil {
		h.serviceError(w, r, "смена роли", err)
		return
	}

	resp := changeRoleResponse{User: summarize(change.User)}
	if change.Propagation != nil {
		resp.Propagated = change.Propagation.Propagated
		resp.Permissions = change.Propagation.Permissions
	}
	if change.PropagationErr != nil {
		resp.PropagationError = change.PropagationErr.Error()
	}
	apierrors.WriteJSON(w, http.StatusOK, resp)
}

// --- Вспомогательные функции ---

// serviceError логирует ошибку сервиса и пишет ответ.
func (h *APIHandler) serviceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Warn("Ошибка API",
		slog.String("operation", op),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	apierrors.FromService(w, err)
}

// userIDParam разбирает path-параметр {id}. При ошибке ответ уже записан.
func userIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	var id int
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil || id < 1 {
		apierrors.ValidationError(w, "некорректный id пользователя")
		return 0, false
	}
	return id, true
}

// actorOf — email администратора из сессии (для журнала и логов).
func actorOf(r *http.Request) string {
	if p := auth.PrincipalFromContext(r.Context()); p != nil && p.Session != nil {
		return p.Session.Email
	}
	return ""
}

func summarize(u *model.User) userSummary {
	return userSummary{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName(),
		RoleName: u.RoleName,
		IsActive: u.IsActive,
	}
}
