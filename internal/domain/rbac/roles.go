package rbac

import (
	"fmt"
	"strings"

	"github.com/bigkaa/accessadmin/internal/domain/model"
)

// Имена системных ролей по соглашению backend.
// Сравнение без учёта регистра, независимо от локали.
var (
	administratorRoleNames = []string{"administrador", "admin"}
	unassignedRoleNames    = []string{"sin asignar", "unassigned"}
)

// IsAdministratorRole — роль администратора («Administrador», «admin»).
func IsAdministratorRole(name string) bool {
	return matchesAny(name, administratorRoleNames)
}

// IsUnassignedRole — роль «без назначения» («Sin asignar», «unassigned»).
func IsUnassignedRole(name string) bool {
	return matchesAny(name, unassignedRoleNames)
}

// IsSystemRole — администратор или «без назначения».
// Флаг isSystemRole от backend здесь не учитывается.
func IsSystemRole(name string) bool {
	return IsAdministratorRole(name) || IsUnassignedRole(name)
}

// matchesAny — точное совпадение без учёта регистра; пробелы по краям не учитываются.
func matchesAny(name string, candidates []string) bool {
	name = strings.TrimSpace(name)
	for _, c := range candidates {
		if strings.EqualFold(name, c) {
			return true
		}
	}
	return false
}

// Действия, которые проверяет политика.
const (
	ActionDeleteRole     = "delete_role"
	ActionEditRole       = "edit_role"
	ActionDeactivateUser = "deactivate_user"
	ActionDeleteUser     = "delete_user"
)

// PolicyViolation — попытка запрещённого действия (класс (c) ошибок).
// Показывается пользователю как уведомление, сессию не прерывает.
type PolicyViolation struct {
	// Action — одно из Action* выше
	Action string
	// Subject — имя роли или email пользователя
	Subject string
	// Reason — текст для уведомления
	Reason string
}

func (e *PolicyViolation) Error() string {
	return fmt.Sprintf("действие %s запрещено для %q: %s", e.Action, e.Subject, e.Reason)
}

// CanDeleteRole — системные роли удалять нельзя.
func CanDeleteRole(role *model.Role) bool {
	return role != nil && !IsSystemRole(role.Name)
}

// CanEditRole — системные роли нельзя переименовывать и редактировать.
func CanEditRole(role *model.Role) bool {
	return role != nil && !IsSystemRole(role.Name)
}

// CanDeactivateUser — администратора нельзя деактивировать.
// roleName — имя текущей роли пользователя.
func CanDeactivateUser(roleName string) bool {
	return !IsAdministratorRole(roleName)
}

// CanDeleteUser — администратора нельзя удалить.
func CanDeleteUser(roleName string) bool {
	return !IsAdministratorRole(roleName)
}

// CheckDeleteRole возвращает *PolicyViolation, если роль удалять нельзя.
func CheckDeleteRole(role *model.Role) error {
	if role == nil || CanDeleteRole(role) {
		return nil
	}
	return &PolicyViolation{Action: ActionDeleteRole, Subject: role.Name, Reason: "системная роль"}
}

// CheckEditRole возвращает *PolicyViolation, если роль редактировать нельзя.
func CheckEditRole(role *model.Role) error {
	if role == nil || CanEditRole(role) {
		return nil
	}
	return &PolicyViolation{Action: ActionEditRole, Subject: role.Name, Reason: "системная роль"}
}

// CheckDeactivateUser возвращает *PolicyViolation для администратора.
func CheckDeactivateUser(user *model.User, roleName string) error {
	if CanDeactivateUser(roleName) {
		return nil
	}
	return &PolicyViolation{Action: ActionDeactivateUser, Subject: subjectOf(user), Reason: "пользователь — администратор"}
}

// CheckDeleteUser возвращает *PolicyViolation для администратора.
func CheckDeleteUser(user *model.User, roleName string) error {
	if CanDeleteUser(roleName) {
		return nil
	}
	return &PolicyViolation{Action: ActionDeleteUser, Subject: subjectOf(user), Reason: "пользователь — администратор"}
}

func subjectOf(user *model.User) string {
	if user == nil {
		return ""
	}
	return user.Email
}
