package model

import (
	"strconv"
	"time"
)

// PermissionType — уровень доступа в контракте backend.
// Значения с шагом 10 — часть контракта, на проводе передаются как есть.
type PermissionType int

const (
	PermissionNone   PermissionType = 0
	PermissionRead   PermissionType = 10
	PermissionWrite  PermissionType = 20
	PermissionDelete PermissionType = 30
	PermissionAdmin  PermissionType = 40
)

// IsKnown проверяет, что значение входит в перечисление backend.
func (p PermissionType) IsKnown() bool {
	switch p {
	case PermissionNone, PermissionRead, PermissionWrite, PermissionDelete, PermissionAdmin:
		return true
	}
	return false
}

// String возвращает имя уровня (для логов и журнала).
func (p PermissionType) String() string {
	switch p {
	case PermissionNone:
		return "None"
	case PermissionRead:
		return "Read"
	case PermissionWrite:
		return "Write"
	case PermissionDelete:
		return "Delete"
	case PermissionAdmin:
		return "Admin"
	default:
		return "PermissionType(" + strconv.Itoa(int(p)) + ")"
	}
}

// Permission — строка прав пользователя на модуль.
// ID == 0 — строка ещё не сохранена (backend создаст её при замене набора).
type Permission struct {
	ID             int            `json:"id"`
	UserID         int            `json:"userId"`
	ModuleID       int            `json:"moduleId"`
	ModuleCode     string         `json:"moduleCode"`
	PermissionType PermissionType `json:"permissionType"`
}

// PermissionUpdate — элемент тела PUT /Permissions/users/{userId}.
// Backend требует id и permissionType; moduleId и moduleCode нужны для строк с id = 0.
type PermissionUpdate struct {
	ID             int            `json:"id"`
	ModuleID       int            `json:"moduleId"`
	ModuleCode     string         `json:"moduleCode"`
	PermissionType PermissionType `json:"permissionType"`
}

// ToUpdate конвертирует строку прав в элемент тела запроса полной замены.
func (p Permission) ToUpdate() PermissionUpdate {
	return PermissionUpdate{
		ID:             p.ID,
		ModuleID:       p.ModuleID,
		ModuleCode:     p.ModuleCode,
		PermissionType: p.PermissionType,
	}
}

// Причины записи в журнал изменений прав.
const (
	ChangeReasonSave       = "save"
	ChangeReasonRoleChange = "role_change"
)

// PermissionChange — запись журнала полной замены прав пользователя.
// Хранится в таблице permission_changes.
type PermissionChange struct {
	// ID — UUID записи
	ID string
	// UserID — чьи права заменены
	UserID int
	// Actor — email администратора, выполнившего замену
	Actor string
	// Reason — save или role_change
	Reason string
	// RoleName — новая роль (для role_change)
	RoleName string
	// Entries — итоговый набор: код модуля → уровень
	Entries map[string]PermissionType
	// CreatedAt — время записи
	CreatedAt time.Time
}
