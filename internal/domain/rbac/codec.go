// Пакет rbac — ядро модели прав консоли.
// Кодек уровней доступа, классификация ролей по имени, список админских модулей,
// сверка сохранённых прав с реестром модулей, правило распространения при смене роли
// и проверка навигации. Все функции чистые: без I/O и скрытого состояния.
package rbac

import "github.com/bigkaa/accessadmin/internal/domain/model"

// AccessLevel — трёхзначный уровень доступа, который видит UI.
type AccessLevel string

const (
	LevelNone     AccessLevel = "none"
	LevelReadOnly AccessLevel = "readonly"
	LevelEdit     AccessLevel = "edit"
)

// IsValid проверяет, что строка — один из трёх уровней.
func (l AccessLevel) IsValid() bool {
	switch l {
	case LevelNone, LevelReadOnly, LevelEdit:
		return true
	}
	return false
}

// Effective — доступ к модулю в терминах UI.
type Effective struct {
	Enabled bool        `json:"enabled"`
	Type    AccessLevel `json:"type"`
}

// NoAccess — значение для модуля без строки прав.
var NoAccess = Effective{Enabled: false, Type: LevelNone}

// ToEffective переводит уровень backend в представление UI.
// Delete и Admin сворачиваются в Edit: UI выдаёт только два уровня.
// Неизвестные значения трактуются как отсутствие доступа.
func ToEffective(p model.PermissionType) Effective {
	switch p {
	case model.PermissionRead:
		return Effective{Enabled: true, Type: LevelReadOnly}
	case model.PermissionWrite, model.PermissionDelete, model.PermissionAdmin:
		return Effective{Enabled: true, Type: LevelEdit}
	default:
		return NoAccess
	}
}

// FromEffective переводит представление UI обратно в уровень backend.
// Edit всегда разворачивается в Write, никогда в Delete или Admin.
func FromEffective(e Effective) model.PermissionType {
	if !e.Enabled {
		return model.PermissionNone
	}
	switch e.Type {
	case LevelReadOnly:
		return model.PermissionRead
	case LevelEdit:
		return model.PermissionWrite
	default:
		return model.PermissionNone
	}
}

// LevelOf — сокращение для ToEffective(p).Type.
func LevelOf(p model.PermissionType) AccessLevel {
	return ToEffective(p).Type
}
