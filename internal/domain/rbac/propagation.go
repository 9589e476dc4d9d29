package rbac

import "github.com/bigkaa/accessadmin/internal/domain/model"

// PropagateRoleChange вычисляет полный набор прав пользователя после смены роли.
//
// Для роли администратора каждый активный модуль получает Write (не Admin):
// администратор редактирует всё, включая общие модули.
// Для прочих ролей админские модули отзываются (None), а общие модули
// сохраняют текущий уровень пользователя (None, если строки не было).
//
// Функция идемпотентна: повторное применение с той же ролью даёт тот же набор.
func PropagateRoleChange(userID int, existing []model.Permission, modules []model.Module, newRoleName string) []model.Permission {
	rows := indexStored(userID, existing)

	admin := IsAdministratorRole(newRoleName)
	seen := make(map[string]struct{}, len(modules))
	result := make([]model.Permission, 0, len(modules))

	for _, m := range modules {
		if !m.IsActive {
			continue
		}
		key := CanonicalCode(m.Code)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		prev, hasPrev := rows.find(m)

		pt := model.PermissionNone
		switch {
		case admin:
			pt = model.PermissionWrite
		case IsAdminModule(m.Code):
			pt = model.PermissionNone
		case hasPrev:
			pt = prev.PermissionType
		}

		p := model.Permission{
			UserID:         userID,
			ModuleID:       m.ID,
			ModuleCode:     m.Code,
			PermissionType: pt,
		}
		if hasPrev {
			p.ID = prev.ID
		}
		result = append(result, p)
	}
	return result
}
