package rbac

// anyAccess — уровни по умолчанию: достаточно любого доступа.
var anyAccess = []AccessLevel{LevelReadOnly, LevelEdit}

// IsAllowed решает, пропускать ли навигацию к модулю.
// levels — карта «канонический код → уровень» из эффективного представления.
// required — допустимые уровни; пусто означает {ReadOnly, Edit}.
// Никогда не паникует: nil-карта и неизвестный код дают false.
func IsAllowed(levels map[string]AccessLevel, moduleCode string, required ...AccessLevel) bool {
	level, ok := levels[CanonicalCode(moduleCode)]
	if !ok || level == LevelNone {
		return false
	}
	if len(required) == 0 {
		required = anyAccess
	}
	for _, r := range required {
		if r == level {
			return true
		}
	}
	return false
}

// Коды модулей, которыми закрыты разделы консоли.
const (
	ModuleUsers       = "users"
	ModuleRoles       = "roles"
	ModuleModules     = "modules"
	ModulePermissions = "permissions"
)
