package rbac

import (
	"slices"

	"github.com/bigkaa/accessadmin/internal/domain/model"
)

// AccessEntry — строка эффективного представления: один активный модуль.
type AccessEntry struct {
	ModuleID int `json:"moduleId"`
	// ModuleCode — код в исходном написании (для отображения)
	ModuleCode string `json:"moduleCode"`
	ModuleName string `json:"moduleName"`
	// PermissionID — id сохранённой строки, 0 если строки нет
	PermissionID int `json:"permissionId"`
	// Stored — сохранённый уровень backend (None, если строки нет)
	Stored model.PermissionType `json:"stored"`
	Effective
}

// AccessView — эффективное представление доступа пользователя.
// Всегда покрывает все активные модули в порядке реестра.
type AccessView struct {
	UserID  int           `json:"userId"`
	Entries []AccessEntry `json:"entries"`
	// Duplicates — коды модулей, для которых пришло больше одной строки прав
	Duplicates []string `json:"duplicates,omitempty"`
	// Orphans — коды строк прав без активного модуля (деактивирован или удалён)
	Orphans []string `json:"orphans,omitempty"`

	index map[string]int
}

// Len — количество модулей в представлении.
func (v *AccessView) Len() int {
	return len(v.Entries)
}

// Lookup ищет модуль по коду без учёта регистра.
func (v *AccessView) Lookup(code string) (AccessEntry, bool) {
	i, ok := v.index[CanonicalCode(code)]
	if !ok {
		return AccessEntry{}, false
	}
	return v.Entries[i], true
}

// Levels возвращает карту «канонический код → уровень» для проверки навигации.
func (v *AccessView) Levels() map[string]AccessLevel {
	levels := make(map[string]AccessLevel, len(v.Entries))
	for _, e := range v.Entries {
		levels[CanonicalCode(e.ModuleCode)] = e.Type
	}
	return levels
}

// Reconcile сводит разреженный набор прав пользователя с полным списком модулей.
//
// Строки другого пользователя игнорируются (UserID == 0 считается «своим»).
// При дубликатах выигрывает последняя строка по порядку входа, код попадает в Duplicates.
// Неактивные модули в представление не попадают; их строки остаются в Orphans.
func Reconcile(userID int, stored []model.Permission, modules []model.Module) *AccessView {
	rows := indexStored(userID, stored)

	view := &AccessView{
		UserID:  userID,
		Entries: make([]AccessEntry, 0, len(modules)),
		index:   make(map[string]int, len(modules)),
	}

	for _, m := range modules {
		if !m.IsActive {
			continue
		}
		key := CanonicalCode(m.Code)
		if _, dup := view.index[key]; dup {
			continue
		}

		entry := AccessEntry{
			ModuleID:   m.ID,
			ModuleCode: m.Code,
			ModuleName: m.Name,
			Effective:  NoAccess,
		}

		if p, ok := rows.find(m); ok {
			entry.PermissionID = p.ID
			entry.Stored = p.PermissionType
			entry.Effective = ToEffective(p.PermissionType)
		}

		view.index[key] = len(view.Entries)
		view.Entries = append(view.Entries, entry)
	}

	for key, n := range rows.seen {
		if n > 1 {
			view.Duplicates = append(view.Duplicates, key)
		}
		if _, ok := view.index[key]; !ok {
			view.Orphans = append(view.Orphans, key)
		}
	}
	slices.Sort(view.Duplicates)
	slices.Sort(view.Orphans)

	return view
}

// storedRows — строки прав пользователя по каноническому коду и по moduleId
// (для строк без кода).
type storedRows struct {
	byCode map[string]model.Permission
	byID   map[int]model.Permission
	seen   map[string]int
}

// indexStored раскладывает строки пользователя; при дубликатах выигрывает последняя.
func indexStored(userID int, stored []model.Permission) storedRows {
	rows := storedRows{
		byCode: make(map[string]model.Permission, len(stored)),
		byID:   make(map[int]model.Permission, len(stored)),
		seen:   make(map[string]int, len(stored)),
	}
	for _, p := range stored {
		if p.UserID != 0 && p.UserID != userID {
			continue
		}
		if key := CanonicalCode(p.ModuleCode); key != "" {
			rows.seen[key]++
			rows.byCode[key] = p
			continue
		}
		if p.ModuleID != 0 {
			rows.byID[p.ModuleID] = p
		}
	}
	return rows
}

// find ищет строку модуля сначала по коду, затем по moduleId.
func (r storedRows) find(m model.Module) (model.Permission, bool) {
	if p, ok := r.byCode[CanonicalCode(m.Code)]; ok {
		return p, true
	}
	if m.ID != 0 {
		p, ok := r.byID[m.ID]
		return p, ok
	}
	return model.Permission{}, false
}

// BuildReplacement формирует полный набор прав для сохранения.
// Набор покрывает все модули представления, а не только изменённые:
// backend заменяет набор пользователя целиком.
// edits — изменения по коду модуля (регистр не важен); модули без изменения
// сохраняют текущий эффективный уровень.
func BuildReplacement(view *AccessView, edits map[string]Effective) []model.Permission {
	normalized := make(map[string]Effective, len(edits))
	for code, e := range edits {
		normalized[CanonicalCode(code)] = e
	}

	result := make([]model.Permission, 0, len(view.Entries))
	for _, entry := range view.Entries {
		eff := entry.Effective
		if e, ok := normalized[CanonicalCode(entry.ModuleCode)]; ok {
			eff = e
		}

		pt := model.PermissionNone
		if eff.Enabled && eff.Type != LevelNone {
			pt = FromEffective(eff)
		}

		result = append(result, model.Permission{
			ID:             entry.PermissionID,
			UserID:         view.UserID,
			ModuleID:       entry.ModuleID,
			ModuleCode:     entry.ModuleCode,
			PermissionType: pt,
		})
	}
	return result
}
