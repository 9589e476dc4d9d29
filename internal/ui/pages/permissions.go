package pages

import (
	"slices"
	"strings"

	"github.com/a-h/templ"

	"github.com/bigkaa/accessadmin/internal/domain/model"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
)

// Имена полей формы матрицы прав.
const (
	FieldModule      = "module"
	FieldEnabledPref = "enabled_"
	FieldTypePref    = "type_"
)

// PermissionsSearchData — выбор пользователя для матрицы прав.
type PermissionsSearchData struct {
	Query string
	Users []model.User
}

// PermissionsSearch — поиск пользователя по email (автодополнение через /api/v1/users/search).
func PermissionsSearch(page Page, data PermissionsSearchData) templ.Component {
	return Layout(page, component(func(b *writer) {
		b.raw(`<h1>`)
		b.t("permissions.heading")
		b.raw(`</h1><form method="get" action="/admin/permissions" class="search autocomplete"><input type="search" name="q" autocomplete="off" data-autocomplete="/api/v1/users/search" data-target="/admin/permissions/" value="`)
		b.text(data.Query)
		b.raw(`" placeholder="`)
		b.t("users.search_placeholder")
		b.raw(`"><ul class="suggestions" hidden></ul><button type="submit">`)
		b.t("common.search")
		b.raw(`</button></form>`)

		if data.Query == "" {
			return
		}
		if len(data.Users) == 0 {
			b.raw(`<p class="muted">`)
			b.t("users.empty")
			b.raw(`</p>`)
			return
		}
		b.raw(`<ul class="results">`)
		for _, u := range data.Users {
			b.raw(`<li><a href="`)
			b.url(permissionsPath(u.ID))
			b.raw(`">`)
			b.text(u.Email)
			b.raw(`</a> <span class="muted">`)
			b.text(u.FullName())
			b.raw(`</span></li>`)
		}
		b.raw(`</ul>`)
	}))
}

// PermissionsData — матрица прав пользователя.
type PermissionsData struct {
	User    *model.User
	View    *rbac.AccessView
	History []*model.PermissionChange
	// HistoryEnabled — журнал изменений подключён
	HistoryEnabled bool
	CanEdit        bool
}

// Permissions — матрица «модуль → уровень» и журнал изменений.
func Permissions(page Page, data PermissionsData) templ.Component {
	return Layout(page, component(func(b *writer) {
		u := data.User
		b.raw(`<div class="toolbar"><h1>`)
		b.tf("permissions.user_heading", u.FullName())
		b.raw(`</h1><a href="/admin/permissions">`)
		b.t("permissions.other_user")
		b.raw(`</a></div><p>`)
		b.text(u.Email)
		b.raw(` · `)
		b.t("field.role")
		b.raw(`: `)
		if u.RoleName == "" {
			b.t("role.none")
		} else {
			b.text(u.RoleName)
		}
		b.raw(`</p>`)

		view := data.View
		if len(view.Duplicates) > 0 {
			b.raw(`<p class="notice warning">`)
			b.tf("permissions.duplicates", strings.Join(view.Duplicates, ", "))
			b.raw(`</p>`)
		}
		if len(view.Orphans) > 0 {
			b.raw(`<p class="notice">`)
			b.tf("permissions.orphans", strings.Join(view.Orphans, ", "))
			b.raw(`</p>`)
		}

		b.raw(`<form method="post" class="matrix" action="`)
		b.url(permissionsPath(u.ID))
		b.raw(`"><table class="table"><thead><tr><th>`)
		b.t("field.module")
		b.raw(`</th><th>`)
		b.t("permissions.enabled")
		b.raw(`</th><th>`)
		b.t("field.access")
		b.raw(`</th><th>`)
		b.t("permissions.stored")
		b.raw(`</th></tr></thead><tbody>`)
		for _, e := range view.Entries {
			matrixRow(b, e, !data.CanEdit)
		}
		b.raw(`</tbody></table>`)
		if data.CanEdit {
			b.raw(`<div class="buttons"><button type="submit" class="primary">`)
			b.t("common.save")
			b.raw(`</button></div>`)
		}
		b.raw(`</form>`)

		if data.HistoryEnabled {
			history(b, data.History)
		}
	}))
}

func matrixRow(b *writer, e rbac.AccessEntry, readOnly bool) {
	b.raw(`<tr data-matrix-row><td><input type="hidden" name="`)
	b.text(FieldModule)
	b.raw(`" value="`)
	b.text(e.ModuleCode)
	b.raw(`">`)
	b.text(e.ModuleName)
	b.raw(` <code>`)
	b.text(e.ModuleCode)
	b.raw(`</code>`)
	if rbac.IsAdminModule(e.ModuleCode) {
		b.raw(` <span class="badge">`)
		b.t("modules.admin_only")
		b.raw(`</span>`)
	}
	b.raw(`</td><td><input type="checkbox" value="true" data-matrix-enabled name="`)
	b.text(FieldEnabledPref + e.ModuleCode)
	b.raw(`"`)
	b.checked(e.Enabled)
	b.disabled(readOnly)
	b.raw(`></td><td><select data-matrix-type name="`)
	b.text(FieldTypePref + e.ModuleCode)
	b.raw(`"`)
	b.disabled(readOnly || !e.Enabled)
	b.raw(`>`)
	for _, level := range []rbac.AccessLevel{rbac.LevelReadOnly, rbac.LevelEdit} {
		b.raw(`<option value="`)
		b.text(string(level))
		b.raw(`"`)
		b.selected(e.Type == level || (!e.Enabled && level == rbac.LevelReadOnly))
		b.raw(`>`)
		b.t("level." + string(level))
		b.raw(`</option>`)
	}
	b.raw(`</select></td><td class="muted">`)
	b.text(e.Stored.String())
	b.raw(`</td></tr>`)
}

func history(b *writer, changes []*model.PermissionChange) {
	b.raw(`<h2>`)
	b.t("permissions.history")
	b.raw(`</h2>`)
	if len(changes) == 0 {
		b.raw(`<p class="muted">`)
		b.t("permissions.history_empty")
		b.raw(`</p>`)
		return
	}
	b.raw(`<table class="table history"><thead><tr><th>`)
	b.t("history.when")
	b.raw(`</th><th>`)
	b.t("history.actor")
	b.raw(`</th><th>`)
	b.t("history.reason")
	b.raw(`</th><th>`)
	b.t("history.entries")
	b.raw(`</th></tr></thead><tbody>`)
	for _, c := range changes {
		b.raw(`<tr><td>`)
		b.text(c.CreatedAt.Format("2006-01-02 15:04"))
		b.raw(`</td><td>`)
		b.text(c.Actor)
		b.raw(`</td><td>`)
		b.t("history.reason_" + c.Reason)
		if c.RoleName != "" {
			b.raw(` (`)
			b.text(c.RoleName)
			b.raw(`)`)
		}
		b.raw(`</td><td>`)
		codes := make([]string, 0, len(c.Entries))
		for code := range c.Entries {
			codes = append(codes, code)
		}
		slices.Sort(codes)
		for i, code := range codes {
			if i > 0 {
				b.raw(`, `)
			}
			b.text(code)
			b.raw(`=`)
			b.t("level." + string(rbac.LevelOf(c.Entries[code])))
		}
		b.raw(`</td></tr>`)
	}
	b.raw(`</tbody></table>`)
}
