package pages

import (
	"github.com/a-h/templ"

	"github.com/bigkaa/accessadmin/internal/domain/model"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
)

// RolesData — данные списка ролей.
type RolesData struct {
	Roles   []model.Role
	CanEdit bool
}

// Roles — список ролей. Системные роли защищены от правки и удаления.
func Roles(page Page, data RolesData) templ.Component {
	return Layout(page, component(func(b *writer) {
		b.raw(`<div class="toolbar"><h1>`)
		b.t("roles.heading")
		b.raw(`</h1>`)
		if data.CanEdit {
			b.raw(`<a class="button primary" href="/admin/roles/new">`)
			b.t("roles.create")
			b.raw(`</a>`)
		}
		b.raw(`</div>`)

		if len(data.Roles) == 0 {
			b.raw(`<p class="muted">`)
			b.t("roles.empty")
			b.raw(`</p>`)
			return
		}

		b.raw(`<table class="table"><thead><tr><th>`)
		b.t("field.name")
		b.raw(`</th><th>`)
		b.t("field.description")
		b.raw(`</th><th></th></tr></thead><tbody>`)
		for i := range data.Roles {
			r := &data.Roles[i]
			b.raw(`<tr><td>`)
			b.text(r.Name)
			if rbac.IsSystemRole(r.Name) {
				b.raw(` <span class="badge">`)
				b.t("roles.system")
				b.raw(`</span>`)
			}
			b.raw(`</td><td>`)
			b.text(r.Description)
			b.raw(`</td><td class="actions">`)
			if data.CanEdit && rbac.CanEditRole(r) {
				b.raw(`<a href="`)
				b.url(rolePath(r.ID, "/edit"))
				b.raw(`">`)
				b.t("common.edit")
				b.raw(`</a><a class="danger" href="`)
				b.url(rolePath(r.ID, "/delete"))
				b.raw(`">`)
				b.t("common.delete")
				b.raw(`</a>`)
			}
			b.raw(`</td></tr>`)
		}
		b.raw(`</tbody></table>`)
	}))
}

// RoleFormData — данные формы роли.
type RoleFormData struct {
	// ID == 0 — создание
	ID     int
	Input  model.RoleInput
	Errors []string
}

// RoleForm — форма создания и редактирования роли.
func RoleForm(page Page, data RoleFormData) templ.Component {
	return Layout(page, component(func(b *writer) {
		creating := data.ID == 0
		b.raw(`<h1>`)
		if creating {
			b.t("roles.create")
		} else {
			b.t("roles.edit")
		}
		b.raw(`</h1>`)
		errorList(b, data.Errors)

		b.raw(`<form method="post" class="stack" action="`)
		if creating {
			b.url("/admin/roles")
		} else {
			b.url(rolePath(data.ID, ""))
		}
		b.raw(`"><label>`)
		b.t("field.name")
		b.raw(`<input name="name" required value="`)
		b.text(data.Input.Name)
		b.raw(`"></label><label>`)
		b.t("field.description")
		b.raw(`<textarea name="description" rows="3">`)
		b.text(data.Input.Description)
		b.raw(`</textarea></label><div class="buttons"><button type="submit" class="primary">`)
		b.t("common.save")
		b.raw(`</button><a href="/admin/roles">`)
		b.t("common.cancel")
		b.raw(`</a></div></form>`)
	}))
}

// RoleDeleteData — подтверждение удаления роли с числом затронутых пользователей.
type RoleDeleteData struct {
	Role          model.Role
	AffectedUsers int
}

// RoleDelete — страница подтверждения удаления роли.
func RoleDelete(page Page, data RoleDeleteData) templ.Component {
	return Layout(page, component(func(b *writer) {
		b.raw(`<h1>`)
		b.tf("roles.delete_heading", data.Role.Name)
		b.raw(`</h1>`)
		if data.AffectedUsers > 0 {
			b.raw(`<p class="notice warning">`)
			b.tf("roles.delete_impact", data.AffectedUsers)
			b.raw(`</p>`)
		} else {
			b.raw(`<p>`)
			b.t("roles.delete_no_impact")
			b.raw(`</p>`)
		}
		b.raw(`<form method="post" action="`)
		b.url(rolePath(data.Role.ID, "/delete"))
		b.raw(`" class="buttons"><button type="submit" class="danger">`)
		b.t("common.delete")
		b.raw(`</button><a href="/admin/roles">`)
		b.t("common.cancel")
		b.raw(`</a></form>`)
	}))
}
