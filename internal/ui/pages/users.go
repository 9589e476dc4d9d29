package pages

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/accessadmin/internal/domain/model"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
)

// UsersData — данные списка пользователей.
type UsersData struct {
	Users []model.User
	Query string
	// CanEdit — уровень edit на модуль users
	CanEdit bool
	// CanManagePermissions — доступ к матрице прав
	CanManagePermissions bool
}

// Users — список пользователей с поиском по email.
func Users(page Page, data UsersData) templ.Component {
	return Layout(page, component(func(b *writer) {
		b.raw(`<div class="toolbar"><h1>`)
		b.t("users.heading")
		b.raw(`</h1>`)
		if data.CanEdit {
			b.raw(`<a class="button primary" href="/admin/users/new">`)
			b.t("users.create")
			b.raw(`</a>`)
		}
		b.raw(`</div><form method="get" action="/admin/users" class="search"><input type="search" name="q" value="`)
		b.text(data.Query)
		b.raw(`" placeholder="`)
		b.t("users.search_placeholder")
		b.raw(`"><button type="submit">`)
		b.t("common.search")
		b.raw(`</button></form>`)

		if len(data.Users) == 0 {
			b.raw(`<p class="muted">`)
			b.t("users.empty")
			b.raw(`</p>`)
			return
		}

		b.raw(`<table class="table"><thead><tr><th>`)
		b.t("field.name")
		b.raw(`</th><th>`)
		b.t("field.email")
		b.raw(`</th><th>`)
		b.t("field.role")
		b.raw(`</th><th>`)
		b.t("field.status")
		b.raw(`</th><th></th></tr></thead><tbody>`)
		for i := range data.Users {
			userRow(b, &data.Users[i], data)
		}
		b.raw(`</tbody></table>`)
	}))
}

func userRow(b *writer, u *model.User, data UsersData) {
	b.raw(`<tr`)
	if !u.IsActive {
		b.raw(` class="inactive"`)
	}
	b.raw(`><td>`)
	b.text(u.FullName())
	b.raw(`</td><td>`)
	b.text(u.Email)
	b.raw(`</td><td>`)
	if u.RoleName == "" {
		b.raw(`<span class="muted">`)
		b.t("role.none")
		b.raw(`</span>`)
	} else {
		b.text(u.RoleName)
	}
	b.raw(`</td><td>`)
	if u.IsActive {
		b.t("status.active")
	} else {
		b.t("status.inactive")
	}
	b.raw(`</td><td class="actions">`)

	if data.CanManagePermissions {
		b.raw(`<a href="`)
		b.url(permissionsPath(u.ID))
		b.raw(`">`)
		b.t("users.permissions")
		b.raw(`</a>`)
	}
	if data.CanEdit {
		b.raw(`<a href="`)
		b.url(userPath(u.ID, "/edit"))
		b.raw(`">`)
		b.t("common.edit")
		b.raw(`</a>`)

		// Администратора нельзя деактивировать и удалить: кнопки неактивны
		protected := !rbac.CanDeactivateUser(u.RoleName)
		b.raw(`<form method="post" class="inline" action="`)
		if u.IsActive {
			b.url(userPath(u.ID, "/deactivate"))
		} else {
			b.url(userPath(u.ID, "/activate"))
		}
		b.raw(`"><button type="submit"`)
		b.disabled(u.IsActive && protected)
		b.raw(`>`)
		if u.IsActive {
			b.t("users.deactivate")
		} else {
			b.t("users.activate")
		}
		b.raw(`</button></form><form method="post" class="inline" action="`)
		b.url(userPath(u.ID, "/delete"))
		b.raw(`" data-confirm="`)
		b.tf("users.delete_confirm", u.Email)
		b.raw(`"><button type="submit" class="danger"`)
		b.disabled(!rbac.CanDeleteUser(u.RoleName))
		b.raw(`>`)
		b.t("common.delete")
		b.raw(`</button></form>`)
	}
	b.raw(`</td></tr>`)
}

// UserFormData — данные формы создания и редактирования пользователя.
type UserFormData struct {
	// ID == 0 — создание
	ID     int
	Input  model.UserInput
	Roles  []model.Role
	Errors []string
}

// UserForm — форма пользователя.
func UserForm(page Page, data UserFormData) templ.Component {
	return Layout(page, component(func(b *writer) {
		creating := data.ID == 0
		b.raw(`<h1>`)
		if creating {
			b.t("users.create")
		} else {
			b.t("users.edit")
		}
		b.raw(`</h1>`)
		errorList(b, data.Errors)

		b.raw(`<form method="post" class="stack" action="`)
		if creating {
			b.url("/admin/users")
		} else {
			b.url(userPath(data.ID, ""))
		}
		b.raw(`"><label>`)
		b.t("field.first_name")
		b.raw(`<input name="firstName" required value="`)
		b.text(data.Input.FirstName)
		b.raw(`"></label><label>`)
		b.t("field.last_name")
		b.raw(`<input name="lastName" required value="`)
		b.text(data.Input.LastName)
		b.raw(`"></label><label>`)
		b.t("field.email")
		b.raw(`<input type="email" name="email" required value="`)
		b.text(data.Input.Email)
		b.raw(`"></label>`)
		if creating {
			b.raw(`<label>`)
			b.t("field.password")
			b.raw(`<input type="password" name="password" required minlength="8" autocomplete="new-password"></label>`)
		}
		b.raw(`<label>`)
		b.t("field.role")
		b.raw(`<select name="roleId"><option value="0"`)
		b.selected(data.Input.RoleID == 0)
		b.raw(`>`)
		b.t("role.none")
		b.raw(`</option>`)
		for _, r := range data.Roles {
			b.raw(`<option value="`)
			b.raw(strconv.Itoa(r.ID))
			b.raw(`"`)
			b.selected(r.ID == data.Input.RoleID)
			b.raw(`>`)
			b.text(r.Name)
			b.raw(`</option>`)
		}
		b.raw(`</select></label><p class="hint">`)
		b.t("users.role_hint")
		b.raw(`</p><label class="check"><input type="checkbox" name="isActive" value="true"`)
		b.checked(data.Input.IsActive)
		b.raw(`>`)
		b.t("status.active")
		b.raw(`</label><div class="buttons"><button type="submit" class="primary">`)
		b.t("common.save")
		b.raw(`</button><a href="/admin/users">`)
		b.t("common.cancel")
		b.raw(`</a></div></form>`)
	}))
}
