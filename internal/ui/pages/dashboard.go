package pages

import (
	"github.com/a-h/templ"

	"github.com/bigkaa/accessadmin/internal/domain/rbac"
)

// DashboardModule — модуль, доступный текущему пользователю.
type DashboardModule struct {
	Code  string
	Name  string
	Level rbac.AccessLevel
}

// DashboardData — данные главной страницы.
type DashboardData struct {
	FullName string
	RoleName string
	IsAdmin  bool
	Modules  []DashboardModule
	// ModulesError — реестр модулей не загрузился
	ModulesError bool
}

// Dashboard — главная страница: профиль и доступные модули.
func Dashboard(page Page, data DashboardData) templ.Component {
	return Layout(page, component(func(b *writer) {
		b.raw(`<h1>`)
		b.tf("dashboard.welcome", data.FullName)
		b.raw(`</h1><p>`)
		b.t("field.role")
		b.raw(`: <strong>`)
		if data.RoleName == "" {
			b.t("role.none")
		} else {
			b.text(data.RoleName)
		}
		b.raw(`</strong>`)
		if data.IsAdmin {
			b.raw(` <span class="badge">`)
			b.t("role.admin_badge")
			b.raw(`</span>`)
		}
		b.raw(`</p><h2>`)
		b.t("dashboard.modules")
		b.raw(`</h2>`)

		switch {
		case data.ModulesError:
			b.raw(`<p class="notice warning">`)
			b.t("error.modules_unavailable")
			b.raw(`</p>`)
		case len(data.Modules) == 0:
			b.raw(`<p class="muted">`)
			b.t("dashboard.no_modules")
			b.raw(`</p>`)
		default:
			b.raw(`<table class="table"><thead><tr><th>`)
			b.t("field.code")
			b.raw(`</th><th>`)
			b.t("field.name")
			b.raw(`</th><th>`)
			b.t("field.access")
			b.raw(`</th></tr></thead><tbody>`)
			for _, m := range data.Modules {
				b.raw(`<tr><td><code>`)
				b.text(m.Code)
				b.raw(`</code></td><td>`)
				b.text(m.Name)
				b.raw(`</td><td>`)
				levelBadge(b, m.Level)
				b.raw(`</td></tr>`)
			}
			b.raw(`</tbody></table>`)
		}
	}))
}

// NoAccess — страница отказа навигации.
func NoAccess(page Page) templ.Component {
	return Layout(page, component(func(b *writer) {
		b.raw(`<h1>`)
		b.t("noaccess.heading")
		b.raw(`</h1><p>`)
		b.t("noaccess.text")
		b.raw(`</p><p><a href="/admin/">`)
		b.t("common.back_to_dashboard")
		b.raw(`</a></p>`)
	}))
}

func levelBadge(b *writer, level rbac.AccessLevel) {
	b.raw(`<span class="level level-`)
	b.text(string(level))
	b.raw(`">`)
	b.t("level." + string(level))
	b.raw(`</span>`)
}
