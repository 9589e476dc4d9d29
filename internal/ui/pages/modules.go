package pages

import (
	"time"

	"github.com/a-h/templ"

	"github.com/bigkaa/accessadmin/internal/domain/model"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
)

// ModulesData — данные страницы реестра модулей.
type ModulesData struct {
	Modules  []model.Module
	LoadedAt time.Time
	CanEdit  bool
}

// Modules — реестр модулей backend с перезагрузкой.
func Modules(page Page, data ModulesData) templ.Component {
	return Layout(page, component(func(b *writer) {
		b.raw(`<div class="toolbar"><h1>`)
		b.t("modules.heading")
		b.raw(`</h1>`)
		if data.CanEdit {
			b.raw(`<form method="post" action="/admin/modules/reload" class="inline"><button type="submit">`)
			b.t("modules.reload")
			b.raw(`</button></form>`)
		}
		b.raw(`</div>`)
		if !data.LoadedAt.IsZero() {
			b.raw(`<p class="muted">`)
			b.tf("modules.loaded_at", data.LoadedAt.Format("2006-01-02 15:04:05"))
			b.raw(`</p>`)
		}

		b.raw(`<table class="table"><thead><tr><th>ID</th><th>`)
		b.t("field.code")
		b.raw(`</th><th>`)
		b.t("field.name")
		b.raw(`</th><th>`)
		b.t("field.status")
		b.raw(`</th><th></th></tr></thead><tbody>`)
		for _, m := range data.Modules {
			b.raw(`<tr`)
			if !m.IsActive {
				b.raw(` class="inactive"`)
			}
			b.raw(`><td>`)
			b.int(m.ID)
			b.raw(`</td><td><code>`)
			b.text(m.Code)
			b.raw(`</code></td><td>`)
			b.text(m.Name)
			b.raw(`</td><td>`)
			if m.IsActive {
				b.t("status.active")
			} else {
				b.t("status.inactive")
			}
			b.raw(`</td><td>`)
			if rbac.IsAdminModule(m.Code) {
				b.raw(`<span class="badge">`)
				b.t("modules.admin_only")
				b.raw(`</span>`)
			}
			b.raw(`</td></tr>`)
		}
		b.raw(`</tbody></table>`)
	}))
}
