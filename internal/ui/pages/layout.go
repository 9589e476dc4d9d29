package pages

import (
	"github.com/a-h/templ"

	"github.com/bigkaa/accessadmin/internal/domain/rbac"
	"github.com/bigkaa/accessadmin/internal/ui/auth"
	"github.com/bigkaa/accessadmin/internal/ui/i18n"
)

// Flash — уведомление, показываемое один раз после redirect.
type Flash struct {
	// Kind — success, warning или error
	Kind    string `json:"k"`
	Message string `json:"m"`
}

// Page — общие данные страницы.
type Page struct {
	// Title — ключ перевода заголовка
	Title string
	Flash *Flash
}

// navItem — пункт меню, видимый при доступе к модулю.
type navItem struct {
	href   string
	label  string
	module string
}

var navItems = []navItem{
	{"/admin/", "nav.dashboard", ""},
	{"/admin/users", "nav.users", rbac.ModuleUsers},
	{"/admin/roles", "nav.roles", rbac.ModuleRoles},
	{"/admin/modules", "nav.modules", rbac.ModuleModules},
	{"/admin/permissions", "nav.permissions", rbac.ModulePermissions},
}

// Layout — каркас страницы консоли с меню по карте доступа.
func Layout(page Page, body templ.Component) templ.Component {
	return component(func(b *writer) {
		head(b, page.Title)
		b.raw(`<body><header class="topbar"><span class="brand">`)
		b.t("app.title")
		b.raw(`</span>`)

		p := auth.PrincipalFromContext(b.ctx)
		if p != nil {
			b.raw(`<nav class="nav">`)
			for _, item := range navItems {
				if item.module != "" && !p.Access.Allows(item.module) {
					continue
				}
				b.raw(`<a href="`)
				b.url(item.href)
				b.raw(`">`)
				b.t(item.label)
				b.raw(`</a>`)
			}
			b.raw(`</nav><div class="whoami"><span>`)
			b.text(p.Session.FullName)
			if p.Session.RoleName != "" {
				b.raw(` <small>(`)
				b.text(p.Session.RoleName)
				b.raw(`)</small>`)
			}
			b.raw(`</span>`)
			languageSwitch(b)
			b.raw(`<form method="post" action="/admin/logout" class="inline"><button type="submit" class="link">`)
			b.t("nav.logout")
			b.raw(`</button></form></div>`)
		} else {
			languageSwitch(b)
		}
		b.raw(`</header><main class="content">`)
		flash(b, page.Flash)
		b.component(body)
		b.raw(`</main></body></html>`)
	})
}

// AuthLayout — каркас страниц входа и сброса пароля (без меню).
func AuthLayout(page Page, body templ.Component) templ.Component {
	return component(func(b *writer) {
		head(b, page.Title)
		b.raw(`<body class="auth"><main class="auth-box"><h1>`)
		b.t("app.title")
		b.raw(`</h1>`)
		flash(b, page.Flash)
		b.component(body)
		languageSwitch(b)
		b.raw(`</main></body></html>`)
	})
}

func head(b *writer, title string) {
	b.raw(`<!DOCTYPE html><html lang="`)
	b.text(i18n.LangFromContext(b.ctx))
	b.raw(`"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
	b.t(title)
	b.raw(` · `)
	b.t("app.title")
	b.raw(`</title><link rel="stylesheet" href="/static/css/app.css"><script src="/static/js/app.js" defer></script></head>`)
}

func languageSwitch(b *writer) {
	current := i18n.LangFromContext(b.ctx)
	b.raw(`<form method="post" action="/admin/set-language" class="inline lang">`)
	for _, lang := range []string{i18n.LangES, i18n.LangEN} {
		b.raw(`<button type="submit" name="lang" value="`)
		b.text(lang)
		b.raw(`"`)
		b.disabled(lang == current)
		b.raw(`>`)
		b.text(lang)
		b.raw(`</button>`)
	}
	b.raw(`</form>`)
}

func flash(b *writer, f *Flash) {
	if f == nil || f.Message == "" {
		return
	}
	b.raw(`<div class="flash flash-`)
	b.text(f.Kind)
	b.raw(`" role="alert"><span>`)
	b.text(f.Message)
	b.raw(`</span><button type="button" class="dismiss" data-dismiss aria-label="close">&times;</button></div>`)
}

// errorList — список ошибок формы.
func errorList(b *writer, errs []string) {
	if len(errs) == 0 {
		return
	}
	b.raw(`<ul class="errors">`)
	for _, e := range errs {
		b.raw(`<li>`)
		b.text(e)
		b.raw(`</li>`)
	}
	b.raw(`</ul>`)
}
