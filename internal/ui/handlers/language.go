// language.go — переключение языка интерфейса.
package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bigkaa/accessadmin/internal/ui/i18n"
)

// HandleSetLanguage — POST /admin/set-language.
// Сохраняет cookie "lang" и возвращает на предыдущую страницу консоли.
func HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if i18n.IsSupported(lang) {
		http.SetCookie(w, &http.Cookie{
			Name:     i18n.LangCookieName,
			Value:    lang,
			Path:     "/",
			MaxAge:   365 * 24 * 60 * 60,
			HttpOnly: false,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(365 * 24 * time.Hour),
		})
	}
	http.Redirect(w, r, backTarget(r.Header.Get("Referer")), http.StatusSeeOther)
}

// backTarget — путь из Referer, только внутри /admin.
func backTarget(referer string) string {
	u, err := url.Parse(referer)
	if err != nil || !strings.HasPrefix(u.Path, "/admin") {
		return "/admin/"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
