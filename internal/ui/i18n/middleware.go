// middleware.go — определение языка пользователя.
package i18n

import (
	"net/http"
)

// LangCookieName — имя cookie выбранного языка.
const LangCookieName = "lang"

// Middleware помещает язык запроса в контекст.
// Приоритет: cookie "lang" → Accept-Language → язык по умолчанию Bundle.
func Middleware(bundle *Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLang(r.Context(), bundle.detectLanguage(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (b *Bundle) detectLanguage(r *http.Request) string {
	if cookie, err := r.Cookie(LangCookieName); err == nil && IsSupported(cookie.Value) {
		return cookie.Value
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		return b.MatchLanguage(accept)
	}
	return b.defaultLang
}
