// session.go — аутентификация JSON API по cookie сессии консоли.
// В отличие от страниц, API не перенаправляет: 401 и 403 в конверте.
package middleware

import (
	"net/http"

	apierrors "github.com/bigkaa/accessadmin/internal/api/errors"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
	"github.com/bigkaa/accessadmin/internal/ui/auth"
)

// Authenticator — проверка сессии запроса.
// Реализуется *uimiddleware.UIAuth.
type Authenticator interface {
	Authenticate(w http.ResponseWriter, r *http.Request) (*http.Request, *auth.Principal, error)
}

// RequireSession пропускает только запросы с действующей сессией.
func RequireSession(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, _, err := a.Authenticate(w, r)
			if err != nil {
				apierrors.Unauthorized(w, "требуется вход в консоль")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireModuleJSON пропускает запрос при доступе к модулю, иначе 403.
// levels — допустимые уровни (пусто — любой доступ).
func RequireModuleJSON(moduleCode string, levels ...rbac.AccessLevel) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := auth.PrincipalFromContext(r.Context())
			if p == nil {
				apierrors.Unauthorized(w, "требуется вход в консоль")
				return
			}
			if !p.Access.Allows(moduleCode, levels...) {
				apierrors.Forbidden(w, "нет доступа к модулю "+moduleCode)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
