// Пакет middleware — HTTP middleware консоли.
// auth.go — проверка сессии (cookie), разрешение карты доступа и проверка навигации.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bigkaa/accessadmin/internal/backend"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
	"github.com/bigkaa/accessadmin/internal/ui/auth"
)

// Пути перенаправления.
const (
	LoginPath    = "/admin/login"
	NoAccessPath = "/admin/no-access"
)

// ErrNoSession — в запросе нет действующей сессии.
var ErrNoSession = errors.New("нет действующей сессии")

// AccessResolver — источник карты доступа пользователя.
// Реализуется *service.PermissionService.
type AccessResolver interface {
	SessionAccess(ctx context.Context, userID int) (map[string]rbac.AccessLevel, error)
}

// UIAuth — аутентификация по зашифрованному cookie.
// Для каждого запроса разрешает карту доступа и кладёт в контекст принципала
// и токен backend.
type UIAuth struct {
	sessions *auth.SessionManager
	access   AccessResolver
	logger   *slog.Logger
}

// NewUIAuth создаёт middleware аутентификации.
func NewUIAuth(sessions *auth.SessionManager, access AccessResolver, logger *slog.Logger) *UIAuth {
	return &UIAuth{
		sessions: sessions,
		access:   access,
		logger:   logger.With(slog.String("component", "ui_auth_middleware")),
	}
}

// Authenticate читает сессию и разрешает карту доступа.
// Возвращает запрос с принципалом и токеном в контексте.
// Повреждённый или истёкший cookie очищается.
func (ua *UIAuth) Authenticate(w http.ResponseWriter, r *http.Request) (*http.Request, *auth.Principal, error) {
	session, err := ua.sessions.GetSessionFromRequest(r)
	if err != nil {
		ua.logger.Debug("Ошибка чтения сессии",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr),
		)
		ua.sessions.ClearSessionCookie(w)
		return r, nil, ErrNoSession
	}
	if session == nil {
		return r, nil, ErrNoSession
	}
	if session.IsExpired() {
		ua.logger.Info("Сессия истекла", slog.String("email", session.Email))
		ua.sessions.ClearSessionCookie(w)
		return r, nil, ErrNoSession
	}

	ctx := backend.WithToken(r.Context(), session.Token)

	levels, err := ua.access.SessionAccess(ctx, session.UserID)
	if err != nil {
		if backend.IsStatus(err, http.StatusUnauthorized) {
			ua.logger.Info("Backend отклонил токен сессии", slog.String("email", session.Email))
			ua.sessions.ClearSessionCookie(w)
			return r, nil, ErrNoSession
		}
		// Без карты доступа навигация закрыта, сессия сохраняется
		ua.logger.Warn("Не удалось получить карту доступа",
			slog.Int("user_id", session.UserID),
			slog.String("error", err.Error()),
		)
		levels = nil
	}

	principal := &auth.Principal{Session: session, Access: auth.Access(levels)}
	return r.WithContext(auth.WithPrincipal(ctx, principal)), principal, nil
}

// Middleware возвращает HTTP middleware для страниц консоли.
// Без сессии — redirect на /admin/login.
func (ua *UIAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, _, err := ua.Authenticate(w, r)
			if err != nil {
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireModule пропускает запрос, если у пользователя есть доступ к модулю.
// levels — допустимые уровни (пусто — любой доступ). Иначе redirect на /admin/no-access.
func RequireModule(moduleCode string, levels ...rbac.AccessLevel) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := auth.PrincipalFromContext(r.Context())
			if p == nil {
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}
			if !p.Access.Allows(moduleCode, levels...) {
				http.Redirect(w, r, NoAccessPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
