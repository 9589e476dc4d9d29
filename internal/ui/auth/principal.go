package auth

import (
	"context"

	"github.com/bigkaa/accessadmin/internal/domain/rbac"
)

// Access — карта доступа пользователя на время запроса:
// канонический код модуля → уровень.
type Access map[string]rbac.AccessLevel

// Allows проверяет навигацию к модулю (пустой required — любой доступ).
func (a Access) Allows(moduleCode string, required ...rbac.AccessLevel) bool {
	return rbac.IsAllowed(a, moduleCode, required...)
}

// CanEdit — доступ к модулю на редактирование.
func (a Access) CanEdit(moduleCode string) bool {
	return a.Allows(moduleCode, rbac.LevelEdit)
}

// Principal — пользователь запроса: сессия и разрешённая карта доступа.
type Principal struct {
	Session *SessionData
	Access  Access
}

type principalKey struct{}

// WithPrincipal помещает принципала в контекст.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext извлекает принципала из контекста.
// Возвращает nil если запрос не прошёл через middleware аутентификации.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
