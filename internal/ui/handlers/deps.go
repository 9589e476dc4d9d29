// Пакет handlers — HTTP-обработчики страниц консоли.
// deps.go — зависимости обработчиков от сервисного слоя.
package handlers

import (
	"context"
	"time"

	"github.com/bigkaa/accessadmin/internal/backend"
	"github.com/bigkaa/accessadmin/internal/domain/model"
	"github.com/bigkaa/accessadmin/internal/domain/rbac"
	"github.com/bigkaa/accessadmin/internal/service"
)

// Authenticator — вход и сброс пароля.
// Реализуется *service.AuthService.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*backend.LoginResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input backend.ResetPasswordInput) error
}

// TokenExpiry — срок действия токена backend.
// Реализуется *auth.TokenVerifier.
type TokenExpiry interface {
	Expiry(ctx context.Context, token string) (time.Time, error)
}

// ModuleRegistry — реестр модулей.
// Реализуется *service.ModuleRegistry.
type ModuleRegistry interface {
	Modules(ctx context.Context) ([]model.Module, error)
	Active(ctx context.Context) ([]model.Module, error)
	Reload(ctx context.Context) ([]model.Module, error)
	LoadedAt() time.Time
}

// UserDirectory — пользователи и роли.
// Реализуется *service.Directory.
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id int) (*model.User, error)
	SearchUsersByEmail(ctx context.Context, query string, limit int) ([]model.User, error)
	CreateUser(ctx context.Context, actor string, input model.UserInput) (*service.UserChange, error)
	UpdateUser(ctx context.Context, actor string, id int, input model.UserInput) (*service.UserChange, error)
	SetUserActive(ctx context.Context, actor string, id int, active bool) (*model.User, error)
	DeleteUser(ctx context.Context, actor string, id int) error

	ListRoles(ctx context.Context) ([]model.Role, error)
	GetRole(ctx context.Context, id int) (*model.Role, error)
	CreateRole(ctx context.Context, actor string, input model.RoleInput) (*model.Role, error)
	UpdateRole(ctx context.Context, actor string, id int, input model.RoleInput) (*model.Role, error)
	RoleDeletionImpact(ctx context.Context, id int) (*service.RoleDeletionImpact, error)
	DeleteRole(ctx context.Context, actor string, id int) error
}

// PermissionMatrix — матрица прав пользователя.
// Реализуется *service.PermissionService.
type PermissionMatrix interface {
	View(ctx context.Context, userID int) (*rbac.AccessView, error)
	Save(ctx context.Context, actor string, userID int, edits map[string]rbac.Effective) (*rbac.AccessView, error)
	History(ctx context.Context, userID, limit int) ([]*model.PermissionChange, error)
	HistoryEnabled() bool
}
