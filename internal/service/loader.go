package service

import (
	"context"
	"slices"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/bigkaa/accessadmin/internal/domain/model"
)

// Backend — операции внешнего backend, нужные сервисам.
// Реализуется *backend.Client.
type Backend interface {
	ListModules(ctx context.Context) ([]model.Module, error)

	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, input model.UserInput) (*model.User, error)
	UpdateUser(ctx context.Context, id int, input model.UserInput) (*model.User, error)
	DeleteUser(ctx context.Context, id int) error

	ListRoles(ctx context.Context) ([]model.Role, error)
	CreateRole(ctx context.Context, input model.RoleInput) (*model.Role, error)
	UpdateRole(ctx context.Context, id int, input model.RoleInput) (*model.Role, error)
	DeleteRole(ctx context.Context, id int) error

	UserPermissions(ctx context.Context, userID int) ([]model.Permission, error)
	ReplaceUserPermissions(ctx context.Context, userID int, perms []model.Permission) error
	UserModuleAccess(ctx context.Context, userID int) (map[string]model.PermissionType, error)
}

// Loader — чтения backend с объединением одновременных запросов к одному ресурсу.
// Пока загрузка ресурса идёт, повторный запрос того же ключа ждёт её результата,
// а не запускает вторую. Ключи: modules, users, roles, permissions:{id}, access:{id}.
//
// Результаты разделяются между ожидающими: вызывающий не должен изменять срезы.
type Loader struct {
	backend Backend
	group   singleflight.Group
}

// NewLoader создаёт Loader поверх backend.
func NewLoader(b Backend) *Loader {
	return &Loader{backend: b}
}

// Backend возвращает backend для операций записи.
func (l *Loader) Backend() Backend {
	return l.backend
}

// shared выполняет fn с объединением по ключу.
// fn получает контекст без отмены (значения, в том числе токен, сохраняются):
// отмена первого запроса не обрывает загрузку для остальных.
// Каждый вызывающий ждёт результат не дольше своего ctx.
func shared[T any](ctx context.Context, l *Loader, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	detached := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Modules загружает список модулей.
func (l *Loader) Modules(ctx context.Context) ([]model.Module, error) {
	return shared(ctx, l, "modules", func(ctx context.Context) ([]model.Module, error) {
		return l.backend.ListModules(ctx)
	})
}

// Users загружает список пользователей.
func (l *Loader) Users(ctx context.Context) ([]model.User, error) {
	return shared(ctx, l, "users", func(ctx context.Context) ([]model.User, error) {
		return l.backend.ListUsers(ctx)
	})
}

// Roles загружает список ролей.
func (l *Loader) Roles(ctx context.Context) ([]model.Role, error) {
	return shared(ctx, l, "roles", func(ctx context.Context) ([]model.Role, error) {
		return l.backend.ListRoles(ctx)
	})
}

// Permissions загружает сохранённые строки прав пользователя.
func (l *Loader) Permissions(ctx context.Context, userID int) ([]model.Permission, error) {
	return shared(ctx, l, "permissions:"+strconv.Itoa(userID), func(ctx context.Context) ([]model.Permission, error) {
		return l.backend.UserPermissions(ctx, userID)
	})
}

// ModuleAccess загружает карту доступа пользователя для сессии.
func (l *Loader) ModuleAccess(ctx context.Context, userID int) (map[string]model.PermissionType, error) {
	return shared(ctx, l, "access:"+strconv.Itoa(userID), func(ctx context.Context) (map[string]model.PermissionType, error) {
		return l.backend.UserModuleAccess(ctx, userID)
	})
}

// cloneModules копирует снимок, чтобы вызывающий мог его менять.
func cloneModules(m []model.Module) []model.Module {
	return slices.Clone(m)
}
