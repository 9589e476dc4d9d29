package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bigkaa/accessadmin/internal/domain/model"
)

// ListModules возвращает все модули в порядке backend.
func (c *Client) ListModules(ctx context.Context) ([]model.Module, error) {
	var modules []model.Module
	if err := c.doAuthorized(ctx, http.MethodGet, "/Permissions/modules", nil, &modules); err != nil {
		return nil, fmt.Errorf("список модулей: %w", err)
	}
	return modules, nil
}

// UserPermissions возвращает сохранённые строки прав пользователя (разреженный набор).
func (c *Client) UserPermissions(ctx context.Context, userID int) ([]model.Permission, error) {
	var perms []model.Permission
	path := fmt.Sprintf("/Permissions/users/%d", userID)
	if err := c.doAuthorized(ctx, http.MethodGet, path, nil, &perms); err != nil {
		return nil, fmt.Errorf("права пользователя %d: %w", userID, err)
	}
	return perms, nil
}

// ReplaceUserPermissions заменяет набор прав пользователя целиком одним запросом.
func (c *Client) ReplaceUserPermissions(ctx context.Context, userID int, perms []model.Permission) error {
	body := make([]model.PermissionUpdate, 0, len(perms))
	for _, p := range perms {
		body = append(body, p.ToUpdate())
	}

	path := fmt.Sprintf("/Permissions/users/%d", userID)
	if err := c.doAuthorized(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("замена прав пользователя %d: %w", userID, err)
	}
	return nil
}

// UserModuleAccess возвращает карту «код модуля → уровень» для старта сессии.
func (c *Client) UserModuleAccess(ctx context.Context, userID int) (map[string]model.PermissionType, error) {
	access := make(map[string]model.PermissionType)
	path := fmt.Sprintf("/Permissions/users/%d/modules", userID)
	if err := c.doAuthorized(ctx, http.MethodGet, path, nil, &access); err != nil {
		return nil, fmt.Errorf("доступ пользователя %d к модулям: %w", userID, err)
	}
	return access, nil
}
