package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bigkaa/accessadmin/internal/domain/model"
)

// ListRoles возвращает все роли.
func (c *Client) ListRoles(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := c.doAuthorized(ctx, http.MethodGet, "/Roles", nil, &roles); err != nil {
		return nil, fmt.Errorf("список ролей: %w", err)
	}
	return roles, nil
}

// CreateRole создаёт роль.
func (c *Client) CreateRole(ctx context.Context, input model.RoleInput) (*model.Role, error) {
	var role model.Role
	if err := c.doAuthorized(ctx, http.MethodPost, "/Roles", input, &role); err != nil {
		return nil, fmt.Errorf("создание роли %q: %w", input.Name, err)
	}
	return &role, nil
}

// UpdateRole переименовывает роль или меняет описание.
func (c *Client) UpdateRole(ctx context.Context, id int, input model.RoleInput) (*model.Role, error) {
	var role model.Role
	if err := c.doAuthorized(ctx, http.MethodPut, fmt.Sprintf("/Roles/%d", id), input, &role); err != nil {
		return nil, fmt.Errorf("обновление роли %d: %w", id, err)
	}
	if role.ID == 0 {
		role.ID = id
	}
	return &role, nil
}

// DeleteRole удаляет роль. Пользователей роли backend переводит в «без назначения».
func (c *Client) DeleteRole(ctx context.Context, id int) error {
	if err := c.doAuthorized(ctx, http.MethodDelete, fmt.Sprintf("/Roles/%d", id), nil, nil); err != nil {
		return fmt.Errorf("удаление роли %d: %w", id, err)
	}
	return nil
}
