package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bigkaa/accessadmin/internal/domain/model"
)

// LoginResult — ответ POST /Users/login.
type LoginResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// ResetPasswordInput — тело POST /Users/reset-password.
type ResetPasswordInput struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// --- Аутентификация ---

// Login выполняет вход по email и паролю. Публичный endpoint.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "/Users/login", "", body, &result); err != nil {
		return nil, fmt.Errorf("вход %s: %w", email, err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("вход %s: backend не вернул токен", email)
	}
	return &result, nil
}

// ForgotPassword запрашивает письмо для сброса пароля. Публичный endpoint.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	if err := c.do(ctx, http.MethodPost, "/Users/forgot-password", "", body, nil); err != nil {
		return fmt.Errorf("запрос сброса пароля: %w", err)
	}
	return nil
}

// ResetPassword устанавливает новый пароль по токену из письма. Публичный endpoint.
func (c *Client) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if err := c.do(ctx, http.MethodPost, "/Users/reset-password", "", input, nil); err != nil {
		return fmt.Errorf("сброс пароля: %w", err)
	}
	return nil
}

// --- Users API ---

// ListUsers возвращает всех пользователей (удалённые backend не отдаёт).
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.doAuthorized(ctx, http.MethodGet, "/Users", nil, &users); err != nil {
		return nil, fmt.Errorf("список пользователей: %w", err)
	}
	return users, nil
}

// CreateUser создаёт пользователя и возвращает его с назначенным id.
func (c *Client) CreateUser(ctx context.Context, input model.UserInput) (*model.User, error) {
	var user model.User
	if err := c.doAuthorized(ctx, http.MethodPost, "/Users", input, &user); err != nil {
		return nil, fmt.Errorf("создание пользователя %s: %w", input.Email, err)
	}
	return &user, nil
}

// UpdateUser обновляет пользователя (включая роль и активность).
func (c *Client) UpdateUser(ctx context.Context, id int, input model.UserInput) (*model.User, error) {
	var user model.User
	if err := c.doAuthorized(ctx, http.MethodPut, fmt.Sprintf("/Users/%d", id), input, &user); err != nil {
		return nil, fmt.Errorf("обновление пользователя %d: %w", id, err)
	}
	if user.ID == 0 {
		user.ID = id
	}
	return &user, nil
}

// DeleteUser выполняет мягкое удаление пользователя.
func (c *Client) DeleteUser(ctx context.Context, id int) error {
	if err := c.doAuthorized(ctx, http.MethodDelete, fmt.Sprintf("/Users/%d", id), nil, nil); err != nil {
		return fmt.Errorf("удаление пользователя %d: %w", id, err)
	}
	return nil
}
