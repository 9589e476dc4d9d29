package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bigkaa/accessadmin/internal/backend"
)

// ErrInvalidCredentials — backend отклонил email или пароль.
var ErrInvalidCredentials = errors.New("неверный email или пароль")

// AuthBackend — публичные операции входа backend.
// Реализуется *backend.Client.
type AuthBackend interface {
	Login(ctx context.Context, email, password string) (*backend.LoginResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input backend.ResetPasswordInput) error
}

// AuthService — вход администратора и сброс пароля.
type AuthService struct {
	backend AuthBackend
	logger  *slog.Logger
}

// NewAuthService создаёт сервис входа.
func NewAuthService(b AuthBackend, logger *slog.Logger) *AuthService {
	return &AuthService{
		backend: b,
		logger:  logger.With(slog.String("component", "auth_service")),
	}
}

// Login проверяет учётные данные в backend.
// Неактивный пользователь не может войти.
func (s *AuthService) Login(ctx context.Context, email, password string) (*backend.LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, validationErr("email и пароль обязательны")
	}

	result, err := s.backend.Login(ctx, email, password)
	if err != nil {
		if backend.IsStatus(err, http.StatusUnauthorized) || backend.IsStatus(err, http.StatusBadRequest) {
			s.logger.Info("Неудачный вход", slog.String("email", email))
			return nil, ErrInvalidCredentials
		}
		return nil, backendErr("вход", err)
	}
	if !result.User.IsActive {
		s.logger.Info("Вход неактивного пользователя отклонён", slog.String("email", email))
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("Вход выполнен",
		slog.Int("user_id", result.User.ID),
		slog.String("email", email),
	)
	return result, nil
}

// ForgotPassword запрашивает письмо для сброса пароля.
// Ответ backend о несуществующем email не раскрывается.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return validationErr("email обязателен")
	}

	if err := s.backend.ForgotPassword(ctx, email); err != nil {
		if backend.IsStatus(err, http.StatusNotFound) {
			return nil
		}
		return backendErr("запрос сброса пароля", err)
	}
	return nil
}

// ResetPassword устанавливает новый пароль по токену из письма.
func (s *AuthService) ResetPassword(ctx context.Context, input backend.ResetPasswordInput) error {
	switch {
	case strings.TrimSpace(input.Token) == "":
		return validationErr("отсутствует токен сброса")
	case len(input.NewPassword) < 8:
		return validationErr("пароль короче 8 символов")
	case input.NewPassword != input.ConfirmPassword:
		return validationErr("пароли не совпадают")
	}

	if err := s.backend.ResetPassword(ctx, input); err != nil {
		return backendErr("сброс пароля", err)
	}
	return nil
}
