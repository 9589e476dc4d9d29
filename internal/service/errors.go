// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bigkaa/accessadmin/internal/backend"
)

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrBackendUnavailable — внешний backend не ответил.
	ErrBackendUnavailable = errors.New("backend недоступен")
	// ErrPropagationAborted — распространение прав после смены роли не выполнено.
	ErrPropagationAborted = errors.New("распространение прав прервано")
)

// backendErr добавляет к ошибке backend сервисный sentinel:
// транспортная ошибка → ErrBackendUnavailable, 404 → ErrNotFound.
// *backend.APIError остаётся доступен через errors.As.
func backendErr(op string, err error) error {
	switch {
	case errors.Is(err, backend.ErrTransport):
		return fmt.Errorf("%s: %w: %w", op, ErrBackendUnavailable, err)
	case backend.IsStatus(err, http.StatusNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// validationErr формирует ошибку валидации с текстом для пользователя.
func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
